package service

import (
	"context"
	"time"

	"Hokage/backend/go/internal/agentauth"
	"Hokage/backend/go/internal/ingest_service/store"
	"Hokage/backend/go/internal/models"

	"github.com/google/uuid"
)

// JobReport 是 Agent 上报的一条备份作业。
type JobReport struct {
	JobID     int64      `json:"job_id" binding:"required"`
	Status    string     `json:"status" binding:"required"`
	StartTime time.Time  `json:"start_time" binding:"required"`
	EndTime   *time.Time `json:"end_time"`
	Subclient string     `json:"subclient"`
}

// DataSourceView 是数据源列表接口的返回项，带有采集 Agent 的在线状态。
type DataSourceView struct {
	models.DataSource
	Online bool `json:"online"`
}

// Service 封装了数据源管理与作业采集的业务逻辑。
type Service struct {
	store    *store.Store
	presence *agentauth.Presence
}

// NewService 创建一个新的 Service 实例。
func NewService(s *store.Store, presence *agentauth.Presence) *Service {
	return &Service{store: s, presence: presence}
}

// RegisterDataSource 创建数据源并生成它专属的 Agent API Key。
func (s *Service) RegisterDataSource(tenantID uint, name, hostname, sourceType string) (*models.DataSource, error) {
	source := &models.DataSource{
		Name:       name,
		Hostname:   hostname,
		SourceType: sourceType,
		TenantID:   tenantID,
		APIKey:     uuid.NewString(),
	}
	if err := s.store.CreateDataSource(source); err != nil {
		return nil, err
	}
	return source, nil
}

// ListDataSources 返回租户的数据源，并标注每个数据源的 Agent 是否在线。
func (s *Service) ListDataSources(ctx context.Context, tenantID uint) ([]DataSourceView, error) {
	sources, err := s.store.ListDataSources(tenantID)
	if err != nil {
		return nil, err
	}
	views := make([]DataSourceView, 0, len(sources))
	for _, src := range sources {
		views = append(views, DataSourceView{
			DataSource: src,
			Online:     s.presence.Online(ctx, src.ID),
		})
	}
	return views, nil
}

// IngestJobs 保存一个 Agent 批量上报的备份作业。
func (s *Service) IngestJobs(dataSourceID uint, reports []JobReport) (int, error) {
	jobs := make([]models.BackupJob, 0, len(reports))
	for _, r := range reports {
		jobs = append(jobs, models.BackupJob{
			JobID:        r.JobID,
			DataSourceID: dataSourceID,
			Status:       r.Status,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			Subclient:    r.Subclient,
		})
	}
	if err := s.store.BulkInsertJobs(jobs); err != nil {
		return 0, err
	}
	return len(jobs), nil
}

// ListJobs 返回租户下的备份作业。
func (s *Service) ListJobs(tenantID uint) ([]models.BackupJob, error) {
	return s.store.ListJobsByTenant(tenantID)
}

// GetJob 返回租户下指定的备份作业；不存在时返回 nil。
func (s *Service) GetJob(tenantID, jobRowID uint) (*models.BackupJob, error) {
	return s.store.GetJobByID(tenantID, jobRowID)
}
