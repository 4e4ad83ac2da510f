package store

import (
	"errors"

	"Hokage/backend/go/internal/models"

	"gorm.io/gorm"
)

// Store 封装了数据源与备份作业的数据库访问。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// CreateDataSource 创建一个数据源。
func (s *Store) CreateDataSource(source *models.DataSource) error {
	return s.DB.Create(source).Error
}

// ListDataSources 返回某租户下的全部数据源。
func (s *Store) ListDataSources(tenantID uint) ([]models.DataSource, error) {
	var sources []models.DataSource
	if err := s.DB.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&sources).Error; err != nil {
		return nil, err
	}
	return sources, nil
}

// BulkInsertJobs 批量保存一个 Agent 上报的备份作业。
func (s *Store) BulkInsertJobs(jobs []models.BackupJob) error {
	if len(jobs) == 0 {
		return nil
	}
	return s.DB.Create(&jobs).Error
}

// ListJobsByTenant 返回某租户全部数据源下的备份作业。
func (s *Store) ListJobsByTenant(tenantID uint) ([]models.BackupJob, error) {
	var jobs []models.BackupJob
	err := s.DB.
		Joins("JOIN data_sources ON data_sources.id = backup_jobs.data_source_id").
		Where("data_sources.tenant_id = ?", tenantID).
		Order("backup_jobs.start_time DESC").
		Find(&jobs).Error
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// GetJobByID 返回某租户下指定行号的备份作业；不存在时返回 nil。
func (s *Store) GetJobByID(tenantID, jobRowID uint) (*models.BackupJob, error) {
	var job models.BackupJob
	err := s.DB.
		Joins("JOIN data_sources ON data_sources.id = backup_jobs.data_source_id").
		Where("backup_jobs.id = ? AND data_sources.tenant_id = ?", jobRowID, tenantID).
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}
