package service

import (
	"time"

	"Hokage/backend/go/internal/alert_service/store"
	"Hokage/backend/go/internal/models"
)

// AlertReport is one alert as reported by a collector agent.
type AlertReport struct {
	SourceAlertID string    `json:"source_alert_id" binding:"required"`
	Severity      string    `json:"severity" binding:"required"`
	AlertType     string    `json:"alert_type"`
	Message       string    `json:"message"`
	DetectedAt    time.Time `json:"detected_at" binding:"required"`
}

// Summary aggregates a tenant's alerts for the dashboard.
type Summary struct {
	Total  int64                    `json:"total"`
	Groups []models.AlertGroupCount `json:"groups"`
}

// Service holds the business logic for alert ingestion and queries.
type Service struct {
	store *store.Store
}

// NewService creates a new Service instance.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// IngestAlerts saves a batch of alerts reported by one agent.
func (s *Service) IngestAlerts(dataSourceID, tenantID uint, reports []AlertReport) (int, error) {
	alerts := make([]models.Alert, 0, len(reports))
	for _, r := range reports {
		alerts = append(alerts, models.Alert{
			DataSourceID:  dataSourceID,
			SourceAlertID: r.SourceAlertID,
			Severity:      r.Severity,
			AlertType:     r.AlertType,
			Message:       r.Message,
			DetectedAt:    r.DetectedAt,
			TenantID:      tenantID,
		})
	}
	if err := s.store.UpsertAlerts(alerts); err != nil {
		return 0, err
	}
	return len(alerts), nil
}

// ListAlerts returns the tenant's alerts, most recent first.
func (s *Service) ListAlerts(tenantID uint) ([]models.Alert, error) {
	return s.store.ListByTenant(tenantID)
}

// Summarize aggregates the tenant's alerts by severity and data source.
func (s *Service) Summarize(tenantID uint) (*Summary, error) {
	groups, err := s.store.CountByGroup(tenantID)
	if err != nil {
		return nil, err
	}
	summary := &Summary{Groups: groups}
	for _, g := range groups {
		summary.Total += g.Count
	}
	return summary, nil
}
