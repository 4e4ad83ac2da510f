package store

import (
	"Hokage/backend/go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps database access for backup system alerts.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a new Store instance.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// UpsertAlerts saves a batch of alerts. (data_source_id, source_alert_id)
// identifies an alert, so a re-reported alert updates in place instead of
// producing a duplicate row.
func (s *Store) UpsertAlerts(alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "data_source_id"}, {Name: "source_alert_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"severity", "alert_type", "message", "detected_at", "updated_at"}),
	}).Create(&alerts).Error
}

// ListByTenant returns a tenant's alerts, most recent first.
func (s *Store) ListByTenant(tenantID uint) ([]models.Alert, error) {
	var alerts []models.Alert
	err := s.DB.
		Where("tenant_id = ?", tenantID).
		Order("detected_at DESC").
		Find(&alerts).Error
	if err != nil {
		return nil, err
	}
	return alerts, nil
}

// CountByGroup aggregates a tenant's alerts by severity and data source.
func (s *Store) CountByGroup(tenantID uint) ([]models.AlertGroupCount, error) {
	var rows []models.AlertGroupCount
	err := s.DB.
		Model(&models.Alert{}).
		Select("severity, data_source_id, COUNT(*) AS count").
		Where("tenant_id = ?", tenantID).
		Group("severity, data_source_id").
		Order("severity ASC, data_source_id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
