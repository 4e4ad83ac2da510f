package store

import (
	"time"

	"Hokage/backend/go/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store wraps database access for the asset inventory.
type Store struct {
	DB *gorm.DB
}

// NewStore creates a new Store instance.
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// UpsertAssets saves a batch of reported assets. An asset is identified by
// (tenant_id, asset_name, source_type); repeated reports only refresh last_seen.
func (s *Store) UpsertAssets(assets []models.Asset) error {
	if len(assets) == 0 {
		return nil
	}
	return s.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "tenant_id"}, {Name: "asset_name"}, {Name: "source_type"}},
		DoUpdates: clause.AssignmentColumns([]string{"last_seen", "updated_at"}),
	}).Create(&assets).Error
}

// ListBySource returns the asset names a tenant has under one source type.
func (s *Store) ListBySource(tenantID uint, sourceType string) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.DB.
		Where("tenant_id = ? AND source_type = ?", tenantID, sourceType).
		Order("asset_name ASC").
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}

// StaleBefore returns assets of one source type not seen since the cutoff.
func (s *Store) StaleBefore(tenantID uint, sourceType string, cutoff time.Time) ([]models.Asset, error) {
	var assets []models.Asset
	err := s.DB.
		Where("tenant_id = ? AND source_type = ? AND last_seen < ?", tenantID, sourceType, cutoff).
		Find(&assets).Error
	if err != nil {
		return nil, err
	}
	return assets, nil
}
