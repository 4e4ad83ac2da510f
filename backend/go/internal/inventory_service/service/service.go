package service

import (
	"fmt"
	"time"

	"Hokage/backend/go/internal/inventory_service/store"
	"Hokage/backend/go/internal/models"
)

// AssetReport is one asset as reported by a collector agent.
type AssetReport struct {
	AssetName  string `json:"asset_name" binding:"required"`
	SourceType string `json:"source_type" binding:"required"`
}

// staleAfter is how long an inventory asset may go unreported before the
// reconciliation report flags it as stale.
const staleAfter = 24 * time.Hour

// ReconciliationReport compares the infrastructure inventory against the
// backup system. Unprotected assets exist in vCenter but have no matching
// entry in Commvault; orphaned assets are the inverse, machines still
// configured for backup that are gone from the inventory. Stale assets are
// inventory entries no collector has refreshed recently, usually a sign
// the agent covering them stopped reporting.
type ReconciliationReport struct {
	Unprotected []string `json:"unprotected"`
	Orphaned    []string `json:"orphaned"`
	Stale       []string `json:"stale"`
	TotalAssets int      `json:"total_assets"`
	GeneratedAt string   `json:"generated_at"`
}

// Service holds the business logic for asset ingestion and reconciliation.
type Service struct {
	store *store.Store
}

// NewService creates a new Service instance.
func NewService(s *store.Store) *Service {
	return &Service{store: s}
}

// IngestAssets saves a batch of assets reported by an agent.
func (s *Service) IngestAssets(tenantID uint, reports []AssetReport) (int, error) {
	now := time.Now().UTC()
	assets := make([]models.Asset, 0, len(reports))
	for _, r := range reports {
		if r.SourceType != models.AssetSourceInventory && r.SourceType != models.AssetSourceProtection {
			return 0, fmt.Errorf("unknown asset source type %q", r.SourceType)
		}
		assets = append(assets, models.Asset{
			AssetName:  r.AssetName,
			SourceType: r.SourceType,
			LastSeen:   now,
			TenantID:   tenantID,
		})
	}
	if err := s.store.UpsertAssets(assets); err != nil {
		return 0, err
	}
	return len(assets), nil
}

// Reconcile builds the protection gap report for one tenant.
func (s *Service) Reconcile(tenantID uint) (*ReconciliationReport, error) {
	inventory, err := s.store.ListBySource(tenantID, models.AssetSourceInventory)
	if err != nil {
		return nil, err
	}
	protected, err := s.store.ListBySource(tenantID, models.AssetSourceProtection)
	if err != nil {
		return nil, err
	}
	stale, err := s.store.StaleBefore(tenantID, models.AssetSourceInventory, time.Now().UTC().Add(-staleAfter))
	if err != nil {
		return nil, err
	}
	return buildReport(inventory, protected, stale), nil
}

// buildReport computes the two-way set difference between the inventory
// view and the protection view, and lists the stale inventory entries.
func buildReport(inventory, protected, stale []models.Asset) *ReconciliationReport {
	inventoryNames := make(map[string]bool, len(inventory))
	for _, a := range inventory {
		inventoryNames[a.AssetName] = true
	}
	protectedNames := make(map[string]bool, len(protected))
	for _, a := range protected {
		protectedNames[a.AssetName] = true
	}

	report := &ReconciliationReport{
		Unprotected: []string{},
		Orphaned:    []string{},
		Stale:       []string{},
		TotalAssets: len(inventory),
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
	}
	for _, a := range stale {
		report.Stale = append(report.Stale, a.AssetName)
	}
	for _, a := range inventory {
		if !protectedNames[a.AssetName] {
			report.Unprotected = append(report.Unprotected, a.AssetName)
		}
	}
	for _, a := range protected {
		if !inventoryNames[a.AssetName] {
			report.Orphaned = append(report.Orphaned, a.AssetName)
		}
	}
	return report
}
