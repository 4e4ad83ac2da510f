package service

import (
	"testing"

	"Hokage/backend/go/internal/models"
)

func assets(source string, names ...string) []models.Asset {
	out := make([]models.Asset, 0, len(names))
	for _, n := range names {
		out = append(out, models.Asset{AssetName: n, SourceType: source, TenantID: 1})
	}
	return out
}

func TestBuildReportFindsUnprotectedAssets(t *testing.T) {
	inventory := assets(models.AssetSourceInventory, "vm-web-01", "vm-db-01", "vm-app-01")
	protected := assets(models.AssetSourceProtection, "vm-web-01", "vm-db-01")

	report := buildReport(inventory, protected, nil)

	if report.TotalAssets != 3 {
		t.Fatalf("total assets %d, want 3", report.TotalAssets)
	}
	if len(report.Unprotected) != 1 || report.Unprotected[0] != "vm-app-01" {
		t.Fatalf("unprotected = %v, want [vm-app-01]", report.Unprotected)
	}
	if len(report.Orphaned) != 0 {
		t.Fatalf("orphaned = %v, want empty", report.Orphaned)
	}
}

func TestBuildReportFindsOrphanedBackupEntries(t *testing.T) {
	// vm-old-01 was decommissioned from vCenter but is still configured
	// for backup.
	inventory := assets(models.AssetSourceInventory, "vm-web-01")
	protected := assets(models.AssetSourceProtection, "vm-web-01", "vm-old-01")

	report := buildReport(inventory, protected, nil)

	if len(report.Unprotected) != 0 {
		t.Fatalf("unprotected = %v, want empty", report.Unprotected)
	}
	if len(report.Orphaned) != 1 || report.Orphaned[0] != "vm-old-01" {
		t.Fatalf("orphaned = %v, want [vm-old-01]", report.Orphaned)
	}
}

func TestBuildReportEmptyViews(t *testing.T) {
	report := buildReport(nil, nil, nil)
	if report.TotalAssets != 0 || len(report.Unprotected) != 0 || len(report.Orphaned) != 0 {
		t.Fatalf("empty views produced %+v", report)
	}
	// Slices must be non-nil so the JSON renders [] instead of null.
	if report.Unprotected == nil || report.Orphaned == nil || report.Stale == nil {
		t.Fatal("report slices must be initialized")
	}

	// An empty inventory makes every protected asset an orphan.
	report = buildReport(nil, assets(models.AssetSourceProtection, "vm-a", "vm-b"), nil)
	if len(report.Orphaned) != 2 {
		t.Fatalf("orphaned = %v, want two entries", report.Orphaned)
	}
}

func TestBuildReportListsStaleAssets(t *testing.T) {
	inventory := assets(models.AssetSourceInventory, "vm-web-01", "vm-db-01")
	protected := assets(models.AssetSourceProtection, "vm-web-01", "vm-db-01")
	stale := assets(models.AssetSourceInventory, "vm-db-01")

	report := buildReport(inventory, protected, stale)

	if len(report.Stale) != 1 || report.Stale[0] != "vm-db-01" {
		t.Fatalf("stale = %v, want [vm-db-01]", report.Stale)
	}
	// Staleness is orthogonal to protection coverage.
	if len(report.Unprotected) != 0 || len(report.Orphaned) != 0 {
		t.Fatalf("stale asset leaked into gap lists: %+v", report)
	}
}
