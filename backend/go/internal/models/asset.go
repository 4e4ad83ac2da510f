package models

import (
	"time"

	"gorm.io/gorm"
)

// 资产的来源类型。vcenter 是权威的基础设施清单，commvault 是备份保护系统视角。
const (
	AssetSourceInventory  = "vcenter"
	AssetSourceProtection = "commvault"
)

// Asset 代表一台被纳管（或应当被纳管）的虚拟机/主机。
// 同一台机器可能同时出现在基础设施清单和备份系统中，
// 两个视角的差集就是保护缺口报告的内容。
type Asset struct {
	gorm.Model

	AssetName  string    `gorm:"uniqueIndex:idx_asset_identity;not null;size:191" json:"asset_name"`
	SourceType string    `gorm:"uniqueIndex:idx_asset_identity;not null;size:64" json:"source_type"` // "vcenter" 或 "commvault"
	LastSeen   time.Time `json:"last_seen"`
	TenantID   uint      `gorm:"uniqueIndex:idx_asset_identity;not null" json:"tenant_id"`
}

func (Asset) TableName() string {
	return "assets"
}
