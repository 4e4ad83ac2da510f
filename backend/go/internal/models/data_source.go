package models

import (
	"gorm.io/gorm"
)

// DataSource 代表一个备份数据的来源，例如某台 CommServe 或 Veeam 服务器。
// 每个数据源对应一个部署在客户环境里的采集 Agent，
// Agent 通过数据源唯一的 API Key 向平台认证自己。
type DataSource struct {
	gorm.Model

	Name       string `gorm:"not null;size:255" json:"name"`        // 例如: "Production CommServe"
	Hostname   string `gorm:"not null;size:255" json:"hostname"`    // 例如: "falconcs.idcprodcet.loc"
	SourceType string `gorm:"not null;size:64" json:"source_type"`  // 例如: "Commvault", "Veeam"
	TenantID   uint   `gorm:"index;not null" json:"tenant_id"`      // 所属租户
	APIKey     string `gorm:"uniqueIndex;not null;size:64" json:"-"` // Agent 认证密钥，创建时生成
}

func (DataSource) TableName() string {
	return "data_sources"
}
