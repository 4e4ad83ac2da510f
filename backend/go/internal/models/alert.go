package models

import (
	"time"

	"gorm.io/gorm"
)

// Alert 代表从备份系统采集到的一条告警。
// (data_source_id, source_alert_id) 唯一确定一条告警，重复上报按 upsert 处理。
type Alert struct {
	gorm.Model

	DataSourceID  uint      `gorm:"uniqueIndex:idx_alert_source;not null" json:"data_source_id"`
	SourceAlertID string    `gorm:"uniqueIndex:idx_alert_source;not null;size:128" json:"source_alert_id"`
	Severity      string    `gorm:"index;size:32" json:"severity"` // 例如: "Critical", "Warning", "Info"
	AlertType     string    `gorm:"size:128" json:"alert_type"`
	Message       string    `gorm:"size:2048" json:"message"`
	DetectedAt    time.Time `json:"detected_at"`
	TenantID      uint      `gorm:"index;not null" json:"tenant_id"`
}

func (Alert) TableName() string {
	return "alerts"
}

// AlertGroupCount 是告警汇总查询 (GROUP BY severity, source) 的结果行。
type AlertGroupCount struct {
	Severity     string `json:"severity"`
	DataSourceID uint   `json:"data_source_id"`
	Count        int64  `json:"count"`
}
