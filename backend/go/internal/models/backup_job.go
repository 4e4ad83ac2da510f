package models

import (
	"time"

	"gorm.io/gorm"
)

// BackupJob 代表从数据源采集上来的一条备份作业记录。
type BackupJob struct {
	gorm.Model

	JobID        int64      `gorm:"index;not null" json:"job_id"` // 备份系统内部的作业号
	DataSourceID uint       `gorm:"index;not null" json:"data_source_id"`
	Status       string     `gorm:"size:64" json:"status"` // 例如: "Completed", "Failed"
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	Subclient    string     `gorm:"size:255" json:"subclient"`
}

func (BackupJob) TableName() string {
	return "backup_jobs"
}
