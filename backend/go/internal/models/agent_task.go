package models

import (
	"time"

	"gorm.io/datatypes"
)

// TaskStatus 定义了诊断任务的几种可能状态。
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"    // 已创建，等待 Agent 领取
	TaskStatusProcessing TaskStatus = "processing" // 已下发给 Agent，执行中
	TaskStatusComplete   TaskStatus = "complete"   // Agent 已上报结果，等待诊断流水线处理
	TaskStatusFailed     TaskStatus = "failed"     // Agent 上报失败，终态
	TaskStatusTriaging   TaskStatus = "triaging"   // 诊断流水线已认领，分析进行中
	TaskStatusFinalized  TaskStatus = "finalized"  // 分析结论已产出，终态
)

// TaskType 定义了下发给采集 Agent 的任务类型。
type TaskType string

const (
	TaskTypeGetJobDetails   TaskType = "GET_JOB_DETAILS"   // 采集失败作业的摘要与事件
	TaskTypeGetSpecificLogs TaskType = "GET_SPECIFIC_LOGS" // 采集指定日志文件的片段
)

// Result 中各阶段写入的键。一旦写入只增不删，保证重复轮询幂等。
const (
	ResultKeyJobID          = "job_id"
	ResultKeyFailureSummary = "failure_summary"
	ResultKeyEvents         = "events"
	ResultKeyLogs           = "logs"
	ResultKeyTriageComplete = "triage_complete"
	ResultKeyTriageDecision = "triage_decision"
	ResultKeyAIAnalysis     = "ai_analysis"
)

// AgentTask 代表一个下发给采集 Agent 的异步诊断任务。
// OwnerID 指向任务要送达的数据源（即该数据源对应的 Agent）。
// Payload 是交给 Agent 的输入；Result 在任务生命周期内被多个阶段
// 原地合并（不整体替换），早期阶段写入的键始终保留。
type AgentTask struct {
	ID           string         `gorm:"primaryKey;size:36" json:"id"` // UUID
	OwnerID      uint           `gorm:"index;not null" json:"owner_id"`
	TenantID     uint           `gorm:"index;not null" json:"tenant_id"`
	TaskType     TaskType       `gorm:"type:varchar(32);not null" json:"task_type"`
	Status       TaskStatus     `gorm:"type:varchar(16);index;not null" json:"status"`
	Payload      datatypes.JSON `json:"payload"`
	Result       datatypes.JSON `json:"result"`
	ErrorDetails string         `gorm:"size:2048" json:"error_details,omitempty"`
	ParentTaskID *string        `gorm:"index;size:36" json:"parent_task_id,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (AgentTask) TableName() string {
	return "agent_tasks"
}

// IsTerminal 报告任务是否已处于终态。
func (t *AgentTask) IsTerminal() bool {
	return t.Status == TaskStatusFinalized || t.Status == TaskStatusFailed
}
