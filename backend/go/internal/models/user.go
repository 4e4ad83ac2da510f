package models

import (
	"time"

	"gorm.io/gorm"
)

// UserRole 定义了用户在租户内的角色。
type UserRole string

const (
	RoleOwner  UserRole = "owner"  // 租户创建者，拥有全部权限
	RoleAdmin  UserRole = "admin"  // 管理员，可邀请用户、管理数据源
	RoleViewer UserRole = "viewer" // 只读用户
)

// User 代表系统中的一个用户账户。
type User struct {
	gorm.Model

	Email    string `gorm:"uniqueIndex;not null" json:"email"`
	Password string `gorm:"size:255" json:"-"` // 存储哈希后的密码，json中忽略
	FullName string `gorm:"size:255" json:"full_name"`

	Role     UserRole `gorm:"type:varchar(20);default:'viewer';not null" json:"role"`
	TenantID uint     `gorm:"index;not null" json:"tenant_id"`
	Tenant   *Tenant  `json:"-"`

	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

// Tenant 代表一个租户（客户组织）。
// 租户是所有数据隔离的边界：数据源、备份作业、资产和告警都归属于某个租户。
type Tenant struct {
	gorm.Model

	Name    string `gorm:"index;not null;size:255" json:"name"`
	OwnerID uint   `gorm:"not null" json:"owner_id"` // 创建该租户的用户 ID
}

// --- 自定义表名 ---

func (User) TableName() string {
	return "users"
}

func (Tenant) TableName() string {
	return "tenants"
}
