package store

import (
	"Hokage/backend/go/internal/models"

	"gorm.io/gorm"
)

// Store 封装了用户与租户的数据库访问。
type Store struct {
	DB *gorm.DB
}

// NewStore 创建一个新的 Store 实例。
func NewStore(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// CreateUserAndTenant 在一个事务中创建租户和它的第一个用户（owner 角色）。
// 任何一步失败都会整体回滚，避免出现没有 owner 的租户。
func (s *Store) CreateUserAndTenant(user *models.User, tenantName string) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		tenant := &models.Tenant{Name: tenantName}
		if err := tx.Create(tenant).Error; err != nil {
			return err
		}

		user.TenantID = tenant.ID
		user.Role = models.RoleOwner
		if err := tx.Create(user).Error; err != nil {
			return err
		}

		// 回填租户的 owner_id。
		return tx.Model(tenant).Update("owner_id", user.ID).Error
	})
}

// CreateUser 在已有租户内创建一个用户（邀请流程）。
func (s *Store) CreateUser(user *models.User) error {
	return s.DB.Create(user).Error
}

// GetUserByEmail 通过邮箱地址查找用户。
func (s *Store) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := s.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID 通过 ID 查找用户。
func (s *Store) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.DB.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByTenant 返回某租户下的全部用户。
func (s *Store) GetUsersByTenant(tenantID uint) ([]models.User, error) {
	var users []models.User
	if err := s.DB.Where("tenant_id = ?", tenantID).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// UpdateUser 更新用户信息。
func (s *Store) UpdateUser(user *models.User) error {
	return s.DB.Save(user).Error
}
