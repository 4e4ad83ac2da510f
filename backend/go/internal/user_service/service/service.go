package service

import (
	"errors"
	"fmt"
	"time"

	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/internal/user_service/store"

	"github.com/golang-jwt/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// 业务错误，供 API 层映射为 HTTP 状态码。
var (
	ErrEmailTaken         = errors.New("该邮箱已被注册")
	ErrInvalidCredentials = errors.New("邮箱或密码不正确")
	ErrNotAuthorized      = errors.New("权限不足")
)

// Service 封装了用户与租户的业务逻辑。
type Service struct {
	store     *store.Store
	jwtSecret []byte
	tokenTTL  time.Duration
}

// NewService 创建一个新的 Service 实例。
func NewService(s *store.Store, jwtSecret string, tokenTTLSeconds int) *Service {
	if tokenTTLSeconds <= 0 {
		tokenTTLSeconds = 3600
	}
	return &Service{
		store:     s,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  time.Duration(tokenTTLSeconds) * time.Second,
	}
}

// Signup 处理新租户注册：创建租户和第一个用户（owner）。
func (s *Service) Signup(email, password, fullName, tenantName string) (*models.User, error) {
	// 检查用户是否已存在
	if _, err := s.store.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		FullName: fullName,
	}
	if err := s.store.CreateUserAndTenant(user, tenantName); err != nil {
		return nil, fmt.Errorf("创建租户失败: %w", err)
	}
	return user, nil
}

// Login 校验密码并签发 JWT。
// 无论是用户不存在还是密码错误，都返回同一个错误，避免暴露注册过的邮箱。
func (s *Service) Login(email, password string) (string, error) {
	user, err := s.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	user.LastLoginAt = &now
	_ = s.store.UpdateUser(user)

	claims := jwt.MapClaims{
		"sub": user.ID,
		"exp": now.Add(s.tokenTTL).Unix(),
		"iat": now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("签发 token 失败: %w", err)
	}
	return signed, nil
}

// InviteUser 由 owner/admin 在自己的租户内创建新用户。
func (s *Service) InviteUser(operator *models.User, email, password, fullName string, role models.UserRole) (*models.User, error) {
	if operator.Role != models.RoleOwner && operator.Role != models.RoleAdmin {
		return nil, ErrNotAuthorized
	}
	if _, err := s.store.GetUserByEmail(email); err == nil {
		return nil, ErrEmailTaken
	}
	if role == "" {
		role = models.RoleViewer
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密码哈希失败: %w", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hashed),
		FullName: fullName,
		Role:     role,
		TenantID: operator.TenantID,
	}
	if err := s.store.CreateUser(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetUser 返回指定 ID 的用户。
func (s *Service) GetUser(id uint) (*models.User, error) {
	return s.store.GetUserByID(id)
}

// ListTenantUsers 返回某租户下的全部用户。
func (s *Service) ListTenantUsers(tenantID uint) ([]models.User, error) {
	return s.store.GetUsersByTenant(tenantID)
}
