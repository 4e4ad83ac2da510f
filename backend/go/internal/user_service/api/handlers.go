package api

import (
	"errors"
	"net/http"

	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/internal/user_service/service"

	"github.com/gin-gonic/gin"
)

// Handler 封装了用户与租户相关的 API endpoint 处理函数。
type Handler struct {
	service *service.Service
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service) *Handler {
	return &Handler{service: s}
}

// SignupRequest 定义了注册新租户请求的 JSON 结构。
type SignupRequest struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	FullName   string `json:"full_name"`
	TenantName string `json:"tenant_name" binding:"required"`
}

// Signup 处理新租户注册请求。
func (h *Handler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Signup(req.Email, req.Password, req.FullName, req.TenantName)
	if err != nil {
		if errors.Is(err, service.ErrEmailTaken) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "tenant_id": user.TenantID})
}

// LoginRequest 定义了登录请求的 JSON 结构。
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login 处理登录请求，成功时返回 JWT。
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.service.Login(req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": token, "token_type": "bearer"})
}

// Me 返回当前登录用户的信息。
func (h *Handler) Me(c *gin.Context) {
	userID := c.GetUint("userID")
	user, err := h.service.GetUser(userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "用户不存在"})
		return
	}
	c.JSON(http.StatusOK, user)
}

// ListTenantUsers 返回当前租户的全部成员。
func (h *Handler) ListTenantUsers(c *gin.Context) {
	tenantID := c.GetUint("tenantID")
	users, err := h.service.ListTenantUsers(tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, users)
}

// InviteRequest 定义了邀请用户请求的 JSON 结构。
type InviteRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	FullName string          `json:"full_name"`
	Role     models.UserRole `json:"role"`
}

// InviteUser 在当前租户内创建一个新用户，仅限 owner/admin。
func (h *Handler) InviteUser(c *gin.Context) {
	var req InviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	operator, err := h.service.GetUser(c.GetUint("userID"))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "无法获取操作者信息"})
		return
	}

	user, err := h.service.InviteUser(operator, req.Email, req.Password, req.FullName, req.Role)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrNotAuthorized):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrEmailTaken):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_id": user.ID, "role": user.Role})
}
