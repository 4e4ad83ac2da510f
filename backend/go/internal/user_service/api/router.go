package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 挂载用户与租户相关的路由。
// authMiddleware 由调用方创建并在多个服务的路由间共享。
func RegisterRoutes(router *gin.Engine, h *Handler, authMiddleware gin.HandlerFunc) {
	apiV1 := router.Group("/api/v1")

	// 公开路由
	auth := apiV1.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", h.Login)
	}

	// 需要认证的路由
	users := apiV1.Group("/users")
	users.Use(authMiddleware)
	{
		users.GET("/me", h.Me)
	}

	tenant := apiV1.Group("/tenant")
	tenant.Use(authMiddleware)
	{
		tenant.GET("/users", h.ListTenantUsers)
		tenant.POST("/users", h.InviteUser)
	}
}
