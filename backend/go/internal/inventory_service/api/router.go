package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the asset inventory routes.
func RegisterRoutes(router *gin.Engine, h *Handler, userAuth, agentAuth gin.HandlerFunc) {
	v1 := router.Group("/api/v1")

	assets := v1.Group("/assets")
	assets.Use(userAuth)
	{
		assets.GET("/reconciliation", h.GetReconciliation)
	}

	ingest := v1.Group("/ingest")
	ingest.Use(agentAuth)
	{
		ingest.POST("/assets", h.IngestAssets)
	}
}
