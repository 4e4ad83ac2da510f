package api

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the alert routes.
func RegisterRoutes(router *gin.Engine, h *Handler, userAuth, agentAuth gin.HandlerFunc) {
	v1 := router.Group("/api/v1")

	alerts := v1.Group("/alerts")
	alerts.Use(userAuth)
	{
		alerts.GET("", h.ListAlerts)
		alerts.GET("/summary", h.GetSummary)
	}

	ingest := v1.Group("/ingest")
	ingest.Use(agentAuth)
	{
		ingest.POST("/alerts", h.IngestAlerts)
	}
}
