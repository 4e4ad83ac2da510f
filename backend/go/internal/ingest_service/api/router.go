package api

import "github.com/gin-gonic/gin"

// RegisterRoutes 挂载数据源管理与作业采集的路由。
func RegisterRoutes(router *gin.Engine, h *Handler, userAuth, agentAuth gin.HandlerFunc) {
	v1 := router.Group("/api/v1")

	sources := v1.Group("/datasources")
	sources.Use(userAuth)
	{
		sources.POST("", h.CreateDataSource)
		sources.GET("", h.ListDataSources)
	}

	jobs := v1.Group("/jobs")
	jobs.Use(userAuth)
	{
		jobs.GET("", h.ListJobs)
		jobs.GET("/:id", h.GetJob)
	}

	ingest := v1.Group("/ingest")
	ingest.Use(agentAuth)
	{
		ingest.POST("/jobs", h.IngestJobs)
	}
}
