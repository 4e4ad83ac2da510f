package api

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the user-facing triage routes and the agent-facing
// dispatch routes. userAuth validates a JWT; agentAuth validates the
// per-data-source API key.
func RegisterRoutes(router *gin.Engine, a *API, userAuth, agentAuth gin.HandlerFunc) {
	v1 := router.Group("/api/v1")

	tasks := v1.Group("/tasks")
	tasks.Use(userAuth)
	{
		tasks.POST("/diagnose", a.CreateDiagnosisHandler)
		tasks.GET("/:id", a.GetTaskHandler)
	}

	agent := v1.Group("/agent/tasks")
	agent.Use(agentAuth)
	{
		agent.GET("/next", a.NextTaskHandler)
		agent.POST("/:id/report", a.ReportTaskHandler)
	}
}
