package api

import (
	"errors"
	"net/http"

	"Hokage/backend/go/internal/agentauth"
	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/internal/task_service/service"
	"Hokage/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// statusClientClosedRequest is the nginx convention for a request the
// client abandoned. Distinct from 204 so dashboards can tell disconnects
// from empty polls.
const statusClientClosedRequest = 499

// API provides handlers for diagnostic task dispatch and triage.
type API struct {
	triage     *service.Triage
	dispatcher *service.Dispatcher
	logger     *logger.Logger
}

// NewAPI creates a new API handler.
func NewAPI(triage *service.Triage, dispatcher *service.Dispatcher, log *logger.Logger) *API {
	return &API{triage: triage, dispatcher: dispatcher, logger: log}
}

// CreateDiagnosisHandler starts the diagnostic pipeline for a failed job.
func (a *API) CreateDiagnosisHandler(c *gin.Context) {
	tenantID := c.GetUint("tenantID")

	var req struct {
		JobID uint `json:"job_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	task, err := a.triage.CreateDiagnosis(c.Request.Context(), tenantID, req.JobID)
	if err != nil {
		if errors.Is(err, service.ErrJobNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Backup job not found"})
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to create diagnosis task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create diagnosis task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"task_id": task.ID, "status": task.Status})
}

// GetTaskHandler returns the task's current state after running whichever
// triage stage is newly eligible. Polling a task that is not ready yet is
// not an error.
func (a *API) GetTaskHandler(c *gin.Context) {
	tenantID := c.GetUint("tenantID")
	taskID := c.Param("id")

	task, err := a.triage.PollTask(c.Request.Context(), tenantID, taskID)
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
			return
		}
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to poll task")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve task"})
		return
	}

	c.JSON(http.StatusOK, task)
}

// NextTaskHandler is the collector agent's long-poll. The response is a
// task when one is or becomes available, 204 when the bounded wait expires
// (reconnect immediately), and 409 when a poll is already outstanding for
// this data source.
func (a *API) NextTaskHandler(c *gin.Context) {
	ownerID := c.GetUint(agentauth.ContextDataSourceID)

	task, err := a.dispatcher.AwaitTask(c.Request.Context(), ownerID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, task)
	case errors.Is(err, service.ErrNoTask):
		c.Status(http.StatusNoContent)
	case errors.Is(err, service.ErrAlreadyWaiting):
		c.JSON(http.StatusConflict, gin.H{"error": "A poll is already in progress for this data source"})
	case errors.Is(err, service.ErrPollClosed):
		c.Status(statusClientClosedRequest)
	default:
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Long-poll failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to wait for a task"})
	}
}

// ReportTaskHandler records the outcome an agent submits for a task.
func (a *API) ReportTaskHandler(c *gin.Context) {
	ownerID := c.GetUint(agentauth.ContextDataSourceID)
	taskID := c.Param("id")

	var req struct {
		Status       models.TaskStatus      `json:"status" binding:"required"`
		Result       map[string]interface{} `json:"result"`
		ErrorDetails string                 `json:"error_details"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	task, err := a.dispatcher.ReportResult(c.Request.Context(), ownerID, taskID, req.Status, req.Result, req.ErrorDetails)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"task_id": task.ID, "status": task.Status})
	case errors.Is(err, service.ErrInvalidReportStatus):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrReportConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "Task is not awaiting a report"})
	case errors.Is(err, service.ErrTaskNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Task not found"})
	default:
		a.logger.WithError(models.ErrorInfo{Message: err.Error()}).Error("Failed to record task result")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record task result"})
	}
}
