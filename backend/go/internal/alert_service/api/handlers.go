package api

import (
	"net/http"

	"Hokage/backend/go/internal/agentauth"
	"Hokage/backend/go/internal/alert_service/service"
	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler exposes the alert API endpoints.
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, logger: log}
}

// IngestAlerts receives a batch of alerts reported by a collector agent.
func (h *Handler) IngestAlerts(c *gin.Context) {
	var reports []service.AlertReport
	if err := c.ShouldBindJSON(&reports); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataSourceID := c.GetUint(agentauth.ContextDataSourceID)
	tenantID := c.GetUint(agentauth.ContextTenantID)
	count, err := h.service.IngestAlerts(dataSourceID, tenantID, reports)
	if err != nil {
		h.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).Error("failed to ingest alerts")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received_alerts": count})
}

// ListAlerts returns the current tenant's alerts.
func (h *Handler) ListAlerts(c *gin.Context) {
	alerts, err := h.service.ListAlerts(c.GetUint("tenantID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list alerts"})
		return
	}
	c.JSON(http.StatusOK, alerts)
}

// GetSummary returns the tenant's alert counts grouped by severity and source.
func (h *Handler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summarize(c.GetUint("tenantID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to summarize alerts"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
