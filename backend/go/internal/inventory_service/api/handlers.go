package api

import (
	"net/http"

	"Hokage/backend/go/internal/agentauth"
	"Hokage/backend/go/internal/inventory_service/service"
	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler exposes the asset inventory API endpoints.
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, logger: log}
}

// IngestAssets receives a batch of assets reported by a collector agent.
func (h *Handler) IngestAssets(c *gin.Context) {
	var reports []service.AssetReport
	if err := c.ShouldBindJSON(&reports); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	tenantID := c.GetUint(agentauth.ContextTenantID)
	count, err := h.service.IngestAssets(tenantID, reports)
	if err != nil {
		h.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "ingest_error"}).Error("failed to ingest assets")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received_assets": count})
}

// GetReconciliation returns the protection gap report for the current tenant.
func (h *Handler) GetReconciliation(c *gin.Context) {
	report, err := h.service.Reconcile(c.GetUint("tenantID"))
	if err != nil {
		h.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).Error("failed to build reconciliation report")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build reconciliation report"})
		return
	}
	c.JSON(http.StatusOK, report)
}
