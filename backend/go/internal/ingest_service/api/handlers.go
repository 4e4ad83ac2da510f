package api

import (
	"net/http"
	"strconv"

	"Hokage/backend/go/internal/agentauth"
	"Hokage/backend/go/internal/ingest_service/service"
	"Hokage/backend/go/internal/models"
	"Hokage/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handler 封装了数据源与作业采集的 API endpoint 处理函数。
type Handler struct {
	service *service.Service
	logger  *logger.Logger
}

// NewHandler 创建一个新的 Handler 实例。
func NewHandler(s *service.Service, log *logger.Logger) *Handler {
	return &Handler{service: s, logger: log}
}

// CreateDataSourceRequest 定义了创建数据源请求的 JSON 结构。
type CreateDataSourceRequest struct {
	Name       string `json:"name" binding:"required"`
	Hostname   string `json:"hostname" binding:"required"`
	SourceType string `json:"source_type" binding:"required"`
}

// CreateDataSource 创建数据源。响应中返回一次性的 Agent API Key，
// 之后无法再查询到，调用方需要妥善保存。
func (h *Handler) CreateDataSource(c *gin.Context) {
	role := c.GetString("userRole")
	if role != string(models.RoleOwner) && role != string(models.RoleAdmin) {
		c.JSON(http.StatusForbidden, gin.H{"error": "权限不足"})
		return
	}

	var req CreateDataSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	source, err := h.service.RegisterDataSource(c.GetUint("tenantID"), req.Name, req.Hostname, req.SourceType)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "创建数据源失败"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"data_source_id": source.ID,
		"api_key":        source.APIKey,
	})
}

// ListDataSources 返回当前租户的数据源及其 Agent 在线状态。
func (h *Handler) ListDataSources(c *gin.Context) {
	views, err := h.service.ListDataSources(c.Request.Context(), c.GetUint("tenantID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询数据源失败"})
		return
	}
	c.JSON(http.StatusOK, views)
}

// IngestJobs 接收 Agent 批量上报的备份作业。
func (h *Handler) IngestJobs(c *gin.Context) {
	var reports []service.JobReport
	if err := c.ShouldBindJSON(&reports); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataSourceID := c.GetUint(agentauth.ContextDataSourceID)
	count, err := h.service.IngestJobs(dataSourceID, reports)
	if err != nil {
		h.logger.WithError(models.ErrorInfo{Message: err.Error(), Type: "database_error"}).Error("保存备份作业失败")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "保存备份作业失败"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok", "received_jobs": count})
}

// ListJobs 返回当前租户的备份作业。
func (h *Handler) ListJobs(c *gin.Context) {
	jobs, err := h.service.ListJobs(c.GetUint("tenantID"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询备份作业失败"})
		return
	}
	c.JSON(http.StatusOK, jobs)
}

// GetJob 返回当前租户的指定备份作业。
func (h *Handler) GetJob(c *gin.Context) {
	jobRowID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "无效的作业 ID 格式"})
		return
	}

	job, err := h.service.GetJob(c.GetUint("tenantID"), uint(jobRowID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查询备份作业失败"})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "备份作业不存在"})
		return
	}
	c.JSON(http.StatusOK, job)
}
