package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/models"
)

// IngestRequest 采样请求
type IngestRequest struct {
	Sample models.Sample        `json:"sample" binding:"required"`
	Route  *models.RouteContext `json:"route"`
}

// Ingest 提交一个采样点
// POST /api/ingest
func (h *Handler) Ingest(c *gin.Context) {
	var req IngestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	admitted := h.alertService.Ingest(c.Request.Context(), req.Sample, req.Route)
	status := h.alertService.Status()

	c.JSON(http.StatusOK, gin.H{
		"data": gin.H{
			"alerts":       admitted,
			"state":        status.State,
			"safety_score": status.SafetyScore,
		},
	})
}

// Reset 结束当前行程并开始新会话
// POST /api/reset
func (h *Handler) Reset(c *gin.Context) {
	trip, err := h.alertService.Reset(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to reset session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset session"})
		return
	}

	h.logger.Info("Session reset via API")
	c.JSON(http.StatusOK, gin.H{
		"message": "Session reset",
		"trip":    trip,
	})
}

// GetState 当前会话快照
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.alertService.Status()})
}

// GetStateHistory 本会话的状态转换历史
func (h *Handler) GetStateHistory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": h.alertService.StateHistory()})
}

// GetScore 当前安全分
func (h *Handler) GetScore(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"safety_score": h.alertService.SafetyScore()}})
}

// ListAlerts 最近的告警记录
func (h *Handler) ListAlerts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	alerts, err := h.alertService.RecentAlerts(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list alerts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list alerts"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": alerts})
}

// ListTrips 最近的行程
func (h *Handler) ListTrips(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	trips, err := h.alertService.RecentTrips(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to list trips", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list trips"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": trips})
}
