package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/models"
)

// ListHazards 获取全部危险点
func (h *Handler) ListHazards(c *gin.Context) {
	hazards, err := h.alertService.ListHazards(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list hazards", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list hazards"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": hazards})
}

// SaveHazard 新增或更新危险点
// POST /api/hazards
func (h *Handler) SaveHazard(c *gin.Context) {
	var p models.HazardPoint
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	if p.ID == "" || (p.Kind != models.HazardCamera && p.Kind != models.HazardBump) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Hazard requires id and kind (camera/bump)"})
		return
	}

	if err := h.alertService.SaveHazard(c.Request.Context(), &p); err != nil {
		h.logger.Error("Failed to save hazard", zap.Error(err), zap.String("id", p.ID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save hazard"})
		return
	}

	h.logger.Info("Hazard saved via API", zap.String("id", p.ID), zap.String("kind", p.Kind))
	c.JSON(http.StatusOK, gin.H{"data": p})
}

// DeleteHazard 删除危险点
// DELETE /api/hazards/:id
func (h *Handler) DeleteHazard(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid hazard ID"})
		return
	}

	if err := h.alertService.DeleteHazard(c.Request.Context(), id); err != nil {
		h.logger.Error("Failed to delete hazard", zap.Error(err), zap.String("id", id))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete hazard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Hazard deleted", "id": id})
}
