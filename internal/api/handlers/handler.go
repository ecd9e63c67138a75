package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/service"
	"github.com/langchou/navguard/pkg/ws"
)

// Handler HTTP 处理器
type Handler struct {
	logger       *zap.Logger
	alertService *service.AlertService
	wsHub        *ws.Hub
	upgrader     websocket.Upgrader
}

// NewHandler 创建处理器
func NewHandler(
	logger *zap.Logger,
	alertService *service.AlertService,
	wsHub *ws.Hub,
) *Handler {
	return &Handler{
		logger:       logger,
		alertService: alertService,
		wsHub:        wsHub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // 开发环境允许所有来源
			},
		},
	}
}

// RegisterRoutes 注册路由
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	// API 路由
	api := r.Group("/api")
	{
		// 采样与会话
		api.POST("/ingest", h.Ingest)
		api.POST("/reset", h.Reset)
		api.GET("/state", h.GetState)
		api.GET("/state/history", h.GetStateHistory)
		api.GET("/score", h.GetScore)

		// 危险点
		api.GET("/hazards", h.ListHazards)
		api.POST("/hazards", h.SaveHazard)
		api.DELETE("/hazards/:id", h.DeleteHazard)

		// 告警和行程历史
		api.GET("/alerts", h.ListAlerts)
		api.GET("/trips", h.ListTrips)
	}

	// WebSocket
	r.GET("/ws", h.HandleWebSocket)

	// 健康检查
	r.GET("/health", h.HealthCheck)
}

// HandleWebSocket WebSocket 处理
func (h *Handler) HandleWebSocket(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade websocket", zap.Error(err))
		return
	}

	client := ws.NewClient(h.wsHub, conn)
	client.Register()

	// 启动读写协程
	go client.ReadPump()
	go client.WritePump()
}

// HealthCheck 健康检查
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"ws_clients": h.wsHub.ClientCount(),
	})
}
