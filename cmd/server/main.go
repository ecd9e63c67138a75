package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/langchou/navguard/internal/api/handlers"
	"github.com/langchou/navguard/internal/config"
	"github.com/langchou/navguard/internal/engine"
	"github.com/langchou/navguard/internal/repository"
	"github.com/langchou/navguard/internal/service"
	"github.com/langchou/navguard/internal/voice"
	"github.com/langchou/navguard/pkg/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger := initLogger(cfg.Debug)
	defer logger.Sync()

	logger.Info("Starting Navguard", zap.String("port", cfg.ServerPort))

	// 创建 context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 连接数据库
	db, err := repository.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to connect database", zap.Error(err))
	}
	defer db.Close()

	// 执行数据库迁移
	if err := db.Migrate(ctx); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database migrated successfully")

	// 创建 Repository
	hazardRepo := repository.NewHazardRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	tripRepo := repository.NewTripRepository(db)

	// 空库写入内置危险点
	if err := hazardRepo.Seed(ctx); err != nil {
		logger.Fatal("Failed to seed hazard points", zap.Error(err))
	}

	hazards, err := hazardRepo.List(ctx)
	if err != nil {
		logger.Fatal("Failed to load hazard points", zap.Error(err))
	}
	logger.Info("Hazard points loaded", zap.Int("count", len(hazards)))

	// 创建告警引擎
	eng, err := engine.New(cfg.Engine, hazards, logger)
	if err != nil {
		logger.Fatal("Invalid engine config", zap.Error(err))
	}

	// 创建 WebSocket Hub
	wsHub := ws.NewHub(logger)
	go wsHub.Run()

	// 创建告警服务
	sink := voice.NewLogSink(logger)
	alertService := service.NewAlertService(cfg, logger, eng, hazardRepo, alertRepo, tripRepo, wsHub, sink)
	wsHub.SetInitDataProvider(func() *ws.InitData {
		return alertService.InitData(ctx)
	})

	// 定时提示
	tipsService := service.NewTipsService(cfg, logger, alertService)
	tipsService.Start(ctx)

	// 创建 HTTP 处理器
	handler := handlers.NewHandler(logger, alertService, wsHub)

	// 设置 Gin 模式
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	// 创建路由
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(corsMiddleware())

	// 注册路由
	handler.RegisterRoutes(router)

	// 启动 HTTP 服务器
	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	logger.Info("Server started", zap.String("addr", server.Addr))

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// 停止服务
	tipsService.Stop()

	// 落盘未完结的行程
	if _, err := alertService.Reset(context.Background()); err != nil {
		logger.Error("Failed to flush trip on shutdown", zap.Error(err))
	}

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

// initLogger 初始化日志
func initLogger(debug bool) *zap.Logger {
	var config zap.Config
	if debug {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		config = zap.NewProductionConfig()
	}

	logger, _ := config.Build()
	return logger
}

// corsMiddleware CORS 中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
