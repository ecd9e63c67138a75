package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/config"
	"github.com/langchou/navguard/internal/models"
)

// 轮播的驾驶提示文案
var tipMessages = []string{
	"Keep a safe distance from the vehicle ahead",
	"Remember to check your mirrors regularly",
	"Stay hydrated on long drives",
	"Adjust your speed to road conditions",
	"Take a short break every two hours",
}

// TipsService 定时产出低优先级个性化提示
// 提示和其他告警走同一套仲裁，忙碌时段自然被压制
type TipsService struct {
	cfg    *config.Config
	logger *zap.Logger
	alerts *AlertService

	mu      sync.Mutex
	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
	nextIdx int
}

// NewTipsService 创建提示服务
func NewTipsService(cfg *config.Config, logger *zap.Logger, alerts *AlertService) *TipsService {
	return &TipsService{
		cfg:    cfg,
		logger: logger,
		alerts: alerts,
	}
}

// Start 启动定时提示
func (t *TipsService) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running || !t.cfg.TipsEnabled {
		t.mu.Unlock()
		return
	}
	t.stopCh = make(chan struct{})
	t.running = true
	t.mu.Unlock()

	t.wg.Add(1)
	go t.loop(ctx)
	t.logger.Info("Tips service started", zap.Duration("interval", t.cfg.TipsInterval))
}

// Stop 停止定时提示
func (t *TipsService) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	close(t.stopCh)
	t.running = false
	t.mu.Unlock()

	t.wg.Wait()
	t.logger.Info("Tips service stopped")
}

func (t *TipsService) loop(ctx context.Context) {
	defer t.wg.Done()

	ticker := time.NewTicker(t.cfg.TipsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.stopCh:
			return
		case <-ticker.C:
			t.offerNext(ctx)
		}
	}
}

func (t *TipsService) offerNext(ctx context.Context) {
	t.mu.Lock()
	tip := tipMessages[t.nextIdx%len(tipMessages)]
	t.nextIdx++
	t.mu.Unlock()

	ev := models.AlertEvent{
		Category:   models.CategoryPersonal,
		Priority:   models.PriorityLow,
		TemplateID: "personal_tip",
		Params:     []models.Param{{Key: "tip", Value: tip}},
		DedupeKey:  "tip:rotation",
	}

	if t.alerts.OfferTip(ctx, ev) {
		t.logger.Debug("Personal tip admitted", zap.String("tip", tip))
	}
}
