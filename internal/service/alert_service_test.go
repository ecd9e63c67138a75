package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/config"
	"github.com/langchou/navguard/internal/engine"
	"github.com/langchou/navguard/internal/models"
	"github.com/langchou/navguard/internal/voice"
	"github.com/langchou/navguard/pkg/ws"
)

func TestOfferTipRequiresSessionClock(t *testing.T) {
	eng, err := engine.New(engine.DefaultConfig(), nil, nil)
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	cfg := &config.Config{AlertHistoryLimit: 50}
	logger := zap.NewNop()
	svc := NewAlertService(cfg, logger, eng, nil, nil, nil, ws.NewHub(logger), voice.NewLogSink(logger))

	tip := models.AlertEvent{
		Category:   models.CategoryPersonal,
		Priority:   models.PriorityLow,
		TemplateID: "personal_tip",
		Params:     []models.Param{{Key: "tip", Value: "take a break"}},
		DedupeKey:  "tip:rotation",
	}

	// 首个采样到达前没有会话时钟：提示必须被拒绝，墙钟时间不得进入仲裁账本
	if svc.OfferTip(context.Background(), tip) {
		t.Fatal("tip before first sample must be rejected")
	}
	if svc.OfferTip(context.Background(), tip) {
		t.Fatal("repeated tip before first sample must still be rejected")
	}
	if n := eng.EmissionsAt(0); n != 0 {
		t.Fatalf("throttle ledger must stay empty, got %d emissions", n)
	}
}
