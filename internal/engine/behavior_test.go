package engine

import (
	"testing"

	"github.com/langchou/navguard/internal/models"
)

func newTestScorer(t *testing.T) *BehaviorScorer {
	t.Helper()
	return NewBehaviorScorer(DefaultConfig())
}

func hasTemplate(events []models.AlertEvent, id string) bool {
	for _, ev := range events {
		if ev.TemplateID == id {
			return true
		}
	}
	return false
}

func TestHardBrakePenalty(t *testing.T) {
	b := newTestScorer(t)
	events := b.Observe(1000, models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 50)

	if !hasTemplate(events, EventHardBrake) {
		t.Fatalf("expected hard brake event, got %v", events)
	}
	if got := b.Score(); got != 95 {
		t.Fatalf("expected score 95, got %v", got)
	}
}

func TestRapidAccelPenalty(t *testing.T) {
	b := newTestScorer(t)
	events := b.Observe(1000, models.DerivedMotion{AccelerationMps2: 4.5, ElapsedSec: 1}, 50)

	if !hasTemplate(events, EventRapidAccel) {
		t.Fatalf("expected rapid accel event, got %v", events)
	}
	if got := b.Score(); got != 97 {
		t.Fatalf("expected score 97, got %v", got)
	}
}

func TestSharpTurnUsesAbsoluteRate(t *testing.T) {
	b := newTestScorer(t)
	events := b.Observe(1000, models.DerivedMotion{TurnRateDegPerSec: -20, ElapsedSec: 1}, 50)

	if !hasTemplate(events, EventSharpTurn) {
		t.Fatalf("expected sharp turn event for negative rate, got %v", events)
	}
	if got := b.Score(); got != 99 {
		t.Fatalf("expected score 99, got %v", got)
	}
}

func TestSpeedViolation(t *testing.T) {
	b := newTestScorer(t)
	events := b.Observe(1000, models.DerivedMotion{ElapsedSec: 1}, 130)

	if !hasTemplate(events, EventSpeedViolation) {
		t.Fatalf("expected speed violation, got %v", events)
	}
	if got := b.Score(); got != 90 {
		t.Fatalf("expected score 90, got %v", got)
	}
}

func TestRulesFireTogether(t *testing.T) {
	b := newTestScorer(t)
	// 急刹 + 急转弯 + 超速同时发生
	events := b.Observe(1000, models.DerivedMotion{AccelerationMps2: -7, TurnRateDegPerSec: 16, ElapsedSec: 1}, 125)

	if len(events) != 3 {
		t.Fatalf("expected 3 independent events, got %d: %v", len(events), events)
	}
	if got := b.Score(); got != 84 { // 100 - 5 - 1 - 10
		t.Fatalf("expected score 84, got %v", got)
	}
}

func TestFatigueAfterRepeatedBraking(t *testing.T) {
	b := newTestScorer(t)
	cfg := DefaultConfig()

	// 疲劳窗口内第 6 次急刹才触发疲劳告警
	for i := 0; i < cfg.FatigueEventCount; i++ {
		events := b.Observe(int64(1000+i*10_000), models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 40)
		if hasTemplate(events, EventFatigue) {
			t.Fatalf("fatigue fired too early at brake %d", i+1)
		}
	}
	events := b.Observe(61_000, models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 40)
	if !hasTemplate(events, EventFatigue) {
		t.Fatalf("expected fatigue on 6th brake, got %v", events)
	}
	if b.Counters()[EventFatigue] != 1 {
		t.Fatalf("expected 1 fatigue counted, got %d", b.Counters()[EventFatigue])
	}
}

func TestFatigueWindowEviction(t *testing.T) {
	b := newTestScorer(t)
	cfg := DefaultConfig()

	// 5 次急刹后等待窗口滑过，再刹一次不应触发疲劳
	for i := 0; i < cfg.FatigueEventCount; i++ {
		b.Observe(int64(1000+i*1000), models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 40)
	}
	events := b.Observe(1000+cfg.FatigueWindowMs+10_000, models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 40)
	if hasTemplate(events, EventFatigue) {
		t.Fatal("fatigue fired from stale brake events outside the window")
	}
}

func TestScoreMonotonicAndClamped(t *testing.T) {
	b := newTestScorer(t)
	last := b.Score()
	if last != 100 {
		t.Fatalf("fresh scorer must start at 100, got %v", last)
	}

	for i := 0; i < 30; i++ {
		b.Observe(int64(1000+i*1000), models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 130)
		s := b.Score()
		if s > last {
			t.Fatalf("score increased mid-session: %v -> %v", last, s)
		}
		if s < 0 || s > 100 {
			t.Fatalf("score out of range: %v", s)
		}
		last = s
	}
	if last != 0 {
		t.Fatalf("expected score clamped at 0, got %v", last)
	}
}

func TestWindowEvictionBoundsMemory(t *testing.T) {
	b := newTestScorer(t)
	for i := 0; i < 1000; i++ {
		b.Observe(int64(i)*1000, models.DerivedMotion{ElapsedSec: 1}, 40)
	}
	// 30 秒窗口、1 秒间隔：窗口内最多 31 个样本
	if n := b.WindowSize(); n > 31 {
		t.Fatalf("window grew unbounded: %d samples", n)
	}
}

func TestScorerReset(t *testing.T) {
	b := newTestScorer(t)
	b.Observe(1000, models.DerivedMotion{AccelerationMps2: -6, ElapsedSec: 1}, 130)
	if b.Score() == 100 {
		t.Fatal("setup failed, no penalty applied")
	}

	b.Reset()
	if b.Score() != 100 {
		t.Fatalf("expected 100 after reset, got %v", b.Score())
	}
	if len(b.Counters()) != 0 {
		t.Fatalf("expected empty counters after reset, got %v", b.Counters())
	}
}
