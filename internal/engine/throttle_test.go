package engine

import (
	"testing"

	"github.com/langchou/navguard/internal/models"
)

func candidate(cat models.AlertCategory, prio models.Priority) models.AlertEvent {
	return models.AlertEvent{Category: cat, Priority: prio, TemplateID: "speed_violation", DedupeKey: "t"}
}

func TestCategoryCooldown(t *testing.T) {
	tr := NewThrottle(DefaultConfig())

	if !tr.Admit(1000, candidate(models.CategorySafety, models.PriorityHigh)) {
		t.Fatal("first alert must be admitted")
	}
	if tr.Admit(10_000, candidate(models.CategorySafety, models.PriorityHigh)) {
		t.Fatal("second alert within cooldown must be rejected")
	}
	// 其他类别不受影响
	if !tr.Admit(10_000, candidate(models.CategoryNavigation, models.PriorityNormal)) {
		t.Fatal("different category must not share cooldown")
	}
	// 冷却期满
	if !tr.Admit(31_001, candidate(models.CategorySafety, models.PriorityHigh)) {
		t.Fatal("alert after cooldown must be admitted")
	}
}

func TestUrgentBypassesCooldown(t *testing.T) {
	tr := NewThrottle(DefaultConfig())

	tr.Admit(1000, candidate(models.CategorySafety, models.PriorityHigh))
	if !tr.Admit(2000, candidate(models.CategorySafety, models.PriorityUrgent)) {
		t.Fatal("urgent alert must bypass category cooldown")
	}
}

func TestHourlyCap(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewThrottle(cfg)

	admitted := 0
	// 类别轮换避开冷却，30 次尝试间隔 1 分钟
	cats := []models.AlertCategory{models.CategorySafety, models.CategoryNavigation, models.CategoryTraffic}
	for i := 0; i < 30; i++ {
		now := int64(1000 + i*60_000)
		if tr.Admit(now, candidate(cats[i%len(cats)], models.PriorityNormal)) {
			admitted++
		}
	}
	if admitted != cfg.MaxAlertsPerHour {
		t.Fatalf("expected exactly %d admitted in the first hour, got %d", cfg.MaxAlertsPerHour, admitted)
	}
}

func TestHourlyCapRollsOver(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewThrottle(cfg)

	for i := 0; i < cfg.MaxAlertsPerHour; i++ {
		now := int64(1000 + i*60_000)
		if !tr.Admit(now, candidate(models.AlertCategory("cat-"+string(rune('a'+i))), models.PriorityNormal)) {
			t.Fatalf("alert %d should be admitted under the cap", i)
		}
	}
	if tr.Admit(16*60_000, candidate(models.CategoryWeather, models.PriorityNormal)) {
		t.Fatal("cap reached, non-urgent must be rejected")
	}
	// 一小时后最早的时间戳滑出窗口
	if !tr.Admit(1000+rollingCapWindowMs+1, candidate(models.CategoryWeather, models.PriorityNormal)) {
		t.Fatal("alert must be admitted after window rolls past oldest emission")
	}
}

func TestUrgentBypassesHourlyCap(t *testing.T) {
	cfg := DefaultConfig()
	tr := NewThrottle(cfg)

	for i := 0; i < cfg.MaxAlertsPerHour; i++ {
		tr.Admit(int64(1000+i*60_000), candidate(models.AlertCategory("cat-"+string(rune('a'+i))), models.PriorityNormal))
	}
	if !tr.Admit(16*60_000, candidate(models.CategoryFatigue, models.PriorityUrgent)) {
		t.Fatal("urgent alert must bypass hourly cap")
	}
}

func TestHazardEdgeTriggering(t *testing.T) {
	tr := NewThrottle(DefaultConfig())
	ev := models.AlertEvent{
		Category: models.CategoryNavigation, Priority: models.PriorityHigh,
		TemplateID: "speed_camera", DedupeKey: "hazard:cam-1", HazardID: "cam-1",
	}

	if !tr.Admit(1000, ev) {
		t.Fatal("first entry into radius must alert")
	}
	// 还在半径内：冷却期满也不重复
	if tr.Admit(40_000, ev) {
		t.Fatal("hazard still in radius must not re-alert")
	}

	// 驶出但未超过 1.5×radius：标记保留
	tr.ObserveHazardDistance("cam-1", 600, 500)
	if tr.Admit(80_000, ev) {
		t.Fatal("hazard inside hysteresis band must not re-arm")
	}

	// 超过清除半径后重新武装
	tr.ObserveHazardDistance("cam-1", 800, 500)
	if !tr.Admit(120_000, ev) {
		t.Fatal("hazard must re-arm after leaving 1.5×radius")
	}
}

func TestThrottleReset(t *testing.T) {
	tr := NewThrottle(DefaultConfig())
	tr.Admit(1000, candidate(models.CategorySafety, models.PriorityHigh))

	tr.Reset()
	if !tr.Admit(2000, candidate(models.CategorySafety, models.PriorityHigh)) {
		t.Fatal("cooldown must be cleared by reset")
	}
}
