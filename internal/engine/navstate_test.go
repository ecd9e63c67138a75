package engine

import (
	"testing"

	"github.com/langchou/navguard/internal/models"
)

func routeCtx(limit, toTurn, toDest float64) *models.RouteContext {
	return &models.RouteContext{
		SpeedLimitKph:          limit,
		DistanceToNextTurnM:    toTurn,
		NextTurnDirection:      "right",
		DistanceToDestinationM: toDest,
	}
}

func TestIdleWhenStopped(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	if ev := m.Process(1000, 0, routeCtx(60, 100, 10_000)); ev != nil {
		t.Fatalf("stopped vehicle must stay idle, got %v", ev)
	}
	if m.Current() != models.StateIdle {
		t.Fatalf("expected idle, got %s", m.Current())
	}
}

func TestIdleWithoutRoute(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	if ev := m.Process(1000, 90, nil); ev != nil {
		t.Fatalf("no route must mean idle, got %v", ev)
	}
}

func TestSpeedWarningPrecedesEverything(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	// 同时满足超速、接近目的地、接近转弯：超速优先
	rc := routeCtx(60, 100, 300)
	ev := m.Process(1000, 85, rc)
	if ev == nil || ev.TemplateID != "speed_warning" {
		t.Fatalf("expected speed_warning, got %v", ev)
	}
	if m.Current() != models.StateSpeedWarning {
		t.Fatalf("expected speed_warning state, got %s", m.Current())
	}
	if ev.Param("limit") == "" || ev.Param("speed") == "" {
		t.Fatalf("speed warning must carry limit and speed, got %v", ev.Params)
	}
}

func TestSpeedWarningMargin(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	// 限速 60，79 不算，81 才算（限速 +20 之上）
	if m.determineNext(models.StateIdle, 79, routeCtx(60, 10_000, 10_000)) != models.StateIdle {
		t.Fatal("79 kph under limit+20 must not warn")
	}
	if m.determineNext(models.StateIdle, 81, routeCtx(60, 10_000, 10_000)) != models.StateSpeedWarning {
		t.Fatal("81 kph over limit+20 must warn")
	}
}

func TestNearDestination(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	ev := m.Process(1000, 40, routeCtx(60, 10_000, 450))
	if ev == nil || ev.TemplateID != "near_destination" {
		t.Fatalf("expected near_destination, got %v", ev)
	}
}

func TestTurnDistanceBands(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	cases := []struct {
		toTurn float64
		want   models.NavigationState
	}{
		{40, models.StateInTurn},
		{100, models.StateApproaching},
		{149, models.StateApproaching},
		{160, models.StateIdle}, // 150-200 的空档
		{300, models.StateIdle},
	}
	for _, c := range cases {
		got := m.determineNext(models.StateIdle, 40, routeCtx(60, c.toTurn, 10_000))
		if got != c.want {
			t.Errorf("toTurn=%v: got %s, want %s", c.toTurn, got, c.want)
		}
	}
}

func TestHazardAhead(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	rc := routeCtx(60, 10_000, 10_000)
	rc.HazardAheadLabel = "roadworks"
	rc.DistanceToHazardM = 250

	ev := m.Process(1000, 40, rc)
	if ev == nil || ev.TemplateID != "hazard_ahead" {
		t.Fatalf("expected hazard_ahead, got %v", ev)
	}
	if ev.Param("hazard") != "roadworks" {
		t.Fatalf("expected hazard label param, got %v", ev.Params)
	}
}

func TestPostTurnAfterInTurn(t *testing.T) {
	m := NewStateMachine(DefaultConfig())

	// 进入转弯
	if ev := m.Process(1000, 30, routeCtx(60, 40, 10_000)); ev == nil || ev.TemplateID != "turn_now" {
		t.Fatalf("expected turn_now, got %v", ev)
	}
	// 转弯点落到身后，下一个转弯在 500 米外
	ev := m.Process(4000, 30, routeCtx(60, 500, 10_000))
	if ev == nil || ev.TemplateID != "turn_done" {
		t.Fatalf("expected turn_done after exiting turn, got %v", ev)
	}
	if m.Current() != models.StatePostTurn {
		t.Fatalf("expected post_turn, got %s", m.Current())
	}

	// 再往前走恢复 Idle
	m.Process(7000, 30, routeCtx(60, 500, 10_000))
	if m.Current() != models.StateIdle {
		t.Fatalf("expected idle after post_turn, got %s", m.Current())
	}
}

func TestDwellTimeBlocksRapidTransitions(t *testing.T) {
	cfg := DefaultConfig()
	m := NewStateMachine(cfg)

	// 首次转换立即生效
	if ev := m.Process(1000, 90, routeCtx(60, 10_000, 10_000)); ev == nil {
		t.Fatal("first transition should commit")
	}
	// 500ms 后条件变化，驻留时间不足
	if ev := m.Process(1500, 40, routeCtx(60, 10_000, 450)); ev != nil {
		t.Fatalf("transition within dwell time must be blocked, got %v", ev)
	}
	if m.Current() != models.StateSpeedWarning {
		t.Fatalf("state must hold during dwell, got %s", m.Current())
	}
	// 驻留期满后允许
	if ev := m.Process(3000, 40, routeCtx(60, 10_000, 450)); ev == nil {
		t.Fatal("transition after dwell time should commit")
	}

	// 不变式：所有已提交转换间隔 ≥ MinStateDuration
	hist := m.History()
	for i := 1; i < len(hist); i++ {
		if gap := hist[i].TimestampMs - hist[i-1].TimestampMs; gap < cfg.MinStateDurationMs {
			t.Fatalf("transitions %d and %d only %dms apart", i-1, i, gap)
		}
	}
}

func TestApproachingRemembersDirection(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	rc := routeCtx(60, 100, 10_000)
	rc.NextTurnDirection = "left"

	ev := m.Process(1000, 40, rc)
	if ev == nil || ev.Param("direction") != "left" {
		t.Fatalf("expected direction=left, got %v", ev)
	}

	// InTurn 沿用上次记住的方向
	rc2 := routeCtx(60, 30, 10_000)
	rc2.NextTurnDirection = ""
	ev = m.Process(4000, 30, rc2)
	if ev == nil || ev.Param("direction") != "left" {
		t.Fatalf("in_turn should reuse last direction, got %v", ev)
	}
}

func TestStateMachineReset(t *testing.T) {
	m := NewStateMachine(DefaultConfig())
	m.Process(1000, 90, routeCtx(60, 10_000, 10_000))
	if len(m.History()) != 1 {
		t.Fatal("setup failed")
	}

	m.Reset()
	if m.Current() != models.StateIdle {
		t.Fatalf("expected idle after reset, got %s", m.Current())
	}
	if len(m.History()) != 0 {
		t.Fatalf("expected empty history after reset, got %d", len(m.History()))
	}
	// reset 后首次转换不受旧驻留时间限制
	if ev := m.Process(2100, 90, routeCtx(60, 10_000, 10_000)); ev == nil {
		t.Fatal("transition after reset should commit")
	}
}
