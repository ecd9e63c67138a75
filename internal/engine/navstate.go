package engine

import (
	"context"
	"fmt"
	"strconv"

	"github.com/looplab/fsm"

	"github.com/langchou/navguard/internal/models"
)

// StateMachine 导航状态机
// 当前状态由 looplab/fsm 持有；驻留时间（MinStateDuration）由引擎在触发前检查
// 引擎是单逻辑 actor，串行调用，这里不加锁
type StateMachine struct {
	cfg               Config
	fsm               *fsm.FSM
	lastTransitionMs  int64
	lastTurnDirection string
	history           []models.StateTransition
}

// enterEvent 状态对应的 fsm 事件名
func enterEvent(s models.NavigationState) string {
	return "enter_" + string(s)
}

// NewStateMachine 创建状态机，初始状态 Idle
func NewStateMachine(cfg Config) *StateMachine {
	var events fsm.Events
	for _, dst := range models.AllNavigationStates {
		var srcs []string
		for _, src := range models.AllNavigationStates {
			if src != dst {
				srcs = append(srcs, string(src))
			}
		}
		events = append(events, fsm.EventDesc{Name: enterEvent(dst), Src: srcs, Dst: string(dst)})
	}

	return &StateMachine{
		cfg: cfg,
		fsm: fsm.NewFSM(string(models.StateIdle), events, fsm.Callbacks{}),
	}
}

// Current 当前状态
func (m *StateMachine) Current() models.NavigationState {
	return models.NavigationState(m.fsm.Current())
}

// History 本会话内已提交的转换记录
func (m *StateMachine) History() []models.StateTransition {
	out := make([]models.StateTransition, len(m.history))
	copy(out, m.history)
	return out
}

// Reset 回到 Idle 并清空历史
func (m *StateMachine) Reset() {
	m.fsm.SetState(string(models.StateIdle))
	m.lastTransitionMs = 0
	m.lastTurnDirection = ""
	m.history = nil
}

// Process 处理一个 tick，返回提交转换时产生的导航事件（未转换返回 nil）
func (m *StateMachine) Process(nowMs int64, speedKph float64, rc *models.RouteContext) *models.AlertEvent {
	current := m.Current()
	next := m.determineNext(current, speedKph, rc)

	if next == current {
		return nil
	}
	// 驻留时间不足，保持当前状态
	if m.lastTransitionMs > 0 && nowMs-m.lastTransitionMs < m.cfg.MinStateDurationMs {
		return nil
	}

	if err := m.fsm.Event(context.Background(), enterEvent(next)); err != nil {
		// 事件表覆盖全部状态对，这里只会在并发误用时出现
		return nil
	}

	m.history = append(m.history, models.StateTransition{
		From:        current,
		To:          next,
		Trigger:     fmt.Sprintf("speed=%.0fkph", speedKph),
		TimestampMs: nowMs,
	})
	m.lastTransitionMs = nowMs

	ev := m.eventForState(nowMs, next, speedKph, rc)
	return &ev
}

// determineNext 按严格优先级计算候选状态（先匹配者生效）
func (m *StateMachine) determineNext(current models.NavigationState, speedKph float64, rc *models.RouteContext) models.NavigationState {
	if speedKph == 0 {
		return models.StateIdle
	}
	if rc == nil {
		return models.StateIdle
	}
	if speedKph > rc.SpeedLimitKph+20 {
		return models.StateSpeedWarning
	}
	if rc.DistanceToDestinationM < 500 {
		return models.StateNearDestination
	}
	if rc.DistanceToNextTurnM < 200 {
		switch {
		case rc.DistanceToNextTurnM < 50:
			return models.StateInTurn
		case rc.DistanceToNextTurnM < 150:
			return models.StateApproaching
		default:
			return models.StateIdle
		}
	}
	if rc.HazardAheadLabel != "" && rc.DistanceToHazardM < 300 {
		return models.StateHazardAhead
	}
	// 刚驶出转弯：上个 tick 还在 InTurn，转弯点已落到 50 米之外
	if current == models.StateInTurn && rc.DistanceToNextTurnM >= 50 {
		return models.StatePostTurn
	}
	return models.StateIdle
}

// eventForState 按目标状态生成导航事件（状态→模板的封闭映射）
func (m *StateMachine) eventForState(nowMs int64, s models.NavigationState, speedKph float64, rc *models.RouteContext) models.AlertEvent {
	ev := models.AlertEvent{
		Category:    models.CategoryNavigation,
		TimestampMs: nowMs,
		DedupeKey:   "nav:" + string(s),
	}

	switch s {
	case models.StateApproaching:
		if rc != nil && rc.NextTurnDirection != "" {
			m.lastTurnDirection = rc.NextTurnDirection
		}
		ev.Priority = models.PriorityNormal
		ev.TemplateID = "turn_approaching"
		ev.Params = []models.Param{
			{Key: "direction", Value: m.lastTurnDirection},
			{Key: "distance", Value: formatDistance(rc.DistanceToNextTurnM)},
			{Key: "speed", Value: formatFloat(speedKph)},
		}

	case models.StateInTurn:
		ev.Priority = models.PriorityHigh
		ev.TemplateID = "turn_now"
		ev.Params = []models.Param{
			{Key: "direction", Value: m.lastTurnDirection},
			{Key: "distance", Value: formatDistance(rc.DistanceToNextTurnM)},
			{Key: "speed", Value: formatFloat(speedKph)},
		}

	case models.StatePostTurn:
		ev.Priority = models.PriorityLow
		ev.TemplateID = "turn_done"
		ev.Params = []models.Param{
			{Key: "direction", Value: "straight"},
			{Key: "speed", Value: formatFloat(speedKph)},
		}

	case models.StateSpeedWarning:
		ev.Priority = models.PriorityHigh
		ev.TemplateID = "speed_warning"
		ev.Params = []models.Param{
			{Key: "limit", Value: formatFloat(rc.SpeedLimitKph)},
			{Key: "speed", Value: formatFloat(speedKph)},
		}

	case models.StateNearDestination:
		ev.Priority = models.PriorityNormal
		ev.TemplateID = "near_destination"
		ev.Params = []models.Param{
			{Key: "distance", Value: formatDistance(rc.DistanceToDestinationM)},
		}

	case models.StateHazardAhead:
		ev.Priority = models.PriorityHigh
		ev.TemplateID = "hazard_ahead"
		ev.Params = []models.Param{
			{Key: "hazard", Value: rc.HazardAheadLabel},
			{Key: "distance", Value: formatDistance(rc.DistanceToHazardM)},
		}

	default: // Idle
		ev.Priority = models.PriorityLow
		ev.TemplateID = "driving_normal"
	}

	return ev
}

func formatDistance(m float64) string {
	return strconv.Itoa(int(m))
}
