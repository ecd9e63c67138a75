package engine

import (
	"math"
	"strconv"

	"github.com/langchou/navguard/internal/models"
)

// 行为事件类型
const (
	EventHardBrake      = "hard_brake"
	EventRapidAccel     = "rapid_accel"
	EventSharpTurn      = "sharp_turn"
	EventSpeedViolation = "speed_violation"
	EventFatigue        = "fatigue"
)

// 事件扣分，累计到会话结束
var behaviorPenalties = map[string]float64{
	EventHardBrake:      5,
	EventRapidAccel:     3,
	EventSharpTurn:      1,
	EventSpeedViolation: 10,
	EventFatigue:        2.5,
}

type motionSample struct {
	tsMs     int64
	speedKph float64
	accel    float64
}

// BehaviorScorer 滑动窗口驾驶行为分析
// 维护最近 AnalysisWindow 的速度/加速度样本和 5 分钟刹车事件窗口
// 安全分从 100 扣起，会话内单调不增，仅 Reset 恢复
type BehaviorScorer struct {
	cfg          Config
	window       []motionSample
	brakeEvents  []int64
	penaltyTotal float64
	counters     map[string]int
}

// NewBehaviorScorer 创建行为分析器
func NewBehaviorScorer(cfg Config) *BehaviorScorer {
	return &BehaviorScorer{
		cfg:      cfg,
		counters: make(map[string]int),
	}
}

// Observe 分析一个 tick 的运动信号，返回触发的候选告警
// 五条规则相互独立，同一 tick 可同时触发
func (b *BehaviorScorer) Observe(nowMs int64, d models.DerivedMotion, speedKph float64) []models.AlertEvent {
	b.window = append(b.window, motionSample{tsMs: nowMs, speedKph: speedKph, accel: d.AccelerationMps2})
	b.evict(nowMs)

	var events []models.AlertEvent

	if d.AccelerationMps2 < b.cfg.HardBrakeThresholdMps2 {
		b.record(EventHardBrake)
		b.brakeEvents = append(b.brakeEvents, nowMs)
		events = append(events, behaviorEvent(nowMs, EventHardBrake, models.CategorySafety, models.PriorityHigh,
			models.Param{Key: "accel", Value: formatFloat(d.AccelerationMps2)}))
	}

	if d.AccelerationMps2 > b.cfg.RapidAccelThresholdMps2 {
		b.record(EventRapidAccel)
		events = append(events, behaviorEvent(nowMs, EventRapidAccel, models.CategorySafety, models.PriorityHigh,
			models.Param{Key: "accel", Value: formatFloat(d.AccelerationMps2)}))
	}

	if math.Abs(d.TurnRateDegPerSec) > b.cfg.HarshTurnThresholdDegSec {
		b.record(EventSharpTurn)
		events = append(events, behaviorEvent(nowMs, EventSharpTurn, models.CategorySafety, models.PriorityNormal,
			models.Param{Key: "turn_rate", Value: formatFloat(d.TurnRateDegPerSec)}))
	}

	if speedKph > b.cfg.SpeedingThresholdKph {
		b.record(EventSpeedViolation)
		events = append(events, behaviorEvent(nowMs, EventSpeedViolation, models.CategorySafety, models.PriorityHigh,
			models.Param{Key: "speed", Value: formatFloat(speedKph)}))
	}

	if len(b.brakeEvents) > b.cfg.FatigueEventCount {
		b.record(EventFatigue)
		events = append(events, behaviorEvent(nowMs, EventFatigue, models.CategoryFatigue, models.PriorityHigh,
			models.Param{Key: "brake_count", Value: strconv.Itoa(len(b.brakeEvents))}))
	}

	return events
}

// Score 当前安全分 [0, 100]
func (b *BehaviorScorer) Score() float64 {
	return math.Max(0, 100-b.penaltyTotal)
}

// Counters 各类事件的累计次数
func (b *BehaviorScorer) Counters() map[string]int {
	out := make(map[string]int, len(b.counters))
	for k, v := range b.counters {
		out[k] = v
	}
	return out
}

// WindowSize 当前窗口内的样本数（测试用）
func (b *BehaviorScorer) WindowSize() int {
	return len(b.window)
}

// Reset 清空窗口和分数
func (b *BehaviorScorer) Reset() {
	b.window = nil
	b.brakeEvents = nil
	b.penaltyTotal = 0
	b.counters = make(map[string]int)
}

// evict 惰性剔除窗口外的旧数据
func (b *BehaviorScorer) evict(nowMs int64) {
	cutoff := nowMs - b.cfg.AnalysisWindowMs
	i := 0
	for i < len(b.window) && b.window[i].tsMs < cutoff {
		i++
	}
	b.window = b.window[i:]

	brakeCutoff := nowMs - b.cfg.FatigueWindowMs
	j := 0
	for j < len(b.brakeEvents) && b.brakeEvents[j] < brakeCutoff {
		j++
	}
	b.brakeEvents = b.brakeEvents[j:]
}

func (b *BehaviorScorer) record(kind string) {
	b.counters[kind]++
	b.penaltyTotal += behaviorPenalties[kind]
}

func behaviorEvent(nowMs int64, kind string, cat models.AlertCategory, prio models.Priority, params ...models.Param) models.AlertEvent {
	return models.AlertEvent{
		Category:    cat,
		Priority:    prio,
		TemplateID:  kind,
		Params:      params,
		TimestampMs: nowMs,
		DedupeKey:   "behavior:" + kind,
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
