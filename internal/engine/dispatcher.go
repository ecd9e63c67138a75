package engine

import (
	"fmt"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/langchou/navguard/internal/models"
)

// session 一次会话的全部可变状态
// Reset 整体替换这个结构体，保证原子清空
type session struct {
	prev     *models.Sample
	scorer   *BehaviorScorer
	states   *StateMachine
	throttle *Throttle
}

func newSession(cfg Config) *session {
	return &session{
		scorer:   NewBehaviorScorer(cfg),
		states:   NewStateMachine(cfg),
		throttle: NewThrottle(cfg),
	}
}

// Dispatcher 告警引擎唯一的公共入口
// 单逻辑 actor：所有可变状态只在 Ingest/Reset 内访问，调用方负责串行化
// 无 I/O、无内部定时器，完全由采样时间戳驱动，可从采样日志确定性重放
type Dispatcher struct {
	cfg     Config
	logger  *zap.Logger
	motion  MotionAnalyzer
	hazards HazardLookup
	sess    *session
}

// New 创建引擎；配置非法时报错（唯一允许失败的地方）
func New(cfg Config, hazards []models.HazardPoint, logger *zap.Logger) (*Dispatcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		cfg:     cfg,
		logger:  logger,
		hazards: NewHazardIndex(hazards),
		sess:    newSession(cfg),
	}, nil
}

// Ingest 处理一个采样点，返回通过仲裁的告警（优先级降序）
// 从不因输入异常报错：坏样本降级为"本 tick 无告警"
func (d *Dispatcher) Ingest(sample models.Sample, rc *models.RouteContext) []models.AlertEvent {
	now := sample.TimestampMs

	// 1. 运动推导 + 更新上一个采样点
	derived := d.motion.Compute(d.sess.prev, sample)
	if sample.HasValidTimestamp() && sample.HasValidCoordinates() {
		s := sample
		d.sess.prev = &s
	}

	speedKph := sample.SpeedKph()

	var candidates []models.AlertEvent

	// 2. 行为分析
	candidates = append(candidates, d.sess.scorer.Observe(now, derived, speedKph)...)

	// 3. 危险点近邻
	candidates = append(candidates, d.hazardCandidates(now, sample)...)

	// 4. 导航状态机
	if ev := d.sess.states.Process(now, speedKph, rc); ev != nil {
		candidates = append(candidates, *ev)
	}

	// 5. 同 tick 每类别只保留最高优先级
	candidates = collapseByCategory(candidates)

	// 6. 仲裁，保持优先级顺序
	var admitted []models.AlertEvent
	for _, ev := range candidates {
		if d.sess.throttle.Admit(now, ev) {
			admitted = append(admitted, ev)
		}
	}

	if len(admitted) > 0 {
		d.logger.Debug("alerts admitted",
			zap.Int("candidates", len(candidates)),
			zap.Int("admitted", len(admitted)),
			zap.String("state", string(d.sess.states.Current())))
	}

	return admitted
}

// hazardCandidates 查询附近危险点，产出进入半径的候选告警并维护迟滞带
func (d *Dispatcher) hazardCandidates(nowMs int64, sample models.Sample) []models.AlertEvent {
	if !sample.HasValidCoordinates() {
		return nil
	}

	// 扫描半径覆盖到清除半径，保证迟滞带内的点仍被跟踪
	maxRadius := d.cfg.CameraRadiusM
	if d.cfg.BumpRadiusM > maxRadius {
		maxRadius = d.cfg.BumpRadiusM
	}
	scanRadius := maxRadius * d.cfg.HazardClearMultiplier

	hits := d.hazards.Nearby(sample.Latitude, sample.Longitude, scanRadius)
	seen := make(map[string]bool, len(hits))

	var events []models.AlertEvent
	for _, hit := range hits {
		seen[hit.Point.ID] = true
		radius := d.cfg.HazardRadiusM(hit.Point.Kind)

		if hit.DistanceM <= radius {
			events = append(events, d.hazardEvent(nowMs, hit))
		} else {
			// 半径外：驶出迟滞带后重新武装
			d.sess.throttle.ObserveHazardDistance(hit.Point.ID, hit.DistanceM, radius)
		}
	}

	// 彻底离开扫描范围的点必然超过清除半径
	for _, id := range d.sess.throttle.AlertedHazards() {
		if !seen[id] {
			d.sess.throttle.ClearHazard(id)
		}
	}

	return events
}

func (d *Dispatcher) hazardEvent(nowMs int64, hit HazardHit) models.AlertEvent {
	ev := models.AlertEvent{
		Category:    models.CategoryNavigation,
		TimestampMs: nowMs,
		DedupeKey:   "hazard:" + hit.Point.ID,
		HazardID:    hit.Point.ID,
	}

	switch hit.Point.Kind {
	case models.HazardBump:
		ev.Priority = models.PriorityNormal
		ev.TemplateID = "speed_bump"
		ev.Params = []models.Param{
			{Key: "label", Value: hit.Point.Label},
			{Key: "distance", Value: formatDistance(hit.DistanceM)},
		}
	default: // camera
		ev.Priority = models.PriorityHigh
		ev.TemplateID = "speed_camera"
		ev.Params = []models.Param{
			{Key: "label", Value: hit.Point.Label},
			{Key: "distance", Value: formatDistance(hit.DistanceM)},
			{Key: "limit", Value: strconv.Itoa(hit.Point.SpeedLimitKph)},
		}
	}
	return ev
}

// Offer 让外部生成器（低优先级闲聊等）走同一套仲裁
func (d *Dispatcher) Offer(nowMs int64, ev models.AlertEvent) bool {
	ev.TimestampMs = nowMs
	return d.sess.throttle.Admit(nowMs, ev)
}

// ReplaceHazards 替换危险点集合，不影响会话状态
// 新增/删除危险点时使用；被删除点的边沿标记随下一次扫描清除
func (d *Dispatcher) ReplaceHazards(hazards []models.HazardPoint) {
	d.hazards = NewHazardIndex(hazards)
}

// Reset 原子清空会话状态；hazards 非 nil 时替换危险点集合
func (d *Dispatcher) Reset(hazards []models.HazardPoint) {
	if hazards != nil {
		d.hazards = NewHazardIndex(hazards)
	}
	d.sess = newSession(d.cfg)
	d.logger.Info("engine session reset", zap.Int("hazards", d.hazards.Len()))
}

// SafetyScore 当前安全分
func (d *Dispatcher) SafetyScore() float64 {
	return d.sess.scorer.Score()
}

// State 当前导航状态
func (d *Dispatcher) State() models.NavigationState {
	return d.sess.states.Current()
}

// History 本会话的状态转换历史
func (d *Dispatcher) History() []models.StateTransition {
	return d.sess.states.History()
}

// Counters 行为事件累计次数
func (d *Dispatcher) Counters() map[string]int {
	return d.sess.scorer.Counters()
}

// EmissionsAt 截至 nowMs 滚动窗口内的播报次数
func (d *Dispatcher) EmissionsAt(nowMs int64) int {
	return d.sess.throttle.EmissionsInWindow(nowMs)
}

// HazardCount 当前危险点数量
func (d *Dispatcher) HazardCount() int {
	return d.hazards.Len()
}

// collapseByCategory 同 tick 每类别保留最高优先级，再按优先级降序排列
// 落选者直接丢弃，不延迟到下一 tick
func collapseByCategory(events []models.AlertEvent) []models.AlertEvent {
	if len(events) <= 1 {
		return events
	}

	best := make(map[models.AlertCategory]int)
	var order []models.AlertCategory
	for i, ev := range events {
		j, ok := best[ev.Category]
		if !ok {
			best[ev.Category] = i
			order = append(order, ev.Category)
			continue
		}
		if ev.Priority > events[j].Priority {
			best[ev.Category] = i
		}
	}

	out := make([]models.AlertEvent, 0, len(order))
	for _, cat := range order {
		out = append(out, events[best[cat]])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Priority > out[j].Priority })
	return out
}
