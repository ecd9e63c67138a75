package engine

import (
	"github.com/langchou/navguard/internal/models"
)

const rollingCapWindowMs = 3_600_000

// Throttle 告警仲裁器：类别冷却、滚动小时上限、危险点边沿触发
// 被拒绝的候选直接丢弃，从不排队——告警必须反映当下，不播报积压
type Throttle struct {
	cfg          Config
	lastEmission map[models.AlertCategory]int64
	emissionLog  []int64
	alerted      map[string]bool // hazard id → 当前已告警（在半径内）
}

// NewThrottle 创建仲裁器
func NewThrottle(cfg Config) *Throttle {
	return &Throttle{
		cfg:          cfg,
		lastEmission: make(map[models.AlertCategory]int64),
		alerted:      make(map[string]bool),
	}
}

// Admit 判定一条候选告警是否播报，通过则记账
func (t *Throttle) Admit(nowMs int64, ev models.AlertEvent) bool {
	t.evict(nowMs)

	// 危险点边沿触发：进入半径只播一次
	if ev.HazardID != "" && t.alerted[ev.HazardID] {
		return false
	}

	urgent := ev.Priority == models.PriorityUrgent

	// 同类别冷却
	if last, ok := t.lastEmission[ev.Category]; ok && !urgent {
		if nowMs-last < t.cfg.MinAlertIntervalMs {
			return false
		}
	}

	// 滚动小时上限（紧急告警不受限）
	if !urgent && len(t.emissionLog) >= t.cfg.MaxAlertsPerHour {
		return false
	}

	t.lastEmission[ev.Category] = nowMs
	t.emissionLog = append(t.emissionLog, nowMs)
	if ev.HazardID != "" {
		t.alerted[ev.HazardID] = true
	}
	return true
}

// ObserveHazardDistance 更新危险点距离，驶出迟滞带后重新武装
func (t *Throttle) ObserveHazardDistance(id string, distanceM, radiusM float64) {
	if !t.alerted[id] {
		return
	}
	if distanceM > radiusM*t.cfg.HazardClearMultiplier {
		delete(t.alerted, id)
	}
}

// ClearHazard 直接解除危险点的已告警标记（离开扫描范围时用）
func (t *Throttle) ClearHazard(id string) {
	delete(t.alerted, id)
}

// AlertedHazards 当前处于已告警状态的危险点
func (t *Throttle) AlertedHazards() []string {
	ids := make([]string, 0, len(t.alerted))
	for id := range t.alerted {
		ids = append(ids, id)
	}
	return ids
}

// EmissionsInWindow 滚动窗口内的播报次数（测试用）
func (t *Throttle) EmissionsInWindow(nowMs int64) int {
	t.evict(nowMs)
	return len(t.emissionLog)
}

// Reset 清空全部记账
func (t *Throttle) Reset() {
	t.lastEmission = make(map[models.AlertCategory]int64)
	t.emissionLog = nil
	t.alerted = make(map[string]bool)
}

// evict 剔除滚动窗口外的播报时间戳
func (t *Throttle) evict(nowMs int64) {
	cutoff := nowMs - rollingCapWindowMs
	i := 0
	for i < len(t.emissionLog) && t.emissionLog[i] <= cutoff {
		i++
	}
	t.emissionLog = t.emissionLog[i:]
}
