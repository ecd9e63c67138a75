package models

// NavigationState 导航状态机的状态
type NavigationState string

const (
	StateIdle            NavigationState = "idle"             // 无路线或无动作
	StateApproaching     NavigationState = "approaching"      // 接近转弯
	StateInTurn          NavigationState = "in_turn"          // 正在转弯
	StatePostTurn        NavigationState = "post_turn"        // 刚驶出转弯
	StateSpeedWarning    NavigationState = "speed_warning"    // 超速警告
	StateNearDestination NavigationState = "near_destination" // 接近目的地
	StateHazardAhead     NavigationState = "hazard_ahead"     // 前方危险
)

// AllNavigationStates 全部状态（fsm 事件表和测试用）
var AllNavigationStates = []NavigationState{
	StateIdle,
	StateApproaching,
	StateInTurn,
	StatePostTurn,
	StateSpeedWarning,
	StateNearDestination,
	StateHazardAhead,
}

// StateTransition 一次已提交的状态转换
type StateTransition struct {
	From        NavigationState `json:"from"`
	To          NavigationState `json:"to"`
	Trigger     string          `json:"trigger"`
	TimestampMs int64           `json:"timestamp_ms"`
}
