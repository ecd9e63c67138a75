package models

import (
	"fmt"
	"strings"
	"time"
)

// AlertCategory 告警类别
type AlertCategory string

const (
	CategorySafety     AlertCategory = "safety"
	CategoryNavigation AlertCategory = "navigation"
	CategoryWeather    AlertCategory = "weather"
	CategoryTraffic    AlertCategory = "traffic"
	CategoryFatigue    AlertCategory = "fatigue"
	CategoryPersonal   AlertCategory = "personal"
)

// Priority 播报优先级
type Priority int

const (
	PriorityLow Priority = iota
	PriorityNormal
	PriorityHigh
	PriorityUrgent
)

func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityUrgent:
		return "urgent"
	default:
		return fmt.Sprintf("priority(%d)", int(p))
	}
}

// Param 告警消息参数（有序键值对）
type Param struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// AlertEvent 候选/已通过的语音告警事件
type AlertEvent struct {
	Category    AlertCategory `json:"category"`
	Priority    Priority      `json:"priority"`
	TemplateID  string        `json:"template_id"`
	Params      []Param       `json:"params,omitempty"`
	TimestampMs int64         `json:"timestamp_ms"`
	DedupeKey   string        `json:"dedupe_key"`
	HazardID    string        `json:"hazard_id,omitempty"` // 关联的危险点（边沿触发用）
}

// Param 按 key 查找参数值
func (e AlertEvent) Param(key string) string {
	for _, p := range e.Params {
		if p.Key == key {
			return p.Value
		}
	}
	return ""
}

// 消息模板目录：template id → 带 {key} 占位符的文本
// 渲染属于语音端的职责，这里只提供默认英文文案
var alertTemplates = map[string]string{
	"hard_brake":       "Hard braking detected, please drive carefully",
	"rapid_accel":      "Rapid acceleration detected, please ease off",
	"sharp_turn":       "Sharp turn, please slow down before turning",
	"speed_violation":  "Your speed {speed} exceeds the limit, please slow down",
	"fatigue":          "You seem tired, please take a break soon",
	"turn_approaching": "In {distance} meters turn {direction}",
	"turn_now":         "Turn {direction} now",
	"turn_done":        "Continue straight ahead",
	"speed_warning":    "Speed limit is {limit}, you are driving at {speed}",
	"near_destination": "Destination in {distance} meters",
	"hazard_ahead":     "Caution, {hazard} in {distance} meters",
	"driving_normal":   "Continuing on route",
	"speed_camera":     "Speed camera in {distance} meters, limit {limit}",
	"speed_bump":       "Speed bump ahead at {label}",
	"personal_tip":     "{tip}",
}

// Message 根据模板目录渲染消息文本，未知模板返回 template id 本身
func (e AlertEvent) Message() string {
	tpl, ok := alertTemplates[e.TemplateID]
	if !ok {
		return e.TemplateID
	}
	msg := tpl
	for _, p := range e.Params {
		msg = strings.ReplaceAll(msg, "{"+p.Key+"}", p.Value)
	}
	return msg
}

// KnownTemplate 检查模板是否在目录中
func KnownTemplate(id string) bool {
	_, ok := alertTemplates[id]
	return ok
}

// AlertRecord 已播报告警的持久化记录
type AlertRecord struct {
	ID         int64         `json:"id" db:"id"`
	Category   AlertCategory `json:"category" db:"category"`
	Priority   string        `json:"priority" db:"priority"`
	TemplateID string        `json:"template_id" db:"template_id"`
	Message    string        `json:"message" db:"message"`
	DedupeKey  string        `json:"dedupe_key" db:"dedupe_key"`
	HazardID   string        `json:"hazard_id,omitempty" db:"hazard_id"`
	EmittedAt  time.Time     `json:"emitted_at" db:"emitted_at"`
}
