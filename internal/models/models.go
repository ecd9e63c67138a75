package models

import (
	"math"
	"time"
)

// Sample 单次遥测采样（由外部定位源提供，创建后不可变）
type Sample struct {
	TimestampMs int64   `json:"timestamp_ms"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	SpeedMps    float64 `json:"speed_mps"`
	BearingDeg  float64 `json:"bearing_deg"` // [0, 360)
	AccuracyM   float64 `json:"accuracy_m"`
}

// SpeedKph 返回 km/h 速度，异常值按 0 处理
func (s Sample) SpeedKph() float64 {
	if math.IsNaN(s.SpeedMps) || math.IsInf(s.SpeedMps, 0) || s.SpeedMps < 0 {
		return 0
	}
	return s.SpeedMps * 3.6
}

// HasValidCoordinates 检查坐标是否有限且在有效范围内
func (s Sample) HasValidCoordinates() bool {
	if math.IsNaN(s.Latitude) || math.IsInf(s.Latitude, 0) {
		return false
	}
	if math.IsNaN(s.Longitude) || math.IsInf(s.Longitude, 0) {
		return false
	}
	return s.Latitude >= -90 && s.Latitude <= 90 && s.Longitude >= -180 && s.Longitude <= 180
}

// HasValidTimestamp 检查时间戳是否有效
func (s Sample) HasValidTimestamp() bool {
	return s.TimestampMs > 0
}

// RouteContext 当前路线上下文，由外部路线规划器每 tick 提供
// nil 表示没有激活的路线（正常状态，不是错误）
type RouteContext struct {
	SpeedLimitKph          float64 `json:"speed_limit_kph"`
	DistanceToNextTurnM    float64 `json:"distance_to_next_turn_m"`
	NextTurnDirection      string  `json:"next_turn_direction"`
	DistanceToDestinationM float64 `json:"distance_to_destination_m"`
	HazardAheadLabel       string  `json:"hazard_ahead_label,omitempty"`
	DistanceToHazardM      float64 `json:"distance_to_hazard_m,omitempty"`
}

// DerivedMotion 由相邻两个采样点推导出的运动信号，每 tick 重新计算
type DerivedMotion struct {
	AccelerationMps2  float64 `json:"acceleration_mps2"`
	TurnRateDegPerSec float64 `json:"turn_rate_deg_per_sec"`
	DistanceDeltaM    float64 `json:"distance_delta_m"`
	ElapsedSec        float64 `json:"elapsed_sec"`
}

// 危险点类型
const (
	HazardCamera = "camera" // 固定测速摄像头
	HazardBump   = "bump"   // 减速带
)

// HazardPoint 静态危险点（测速摄像头/减速带）
type HazardPoint struct {
	ID            string    `json:"id" db:"id"`
	Latitude      float64   `json:"latitude" db:"latitude"`
	Longitude     float64   `json:"longitude" db:"longitude"`
	Kind          string    `json:"kind" db:"kind"` // camera, bump
	SpeedLimitKph int       `json:"speed_limit_kph,omitempty" db:"speed_limit_kph"`
	Label         string    `json:"label" db:"label"`
	CreatedAt     time.Time `json:"created_at,omitempty" db:"created_at"`
}

// TripStats 单次会话的行驶统计
type TripStats struct {
	ID             int64      `json:"id" db:"id"`
	StartedAt      time.Time  `json:"started_at" db:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty" db:"ended_at"`
	DistanceKm     float64    `json:"distance_km" db:"distance_km"`
	DurationMin    float64    `json:"duration_min" db:"duration_min"`
	MaxSpeedKph    float64    `json:"max_speed_kph" db:"max_speed_kph"`
	AvgSpeedKph    float64    `json:"avg_speed_kph" db:"avg_speed_kph"`
	OverSpeedCount int        `json:"over_speed_count" db:"over_speed_count"`
	CameraAlerts   int        `json:"camera_alerts" db:"camera_alerts"`
	BumpAlerts     int        `json:"bump_alerts" db:"bump_alerts"`
	HardBrakes     int        `json:"hard_brakes" db:"hard_brakes"`
	RapidAccels    int        `json:"rapid_accels" db:"rapid_accels"`
	SharpTurns     int        `json:"sharp_turns" db:"sharp_turns"`
	FatigueAlerts  int        `json:"fatigue_alerts" db:"fatigue_alerts"`
	SafetyScore    float64    `json:"safety_score" db:"safety_score"`
}
