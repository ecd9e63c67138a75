package engine

import "fmt"

// Config 引擎阈值配置
// 全部带默认值，构造时校验；非法配置是编程错误，会直接报错
type Config struct {
	HardBrakeThresholdMps2   float64 // 急刹阈值（负值，m/s²）
	RapidAccelThresholdMps2  float64 // 急加速阈值（m/s²）
	HarshTurnThresholdDegSec float64 // 急转弯阈值（°/s）
	SpeedingThresholdKph     float64 // 超速阈值（km/h）
	AnalysisWindowMs         int64   // 行为分析滑动窗口
	FatigueWindowMs          int64   // 疲劳检测窗口（刹车事件）
	FatigueEventCount        int     // 窗口内触发疲劳告警的刹车次数
	MinStateDurationMs       int64   // 状态机最小驻留时间
	MinAlertIntervalMs       int64   // 同类别告警冷却时间
	MaxAlertsPerHour         int     // 滚动一小时内非紧急告警上限
	CameraRadiusM            float64 // 摄像头告警半径
	BumpRadiusM              float64 // 减速带告警半径
	HazardClearMultiplier    float64 // 迟滞带倍数（清除半径 = 半径 × 倍数）
}

// DefaultConfig 默认引擎配置
func DefaultConfig() Config {
	return Config{
		HardBrakeThresholdMps2:   -5,
		RapidAccelThresholdMps2:  4,
		HarshTurnThresholdDegSec: 15,
		SpeedingThresholdKph:     120,
		AnalysisWindowMs:         30_000,
		FatigueWindowMs:          300_000,
		FatigueEventCount:        5,
		MinStateDurationMs:       2_000,
		MinAlertIntervalMs:       30_000,
		MaxAlertsPerHour:         15,
		CameraRadiusM:            500,
		BumpRadiusM:              100,
		HazardClearMultiplier:    1.5,
	}
}

// Validate 校验配置，返回第一个发现的问题
func (c Config) Validate() error {
	if c.HardBrakeThresholdMps2 >= 0 {
		return fmt.Errorf("hard brake threshold must be negative, got %v", c.HardBrakeThresholdMps2)
	}
	if c.RapidAccelThresholdMps2 <= 0 {
		return fmt.Errorf("rapid acceleration threshold must be positive, got %v", c.RapidAccelThresholdMps2)
	}
	if c.HarshTurnThresholdDegSec <= 0 {
		return fmt.Errorf("harsh turn threshold must be positive, got %v", c.HarshTurnThresholdDegSec)
	}
	if c.SpeedingThresholdKph <= 0 {
		return fmt.Errorf("speeding threshold must be positive, got %v", c.SpeedingThresholdKph)
	}
	if c.AnalysisWindowMs <= 0 {
		return fmt.Errorf("analysis window must be positive, got %v", c.AnalysisWindowMs)
	}
	if c.FatigueWindowMs <= 0 {
		return fmt.Errorf("fatigue window must be positive, got %v", c.FatigueWindowMs)
	}
	if c.FatigueEventCount <= 0 {
		return fmt.Errorf("fatigue event count must be positive, got %v", c.FatigueEventCount)
	}
	if c.MinStateDurationMs <= 0 {
		return fmt.Errorf("min state duration must be positive, got %v", c.MinStateDurationMs)
	}
	if c.MinAlertIntervalMs <= 0 {
		return fmt.Errorf("min alert interval must be positive, got %v", c.MinAlertIntervalMs)
	}
	if c.MaxAlertsPerHour <= 0 {
		return fmt.Errorf("max alerts per hour must be positive, got %v", c.MaxAlertsPerHour)
	}
	if c.CameraRadiusM <= 0 {
		return fmt.Errorf("camera radius must be positive, got %v", c.CameraRadiusM)
	}
	if c.BumpRadiusM <= 0 {
		return fmt.Errorf("bump radius must be positive, got %v", c.BumpRadiusM)
	}
	if c.HazardClearMultiplier <= 1 {
		return fmt.Errorf("hazard clear multiplier must be greater than 1, got %v", c.HazardClearMultiplier)
	}
	return nil
}

// HazardRadiusM 按危险点类型返回告警半径
func (c Config) HazardRadiusM(kind string) float64 {
	if kind == "bump" {
		return c.BumpRadiusM
	}
	return c.CameraRadiusM
}
