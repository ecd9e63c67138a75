package engine

import (
	"math"

	"github.com/langchou/navguard/internal/models"
)

const earthRadiusM = 6371000.0

// MotionAnalyzer 把相邻两个采样点转换为运动信号
// 无状态纯函数；"上一个采样点"由 Dispatcher 持有和更新
type MotionAnalyzer struct{}

// Compute 计算两个采样点之间的运动导出量
// prev 缺失或时间未前进时返回零值（按规范不报错）
func (MotionAnalyzer) Compute(prev *models.Sample, cur models.Sample) models.DerivedMotion {
	if prev == nil {
		return models.DerivedMotion{}
	}

	elapsed := float64(cur.TimestampMs-prev.TimestampMs) / 1000.0
	if elapsed <= 0 {
		return models.DerivedMotion{}
	}
	if !prev.HasValidCoordinates() || !cur.HasValidCoordinates() {
		return models.DerivedMotion{}
	}

	accel := (cur.SpeedMps - prev.SpeedMps) / elapsed
	if math.IsNaN(accel) || math.IsInf(accel, 0) {
		accel = 0
	}

	return models.DerivedMotion{
		AccelerationMps2:  accel,
		TurnRateDegPerSec: bearingDelta(prev.BearingDeg, cur.BearingDeg) / elapsed,
		DistanceDeltaM:    Haversine(prev.Latitude, prev.Longitude, cur.Latitude, cur.Longitude),
		ElapsedSec:        elapsed,
	}
}

// bearingDelta 航向差归一化到 (-180, 180]
func bearingDelta(b1, b2 float64) float64 {
	return math.Mod(b2-b1+540, 360) - 180
}

// Haversine 大圆距离（米）
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lng2 - lng1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}
