package engine

import (
	"sort"

	"github.com/langchou/navguard/internal/models"
)

// HazardHit 一次近邻查询命中
type HazardHit struct {
	Point     models.HazardPoint
	DistanceM float64
}

// HazardLookup 危险点近邻查询接口
// 当前实现是线性扫描；点数上千后可换空间索引而不影响调用方
type HazardLookup interface {
	Nearby(lat, lng, radiusM float64) []HazardHit
	Get(id string) (models.HazardPoint, bool)
	Len() int
}

// HazardIndex 静态危险点集合上的线性扫描索引
type HazardIndex struct {
	points []models.HazardPoint
	byID   map[string]models.HazardPoint
}

// NewHazardIndex 创建索引（复制调用方的切片）
func NewHazardIndex(points []models.HazardPoint) *HazardIndex {
	ix := &HazardIndex{
		points: make([]models.HazardPoint, len(points)),
		byID:   make(map[string]models.HazardPoint, len(points)),
	}
	copy(ix.points, points)
	for _, p := range ix.points {
		ix.byID[p.ID] = p
	}
	return ix
}

// Nearby 返回半径内的危险点，按距离升序
func (ix *HazardIndex) Nearby(lat, lng, radiusM float64) []HazardHit {
	var hits []HazardHit
	for _, p := range ix.points {
		d := Haversine(lat, lng, p.Latitude, p.Longitude)
		if d <= radiusM {
			hits = append(hits, HazardHit{Point: p, DistanceM: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DistanceM < hits[j].DistanceM })
	return hits
}

// Get 按 ID 查找危险点
func (ix *HazardIndex) Get(id string) (models.HazardPoint, bool) {
	p, ok := ix.byID[id]
	return p, ok
}

// Len 危险点数量
func (ix *HazardIndex) Len() int {
	return len(ix.points)
}
