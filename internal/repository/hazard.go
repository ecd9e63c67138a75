package repository

import (
	"context"
	"fmt"

	"github.com/langchou/navguard/internal/models"
)

// HazardRepository 危险点数据仓库
type HazardRepository struct {
	db *DB
}

// NewHazardRepository 创建危险点仓库
func NewHazardRepository(db *DB) *HazardRepository {
	return &HazardRepository{db: db}
}

// List 获取全部危险点
func (r *HazardRepository) List(ctx context.Context) ([]models.HazardPoint, error) {
	query := `
		SELECT id, latitude, longitude, kind, speed_limit_kph, label, created_at
		FROM hazard_points ORDER BY created_at
	`
	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list hazard points: %w", err)
	}
	defer rows.Close()

	var points []models.HazardPoint
	for rows.Next() {
		var p models.HazardPoint
		err := rows.Scan(
			&p.ID,
			&p.Latitude,
			&p.Longitude,
			&p.Kind,
			&p.SpeedLimitKph,
			&p.Label,
			&p.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan hazard point: %w", err)
		}
		points = append(points, p)
	}

	return points, nil
}

// Upsert 插入或更新危险点
func (r *HazardRepository) Upsert(ctx context.Context, p *models.HazardPoint) error {
	query := `
		INSERT INTO hazard_points (id, latitude, longitude, kind, speed_limit_kph, label)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			kind = EXCLUDED.kind,
			speed_limit_kph = EXCLUDED.speed_limit_kph,
			label = EXCLUDED.label
	`
	_, err := r.db.Pool.Exec(ctx, query,
		p.ID,
		p.Latitude,
		p.Longitude,
		p.Kind,
		p.SpeedLimitKph,
		p.Label,
	)
	if err != nil {
		return fmt.Errorf("upsert hazard point: %w", err)
	}
	return nil
}

// Delete 删除危险点
func (r *HazardRepository) Delete(ctx context.Context, id string) error {
	_, err := r.db.Pool.Exec(ctx, `DELETE FROM hazard_points WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete hazard point: %w", err)
	}
	return nil
}

// Count 危险点数量
func (r *HazardRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM hazard_points`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count hazard points: %w", err)
	}
	return n, nil
}

// Seed 空表时写入内置危险点，已有数据时跳过
func (r *HazardRepository) Seed(ctx context.Context) error {
	n, err := r.Count(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	for i := range seedHazards {
		if err := r.Upsert(ctx, &seedHazards[i]); err != nil {
			return fmt.Errorf("seed hazard points: %w", err)
		}
	}
	return nil
}

// 内置危险点（德黑兰市区）
var seedHazards = []models.HazardPoint{
	{ID: "cam-azadi", Latitude: 35.6892, Longitude: 51.3890, Kind: models.HazardCamera, SpeedLimitKph: 80, Label: "Azadi Square"},
	{ID: "cam-sadeghiyeh", Latitude: 35.7219, Longitude: 51.3347, Kind: models.HazardCamera, SpeedLimitKph: 60, Label: "Sadeghiyeh"},
	{ID: "bump-azadi-n", Latitude: 35.6935, Longitude: 51.3885, Kind: models.HazardBump, Label: "Azadi North"},
}
