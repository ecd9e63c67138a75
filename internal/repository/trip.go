package repository

import (
	"context"
	"fmt"

	"github.com/langchou/navguard/internal/models"
)

// TripRepository 行程统计仓库
type TripRepository struct {
	db *DB
}

// NewTripRepository 创建行程仓库
func NewTripRepository(db *DB) *TripRepository {
	return &TripRepository{db: db}
}

// Create 写入一条完结的行程
func (r *TripRepository) Create(ctx context.Context, trip *models.TripStats) error {
	query := `
		INSERT INTO trips (started_at, ended_at, distance_km, duration_min, max_speed_kph, avg_speed_kph,
			over_speed_count, camera_alerts, bump_alerts, hard_brakes, rapid_accels, sharp_turns, fatigue_alerts, safety_score)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		trip.StartedAt,
		trip.EndedAt,
		trip.DistanceKm,
		trip.DurationMin,
		trip.MaxSpeedKph,
		trip.AvgSpeedKph,
		trip.OverSpeedCount,
		trip.CameraAlerts,
		trip.BumpAlerts,
		trip.HardBrakes,
		trip.RapidAccels,
		trip.SharpTurns,
		trip.FatigueAlerts,
		trip.SafetyScore,
	).Scan(&trip.ID)

	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

// ListRecent 按开始时间倒序返回最近的行程
func (r *TripRepository) ListRecent(ctx context.Context, limit int) ([]*models.TripStats, error) {
	query := `
		SELECT id, started_at, ended_at, distance_km, duration_min, max_speed_kph, avg_speed_kph,
			over_speed_count, camera_alerts, bump_alerts, hard_brakes, rapid_accels, sharp_turns, fatigue_alerts, safety_score
		FROM trips ORDER BY started_at DESC LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.TripStats
	for rows.Next() {
		trip := &models.TripStats{}
		err := rows.Scan(
			&trip.ID,
			&trip.StartedAt,
			&trip.EndedAt,
			&trip.DistanceKm,
			&trip.DurationMin,
			&trip.MaxSpeedKph,
			&trip.AvgSpeedKph,
			&trip.OverSpeedCount,
			&trip.CameraAlerts,
			&trip.BumpAlerts,
			&trip.HardBrakes,
			&trip.RapidAccels,
			&trip.SharpTurns,
			&trip.FatigueAlerts,
			&trip.SafetyScore,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}
		trips = append(trips, trip)
	}

	return trips, nil
}
