package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB 数据库连接池封装
type DB struct {
	Pool *pgxpool.Pool
}

// New 创建数据库连接
func New(ctx context.Context, databaseURL string) (*DB, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	// 连接池配置
	config.MaxConns = 10
	config.MinConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// 测试连接
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

// Close 关闭连接池
func (db *DB) Close() {
	db.Pool.Close()
}

// Migrate 执行数据库迁移
func (db *DB) Migrate(ctx context.Context) error {
	migrations := []string{
		migrationCreateHazardPoints,
		migrationCreateAlerts,
		migrationCreateTrips,
	}

	for _, m := range migrations {
		if _, err := db.Pool.Exec(ctx, m); err != nil {
			return fmt.Errorf("execute migration: %w", err)
		}
	}

	return nil
}

// 数据库迁移 SQL
const migrationCreateHazardPoints = `
CREATE TABLE IF NOT EXISTS hazard_points (
    id VARCHAR(64) PRIMARY KEY,
    latitude DOUBLE PRECISION NOT NULL,
    longitude DOUBLE PRECISION NOT NULL,
    kind VARCHAR(20) NOT NULL,
    speed_limit_kph INT DEFAULT 0,
    label VARCHAR(255),
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_hazard_points_kind ON hazard_points(kind);
`

const migrationCreateAlerts = `
CREATE TABLE IF NOT EXISTS alerts (
    id BIGSERIAL PRIMARY KEY,
    category VARCHAR(20) NOT NULL,
    priority VARCHAR(10) NOT NULL,
    template_id VARCHAR(50) NOT NULL,
    message TEXT,
    dedupe_key VARCHAR(100),
    hazard_id VARCHAR(64),
    emitted_at TIMESTAMP WITH TIME ZONE NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_alerts_category ON alerts(category);
CREATE INDEX IF NOT EXISTS idx_alerts_emitted_at ON alerts(emitted_at);
`

const migrationCreateTrips = `
CREATE TABLE IF NOT EXISTS trips (
    id BIGSERIAL PRIMARY KEY,
    started_at TIMESTAMP WITH TIME ZONE NOT NULL,
    ended_at TIMESTAMP WITH TIME ZONE,
    distance_km DOUBLE PRECISION DEFAULT 0,
    duration_min DOUBLE PRECISION DEFAULT 0,
    max_speed_kph DOUBLE PRECISION DEFAULT 0,
    avg_speed_kph DOUBLE PRECISION DEFAULT 0,
    over_speed_count INT DEFAULT 0,
    camera_alerts INT DEFAULT 0,
    bump_alerts INT DEFAULT 0,
    hard_brakes INT DEFAULT 0,
    rapid_accels INT DEFAULT 0,
    sharp_turns INT DEFAULT 0,
    fatigue_alerts INT DEFAULT 0,
    safety_score DOUBLE PRECISION DEFAULT 100
);
CREATE INDEX IF NOT EXISTS idx_trips_started_at ON trips(started_at);
`
