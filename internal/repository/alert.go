package repository

import (
	"context"
	"fmt"

	"github.com/langchou/navguard/internal/models"
)

// AlertRepository 告警记录仓库
type AlertRepository struct {
	db *DB
}

// NewAlertRepository 创建告警仓库
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Create 写入一条已播报的告警
func (r *AlertRepository) Create(ctx context.Context, rec *models.AlertRecord) error {
	query := `
		INSERT INTO alerts (category, priority, template_id, message, dedupe_key, hazard_id, emitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := r.db.Pool.QueryRow(ctx, query,
		rec.Category,
		rec.Priority,
		rec.TemplateID,
		rec.Message,
		rec.DedupeKey,
		rec.HazardID,
		rec.EmittedAt,
	).Scan(&rec.ID)

	if err != nil {
		return fmt.Errorf("insert alert: %w", err)
	}
	return nil
}

// ListRecent 按时间倒序返回最近的告警
func (r *AlertRepository) ListRecent(ctx context.Context, limit int) ([]*models.AlertRecord, error) {
	query := `
		SELECT id, category, priority, template_id, message, dedupe_key, hazard_id, emitted_at
		FROM alerts ORDER BY emitted_at DESC LIMIT $1
	`
	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	defer rows.Close()

	var records []*models.AlertRecord
	for rows.Next() {
		rec := &models.AlertRecord{}
		err := rows.Scan(
			&rec.ID,
			&rec.Category,
			&rec.Priority,
			&rec.TemplateID,
			&rec.Message,
			&rec.DedupeKey,
			&rec.HazardID,
			&rec.EmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan alert: %w", err)
		}
		records = append(records, rec)
	}

	return records, nil
}
