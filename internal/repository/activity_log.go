package repository

import (
	"context"
	"fmt"
	"time"

	"merchant-bot/internal/models"
)

func (r *Repository) CreateActivityLog(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *Repository) ListActivitySince(ctx context.Context, since time.Time) ([]models.ActivityLog, error) {
	var entries []models.ActivityLog
	err := r.db.WithContext(ctx).
		Where("timestamp >= ?", since).
		Order("timestamp ASC").
		Find(&entries).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list activity since %s: %w", since.Format(time.RFC3339), err)
	}
	return entries, nil
}

func (r *Repository) DeleteActivityBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("timestamp < ?", cutoff).
		Delete(&models.ActivityLog{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to prune activity log: %w", res.Error)
	}
	return res.RowsAffected, nil
}
