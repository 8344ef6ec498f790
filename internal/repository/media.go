package repository

import (
	"context"
	"fmt"

	"merchant-bot/internal/models"
)

func (r *Repository) ListMedia(ctx context.Context, merchantID uint) ([]models.MediaItem, error) {
	var items []models.MediaItem
	err := r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Order("sort_order ASC").
		Find(&items).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list media for merchant %d: %w", merchantID, err)
	}
	return items, nil
}

func (r *Repository) CreateMedia(ctx context.Context, item *models.MediaItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *Repository) UpdateMedia(ctx context.Context, item *models.MediaItem) error {
	return r.db.WithContext(ctx).Save(item).Error
}

func (r *Repository) DeleteMediaByMerchant(ctx context.Context, merchantID uint) error {
	return r.db.WithContext(ctx).
		Where("merchant_id = ?", merchantID).
		Delete(&models.MediaItem{}).
		Error
}
