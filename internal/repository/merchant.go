package repository

import (
	"context"
	"errors"
	"fmt"

	"merchant-bot/internal/models"

	"gorm.io/gorm"
)

func (r *Repository) GetMerchantByChatID(ctx context.Context, chatID int64) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).
		Preload("City").
		Preload("District").
		First(&merchant, "telegram_chat_id = ?", chatID).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get merchant by chat %d: %w", chatID, err)
	}
	return &merchant, nil
}

func (r *Repository) GetMerchantByID(ctx context.Context, id uint) (*models.Merchant, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).
		Preload("City").
		Preload("District").
		First(&merchant, id).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get merchant %d: %w", id, err)
	}
	return &merchant, nil
}

func (r *Repository) CreateMerchant(ctx context.Context, merchant *models.Merchant) error {
	return r.db.WithContext(ctx).Create(merchant).Error
}

func (r *Repository) UpdateMerchant(ctx context.Context, merchant *models.Merchant, tx *gorm.DB) error {
	db := tx
	if tx == nil {
		db = r.db
	}

	return db.WithContext(ctx).Save(merchant).Error
}

func (r *Repository) DeleteMerchant(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.Merchant{}, id).Error
}

func (r *Repository) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	var merchants []models.Merchant
	err := r.db.WithContext(ctx).
		Preload("City").
		Order("created_at DESC").
		Find(&merchants).
		Error
	if err != nil {
		return nil, fmt.Errorf("failed to list merchants: %w", err)
	}
	return merchants, nil
}

// OccupiedTimeSlots returns the distinct HH:MM values already claimed on the
// given date by merchants whose listing still holds a slot.
func (r *Repository) OccupiedTimeSlots(ctx context.Context, date string, excludeMerchantID *uint) ([]string, error) {
	var slots []string
	q := r.db.WithContext(ctx).
		Model(&models.Merchant{}).
		Distinct("to_char(publish_time, 'HH24:MI')").
		Where("publish_time::date = ?", date).
		Where("status IN ?", []string{
			models.StatusPendingApproval,
			models.StatusApproved,
			models.StatusPublished,
		})
	if excludeMerchantID != nil {
		q = q.Where("id <> ?", *excludeMerchantID)
	}
	if err := q.Pluck("to_char(publish_time, 'HH24:MI')", &slots).Error; err != nil {
		return nil, fmt.Errorf("failed to get occupied slots for %s: %w", date, err)
	}
	return slots, nil
}
