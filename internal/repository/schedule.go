package repository

import (
	"context"
	"errors"
	"fmt"

	"merchant-bot/internal/models"

	"gorm.io/gorm"
)

func (r *Repository) ListTimeSlots(ctx context.Context, activeOnly bool) ([]models.PostingTimeSlot, error) {
	var slots []models.PostingTimeSlot
	q := r.db.WithContext(ctx).Order("display_order ASC, time_str ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&slots).Error; err != nil {
		return nil, fmt.Errorf("failed to list time slots: %w", err)
	}
	return slots, nil
}

func (r *Repository) GetTimeSlot(ctx context.Context, id uint) (*models.PostingTimeSlot, error) {
	var slot models.PostingTimeSlot
	err := r.db.WithContext(ctx).First(&slot, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get time slot %d: %w", id, err)
	}
	return &slot, nil
}

func (r *Repository) CreateTimeSlot(ctx context.Context, slot *models.PostingTimeSlot) error {
	return r.db.WithContext(ctx).Create(slot).Error
}

func (r *Repository) UpdateTimeSlot(ctx context.Context, slot *models.PostingTimeSlot) error {
	return r.db.WithContext(ctx).Save(slot).Error
}

func (r *Repository) DeleteTimeSlot(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.PostingTimeSlot{}, id).Error
}
