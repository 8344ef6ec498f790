package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"merchant-bot/internal/models"

	"gorm.io/gorm"
)

func (r *Repository) CreateBindingCode(ctx context.Context, code *models.BindingCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

func (r *Repository) GetBindingCodeByCode(ctx context.Context, code string) (*models.BindingCode, error) {
	var bc models.BindingCode
	err := r.db.WithContext(ctx).First(&bc, "code = ?", code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get binding code %s: %w", code, err)
	}
	return &bc, nil
}

// GetValidBindingCode returns the code only if it is unused and not expired.
func (r *Repository) GetValidBindingCode(ctx context.Context, code string, now time.Time) (*models.BindingCode, error) {
	var bc models.BindingCode
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_used = ?", code, false).
		Where("expires_at IS NULL OR expires_at > ?", now).
		First(&bc).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get valid binding code %s: %w", code, err)
	}
	return &bc, nil
}

// MarkBindingCodeUsed claims the code with a conditional update. The returned
// rows-affected count is zero when another redemption won the race.
func (r *Repository) MarkBindingCodeUsed(ctx context.Context, code string, merchantID uint, username, fullName string, usedAt time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.BindingCode{}).
		Where("code = ? AND is_used = ?", code, false).
		Updates(map[string]interface{}{
			"is_used":         true,
			"used_at":         usedAt,
			"merchant_id":     merchantID,
			"bound_username":  username,
			"bound_full_name": fullName,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to mark binding code %s used: %w", code, res.Error)
	}
	return res.RowsAffected, nil
}

func (r *Repository) ListBindingCodes(ctx context.Context, limit int) ([]models.BindingCode, error) {
	var codes []models.BindingCode
	q := r.db.WithContext(ctx).Order("created_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&codes).Error; err != nil {
		return nil, fmt.Errorf("failed to list binding codes: %w", err)
	}
	return codes, nil
}

func (r *Repository) DeleteBindingCode(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.BindingCode{}, id).Error
}

func (r *Repository) DeleteExpiredBindingCodes(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("is_used = ? AND expires_at IS NOT NULL AND expires_at <= ?", false, now).
		Delete(&models.BindingCode{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete expired binding codes: %w", res.Error)
	}
	return res.RowsAffected, nil
}
