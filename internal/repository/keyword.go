package repository

import (
	"context"
	"fmt"

	"merchant-bot/internal/models"

	"gorm.io/gorm"
)

func (r *Repository) ListKeywords(ctx context.Context) ([]models.Keyword, error) {
	var keywords []models.Keyword
	err := r.db.WithContext(ctx).Order("display_order ASC, id ASC").Find(&keywords).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords: %w", err)
	}
	return keywords, nil
}

func (r *Repository) ListMerchantKeywords(ctx context.Context, merchantID uint) ([]models.Keyword, error) {
	var merchant models.Merchant
	err := r.db.WithContext(ctx).Preload("Keywords").First(&merchant, merchantID).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list keywords for merchant %d: %w", merchantID, err)
	}
	return merchant.Keywords, nil
}

// ReplaceMerchantKeywords swaps the merchant's keyword set inside the caller's
// transaction when one is supplied.
func (r *Repository) ReplaceMerchantKeywords(ctx context.Context, merchantID uint, keywordIDs []uint, tx *gorm.DB) error {
	db := tx
	if tx == nil {
		db = r.db
	}
	db = db.WithContext(ctx)

	merchant := models.Merchant{ID: merchantID}
	if err := db.Model(&merchant).Association("Keywords").Clear(); err != nil {
		return fmt.Errorf("failed to clear keywords for merchant %d: %w", merchantID, err)
	}
	if len(keywordIDs) == 0 {
		return nil
	}

	var keywords []models.Keyword
	if err := db.Find(&keywords, keywordIDs).Error; err != nil {
		return fmt.Errorf("failed to load keywords %v: %w", keywordIDs, err)
	}
	if err := db.Model(&merchant).Association("Keywords").Append(&keywords); err != nil {
		return fmt.Errorf("failed to set keywords for merchant %d: %w", merchantID, err)
	}
	return nil
}
