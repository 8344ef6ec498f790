package repository

import (
	"context"
	"errors"
	"fmt"

	"merchant-bot/internal/models"

	"gorm.io/gorm"
)

func (r *Repository) ListCities(ctx context.Context, activeOnly bool) ([]models.City, error) {
	var cities []models.City
	q := r.db.WithContext(ctx).Order("display_order ASC, id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

func (r *Repository) GetCity(ctx context.Context, id uint) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).First(&city, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get city %d: %w", id, err)
	}
	return &city, nil
}

func (r *Repository) CreateCity(ctx context.Context, city *models.City) error {
	return r.db.WithContext(ctx).Create(city).Error
}

func (r *Repository) UpdateCity(ctx context.Context, city *models.City) error {
	return r.db.WithContext(ctx).Save(city).Error
}

func (r *Repository) DeleteCity(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.City{}, id).Error
}

func (r *Repository) CountDistrictsByCity(ctx context.Context, cityID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.District{}).
		Where("city_id = ?", cityID).
		Count(&count).
		Error
	if err != nil {
		return 0, fmt.Errorf("failed to count districts for city %d: %w", cityID, err)
	}
	return count, nil
}

func (r *Repository) ListDistricts(ctx context.Context, cityID uint, activeOnly bool) ([]models.District, error) {
	var districts []models.District
	q := r.db.WithContext(ctx).
		Where("city_id = ?", cityID).
		Order("display_order ASC, id ASC")
	if activeOnly {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&districts).Error; err != nil {
		return nil, fmt.Errorf("failed to list districts for city %d: %w", cityID, err)
	}
	return districts, nil
}

func (r *Repository) GetDistrict(ctx context.Context, id uint) (*models.District, error) {
	var district models.District
	err := r.db.WithContext(ctx).First(&district, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get district %d: %w", id, err)
	}
	return &district, nil
}

func (r *Repository) CreateDistrict(ctx context.Context, district *models.District) error {
	return r.db.WithContext(ctx).Create(district).Error
}

func (r *Repository) UpdateDistrict(ctx context.Context, district *models.District) error {
	return r.db.WithContext(ctx).Save(district).Error
}

func (r *Repository) DeleteDistrict(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.District{}, id).Error
}
