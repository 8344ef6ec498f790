package service

import (
	"context"
	"errors"
	"fmt"

	"merchant-bot/internal/models"
)

// ErrCityHasDistricts blocks city deletion while districts still reference it.
var ErrCityHasDistricts = errors.New("city still has districts")

func (s *Service) ActiveCities(ctx context.Context) ([]models.City, error) {
	return s.repo.ListCities(ctx, true)
}

func (s *Service) AllCities(ctx context.Context) ([]models.City, error) {
	return s.repo.ListCities(ctx, false)
}

func (s *Service) CreateCity(ctx context.Context, name string, displayOrder int) (*models.City, error) {
	if name == "" {
		return nil, errors.New("city name must not be empty")
	}
	city := &models.City{Name: name, IsActive: true, DisplayOrder: displayOrder}
	if err := s.repo.CreateCity(ctx, city); err != nil {
		return nil, err
	}
	return city, nil
}

// UpdateCityInfo renames a city and optionally moves it in the display order.
func (s *Service) UpdateCityInfo(ctx context.Context, id uint, name string, displayOrder *int) error {
	city, err := s.repo.GetCity(ctx, id)
	if err != nil {
		return err
	}
	if city == nil {
		return fmt.Errorf("city %d not found", id)
	}
	if name != "" {
		city.Name = name
	}
	if displayOrder != nil {
		city.DisplayOrder = *displayOrder
	}
	return s.repo.UpdateCity(ctx, city)
}

func (s *Service) ToggleCity(ctx context.Context, id uint) (bool, error) {
	city, err := s.repo.GetCity(ctx, id)
	if err != nil {
		return false, err
	}
	if city == nil {
		return false, fmt.Errorf("city %d not found", id)
	}
	city.IsActive = !city.IsActive
	return city.IsActive, s.repo.UpdateCity(ctx, city)
}

func (s *Service) DeleteCity(ctx context.Context, id uint) error {
	count, err := s.repo.CountDistrictsByCity(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return ErrCityHasDistricts
	}
	return s.repo.DeleteCity(ctx, id)
}

func (s *Service) DistrictsByCity(ctx context.Context, cityID uint, activeOnly bool) ([]models.District, error) {
	return s.repo.ListDistricts(ctx, cityID, activeOnly)
}

func (s *Service) CreateDistrict(ctx context.Context, cityID uint, name string, displayOrder int) (*models.District, error) {
	if name == "" {
		return nil, errors.New("district name must not be empty")
	}
	city, err := s.repo.GetCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	if city == nil {
		return nil, fmt.Errorf("city %d not found", cityID)
	}
	district := &models.District{CityID: cityID, Name: name, IsActive: true, DisplayOrder: displayOrder}
	if err := s.repo.CreateDistrict(ctx, district); err != nil {
		return nil, err
	}
	return district, nil
}

func (s *Service) ToggleDistrict(ctx context.Context, id uint) (bool, error) {
	district, err := s.repo.GetDistrict(ctx, id)
	if err != nil {
		return false, err
	}
	if district == nil {
		return false, fmt.Errorf("district %d not found", id)
	}
	district.IsActive = !district.IsActive
	return district.IsActive, s.repo.UpdateDistrict(ctx, district)
}

func (s *Service) DeleteDistrict(ctx context.Context, id uint) error {
	return s.repo.DeleteDistrict(ctx, id)
}

func (s *Service) ListTimeSlots(ctx context.Context, activeOnly bool) ([]models.PostingTimeSlot, error) {
	return s.repo.ListTimeSlots(ctx, activeOnly)
}

func (s *Service) CreateTimeSlot(ctx context.Context, timeStr string, displayOrder int) (*models.PostingTimeSlot, error) {
	if !timeSlotRe.MatchString(timeStr) {
		return nil, fmt.Errorf("invalid time slot %q, expected HH:MM", timeStr)
	}
	slot := &models.PostingTimeSlot{TimeStr: timeStr, IsActive: true, DisplayOrder: displayOrder}
	if err := s.repo.CreateTimeSlot(ctx, slot); err != nil {
		return nil, err
	}
	return slot, nil
}

func (s *Service) ToggleTimeSlot(ctx context.Context, id uint) (bool, error) {
	slot, err := s.repo.GetTimeSlot(ctx, id)
	if err != nil {
		return false, err
	}
	if slot == nil {
		return false, fmt.Errorf("time slot %d not found", id)
	}
	slot.IsActive = !slot.IsActive
	return slot.IsActive, s.repo.UpdateTimeSlot(ctx, slot)
}

func (s *Service) DeleteTimeSlot(ctx context.Context, id uint) error {
	return s.repo.DeleteTimeSlot(ctx, id)
}
