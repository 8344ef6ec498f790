package service

import (
	"context"
	"fmt"

	"merchant-bot/internal/models"
)

func (s *Service) GetMerchantByChatID(ctx context.Context, chatID int64) (*models.Merchant, error) {
	return s.repo.GetMerchantByChatID(ctx, chatID)
}

func (s *Service) GetMerchantByID(ctx context.Context, id uint) (*models.Merchant, error) {
	return s.repo.GetMerchantByID(ctx, id)
}

func (s *Service) ListMerchants(ctx context.Context) ([]models.Merchant, error) {
	return s.repo.ListMerchants(ctx)
}

func (s *Service) MerchantKeywords(ctx context.Context, merchantID uint) ([]models.Keyword, error) {
	return s.repo.ListMerchantKeywords(ctx, merchantID)
}

// UpdateMerchantStatus is admin-driven and may move a merchant to any valid
// status, including backwards.
func (s *Service) UpdateMerchantStatus(ctx context.Context, id uint, status string) error {
	status = models.NormalizeStatus(status)
	if !models.IsValidStatus(status) {
		return fmt.Errorf("invalid merchant status %q", status)
	}

	merchant, err := s.repo.GetMerchantByID(ctx, id)
	if err != nil {
		return err
	}
	if merchant == nil {
		return fmt.Errorf("merchant %d not found", id)
	}

	merchant.Status = status
	if err := s.repo.UpdateMerchant(ctx, merchant, nil); err != nil {
		return err
	}

	s.LogActivity(ctx, 0, models.ActionAdminAction, map[string]interface{}{
		"action":      "status_change",
		"merchant_id": id,
		"status":      status,
	}, nil, &id)
	return nil
}

type SlotOption struct {
	Time     string `json:"time"`
	Occupied bool   `json:"occupied"`
}

// SlotOptionsForDate lists the active slots for a date with their occupancy.
func (s *Service) SlotOptionsForDate(ctx context.Context, date string, excludeMerchantID *uint) ([]SlotOption, error) {
	slots, err := s.repo.ListTimeSlots(ctx, true)
	if err != nil {
		return nil, err
	}
	occupied, err := s.repo.OccupiedTimeSlots(ctx, date, excludeMerchantID)
	if err != nil {
		return nil, err
	}

	set := make(map[string]bool, len(occupied))
	for _, slot := range occupied {
		set[slot] = true
	}

	options := make([]SlotOption, 0, len(slots))
	for _, slot := range slots {
		options = append(options, SlotOption{Time: slot.TimeStr, Occupied: set[slot.TimeStr]})
	}
	return options, nil
}
