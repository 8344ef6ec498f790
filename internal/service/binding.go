package service

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"merchant-bot/internal/models"
)

var codeFormatRe = regexp.MustCompile(`^[A-Z0-9]{8}$`)

const maxCodeAttempts = 10

// RedeemReason explains why a redemption did not produce a new merchant.
type RedeemReason string

const (
	RedeemOK           RedeemReason = "ok"
	RedeemBadFormat    RedeemReason = "bad_format"
	RedeemInvalid      RedeemReason = "invalid"
	RedeemAlreadyBound RedeemReason = "already_bound"
	RedeemTaken        RedeemReason = "taken"
)

type RedeemResult struct {
	Reason   RedeemReason
	Merchant *models.Merchant
}

func (r *RedeemResult) OK() bool {
	return r.Reason == RedeemOK
}

// GenerateBindingCode creates a fresh one-time code. expiryHours 0 falls back
// to the configured default; a negative value makes the code non-expiring.
func (s *Service) GenerateBindingCode(ctx context.Context, expiryHours int) (*models.BindingCode, error) {
	if expiryHours == 0 {
		expiryHours = s.config.CodeExpiryHours
	}
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		code := s.newCode()

		existing, err := s.repo.GetBindingCodeByCode(ctx, code)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Warnf("Binding code collision on %s, retrying", code)
			continue
		}

		bc := &models.BindingCode{Code: code}
		if expiryHours > 0 {
			expiresAt := s.now().Add(time.Duration(expiryHours) * time.Hour)
			bc.ExpiresAt = &expiresAt
		}
		if err := s.repo.CreateBindingCode(ctx, bc); err != nil {
			return nil, err
		}
		return bc, nil
	}
	return nil, errors.New("failed to generate a unique binding code")
}

// RedeemBindingCode validates the code and binds it to a new placeholder
// merchant for the chat. A conditional update claims the code; if another
// redemption wins the race the placeholder is deleted again.
func (s *Service) RedeemBindingCode(ctx context.Context, rawCode string, chatID int64, username, fullName string) (*RedeemResult, error) {
	code := strings.ToUpper(strings.TrimSpace(rawCode))
	if !codeFormatRe.MatchString(code) {
		return &RedeemResult{Reason: RedeemBadFormat}, nil
	}

	bc, err := s.repo.GetValidBindingCode(ctx, code, s.now())
	if err != nil {
		return nil, err
	}
	if bc == nil {
		return &RedeemResult{Reason: RedeemInvalid}, nil
	}

	existing, err := s.repo.GetMerchantByChatID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &RedeemResult{Reason: RedeemAlreadyBound, Merchant: existing}, nil
	}

	userInfo, _ := json.Marshal(map[string]string{
		"username":  username,
		"full_name": fullName,
	})
	merchant := &models.Merchant{
		TelegramChatID: chatID,
		Name:           fullName,
		Status:         models.StatusPendingSubmission,
		UserInfo:       string(userInfo),
	}
	if err := s.repo.CreateMerchant(ctx, merchant); err != nil {
		return nil, err
	}

	rows, err := s.repo.MarkBindingCodeUsed(ctx, code, merchant.ID, username, fullName, s.now())
	if err != nil {
		// The merchant row must not survive an unclaimed code.
		if delErr := s.repo.DeleteMerchant(ctx, merchant.ID); delErr != nil {
			s.logger.Errorf("Failed to delete merchant %d after claim error: %v", merchant.ID, delErr)
		}
		return nil, err
	}
	if rows == 0 {
		if delErr := s.repo.DeleteMerchant(ctx, merchant.ID); delErr != nil {
			s.logger.Errorf("Failed to delete merchant %d after losing code race: %v", merchant.ID, delErr)
		}
		return &RedeemResult{Reason: RedeemTaken}, nil
	}

	s.LogActivity(ctx, chatID, models.ActionBindingCodeUsed, map[string]interface{}{
		"code": code,
	}, nil, &merchant.ID)

	return &RedeemResult{Reason: RedeemOK, Merchant: merchant}, nil
}

func (s *Service) CleanupExpiredCodes(ctx context.Context) (int64, error) {
	deleted, err := s.repo.DeleteExpiredBindingCodes(ctx, s.now())
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Infof("Removed %d expired binding codes", deleted)
	}
	return deleted, nil
}

func (s *Service) ListBindingCodes(ctx context.Context, limit int) ([]models.BindingCode, error) {
	return s.repo.ListBindingCodes(ctx, limit)
}

func (s *Service) DeleteBindingCode(ctx context.Context, id uint) error {
	return s.repo.DeleteBindingCode(ctx, id)
}

type BindingCodeStats struct {
	Total      int     `json:"total"`
	Used       int     `json:"used"`
	Valid      int     `json:"valid"`
	Expired    int     `json:"expired"`
	RecentUsed int     `json:"recent_used"` // used within the last 7 days
	UsageRate  float64 `json:"usage_rate"`
}

func (s *Service) GetBindingCodeStats(ctx context.Context) (*BindingCodeStats, error) {
	codes, err := s.repo.ListBindingCodes(ctx, 0)
	if err != nil {
		return nil, err
	}

	now := s.now()
	weekAgo := now.AddDate(0, 0, -7)
	stats := &BindingCodeStats{Total: len(codes)}
	for _, c := range codes {
		switch {
		case c.IsUsed:
			stats.Used++
			if c.UsedAt != nil && c.UsedAt.After(weekAgo) {
				stats.RecentUsed++
			}
		case c.ExpiresAt != nil && !c.ExpiresAt.After(now):
			stats.Expired++
		default:
			stats.Valid++
		}
	}
	if stats.Total > 0 {
		stats.UsageRate = float64(stats.Used) / float64(stats.Total)
	}
	return stats, nil
}
