package service

import (
	"context"
	"fmt"
	"sort"

	"merchant-bot/internal/models"
)

type CohortRow struct {
	Week   string `json:"week"`
	Size   int    `json:"size"`
	Active int    `json:"active"`
}

// GetCohortAnalysis groups merchants by registration week and counts how many
// were active in the activity log over the last 30 days.
func (s *Service) GetCohortAnalysis(ctx context.Context) ([]CohortRow, error) {
	merchants, err := s.repo.ListMerchants(ctx)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListActivitySince(ctx, s.now().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}

	activeUsers := make(map[int64]struct{})
	for _, e := range entries {
		activeUsers[e.UserID] = struct{}{}
	}

	type cohort struct{ size, active int }
	cohorts := make(map[string]*cohort)
	for _, m := range merchants {
		year, week := m.CreatedAt.ISOWeek()
		key := weekKey(year, week)
		c := cohorts[key]
		if c == nil {
			c = &cohort{}
			cohorts[key] = c
		}
		c.size++
		if _, ok := activeUsers[m.TelegramChatID]; ok {
			c.active++
		}
	}

	rows := make([]CohortRow, 0, len(cohorts))
	for key, c := range cohorts {
		rows = append(rows, CohortRow{Week: key, Size: c.size, Active: c.active})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Week < rows[j].Week })
	return rows, nil
}

func weekKey(year, week int) string {
	return fmt.Sprintf("%d-W%02d", year, week)
}

type FunnelStats struct {
	Days      int `json:"days"`
	Triggered int `json:"triggered"`
	Redeemed  int `json:"redeemed"`
	Submitted int `json:"submitted"`
	Approved  int `json:"approved"`
}

// GetFunnelStats follows users from the registration trigger through code
// redemption and submission to approval.
func (s *Service) GetFunnelStats(ctx context.Context, days int) (*FunnelStats, error) {
	if days <= 0 {
		days = 30
	}
	since := s.now().AddDate(0, 0, -days)

	entries, err := s.repo.ListActivitySince(ctx, since)
	if err != nil {
		return nil, err
	}
	merchants, err := s.repo.ListMerchants(ctx)
	if err != nil {
		return nil, err
	}

	triggered := make(map[int64]struct{})
	redeemed := make(map[int64]struct{})
	for _, e := range entries {
		switch e.ActionType {
		case models.ActionUserInteraction:
			triggered[e.UserID] = struct{}{}
		case models.ActionBindingCodeUsed:
			redeemed[e.UserID] = struct{}{}
		}
	}

	stats := &FunnelStats{Days: days, Triggered: len(triggered), Redeemed: len(redeemed)}
	for _, m := range merchants {
		if m.CreatedAt.Before(since) {
			continue
		}
		switch models.NormalizeStatus(m.Status) {
		case models.StatusPendingApproval:
			stats.Submitted++
		case models.StatusApproved, models.StatusPublished:
			stats.Submitted++
			stats.Approved++
		}
	}
	return stats, nil
}

type UserSegments struct {
	Days   int `json:"days"`
	High   int `json:"high"`   // 20+ events
	Medium int `json:"medium"` // 5-19 events
	Low    int `json:"low"`    // 1-4 events
}

func (s *Service) GetUserSegments(ctx context.Context, days int) (*UserSegments, error) {
	if days <= 0 {
		days = 30
	}
	entries, err := s.repo.ListActivitySince(ctx, s.now().AddDate(0, 0, -days))
	if err != nil {
		return nil, err
	}

	counts := make(map[int64]int)
	for _, e := range entries {
		counts[e.UserID]++
	}

	segments := &UserSegments{Days: days}
	for _, count := range counts {
		switch {
		case count >= 20:
			segments.High++
		case count >= 5:
			segments.Medium++
		default:
			segments.Low++
		}
	}
	return segments, nil
}
