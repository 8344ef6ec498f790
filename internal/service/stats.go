package service

import (
	"context"
	"encoding/json"
	"time"

	"merchant-bot/internal/models"
)

// LogActivity records one event in the activity log. Logging is best effort;
// a failed insert never propagates into the calling flow.
func (s *Service) LogActivity(ctx context.Context, userID int64, actionType string, details map[string]interface{}, buttonID *int, merchantID *uint) {
	data := "{}"
	if len(details) > 0 {
		if raw, err := json.Marshal(details); err == nil {
			data = string(raw)
		}
	}

	entry := &models.ActivityLog{
		UserID:     userID,
		ActionType: actionType,
		Details:    data,
		ButtonID:   buttonID,
		MerchantID: merchantID,
		Timestamp:  s.now(),
	}
	if err := s.repo.CreateActivityLog(ctx, entry); err != nil {
		s.logger.Errorf("Failed to log activity %s for user %d: %v", actionType, userID, err)
	}
}

func (s *Service) CleanupOldLogs(ctx context.Context, days int) (int64, error) {
	if days <= 0 {
		days = s.config.LogRetentionDays
	}
	if days <= 0 {
		days = 90
	}
	cutoff := s.now().AddDate(0, 0, -days)
	deleted, err := s.repo.DeleteActivityBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.logger.Infof("Pruned %d activity log rows older than %d days", deleted, days)
	}
	return deleted, nil
}

type ActivityStats struct {
	Days         int            `json:"days"`
	TotalEvents  int            `json:"total_events"`
	ActiveUsers  int            `json:"active_users"`
	ByAction     map[string]int `json:"by_action"`
	ButtonClicks map[string]int `json:"button_clicks"`
	DailyCounts  map[string]int `json:"daily_counts"`
	HourlyCounts [24]int        `json:"hourly_counts"`
	PeakHour     int            `json:"peak_hour"`
}

// GetActivityStats aggregates the recent activity log in memory.
func (s *Service) GetActivityStats(ctx context.Context, days int) (*ActivityStats, error) {
	if days <= 0 {
		days = 7
	}
	since := s.now().AddDate(0, 0, -days)
	entries, err := s.repo.ListActivitySince(ctx, since)
	if err != nil {
		return nil, err
	}

	stats := &ActivityStats{
		Days:         days,
		TotalEvents:  len(entries),
		ByAction:     make(map[string]int),
		ButtonClicks: make(map[string]int),
		DailyCounts:  make(map[string]int),
	}

	users := make(map[int64]struct{})
	for _, e := range entries {
		users[e.UserID] = struct{}{}
		stats.ByAction[e.ActionType]++
		stats.DailyCounts[e.Timestamp.Format("2006-01-02")]++
		stats.HourlyCounts[e.Timestamp.Hour()]++

		if e.ActionType == models.ActionButtonClick {
			var details struct {
				Button string `json:"button"`
			}
			if err := json.Unmarshal([]byte(e.Details), &details); err == nil && details.Button != "" {
				stats.ButtonClicks[details.Button]++
			}
		}
	}
	stats.ActiveUsers = len(users)

	peak, peakCount := 0, 0
	for hour, count := range stats.HourlyCounts {
		if count > peakCount {
			peak, peakCount = hour, count
		}
	}
	stats.PeakHour = peak

	return stats, nil
}

type MerchantStats struct {
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
	ByType   map[string]int `json:"by_type"`
	ByCity   map[string]int `json:"by_city"`
}

func (s *Service) GetMerchantStats(ctx context.Context) (*MerchantStats, error) {
	merchants, err := s.repo.ListMerchants(ctx)
	if err != nil {
		return nil, err
	}

	stats := &MerchantStats{
		Total:    len(merchants),
		ByStatus: make(map[string]int),
		ByType:   make(map[string]int),
		ByCity:   make(map[string]int),
	}
	for _, m := range merchants {
		stats.ByStatus[models.NormalizeStatus(m.Status)]++
		if m.MerchantType != "" {
			stats.ByType[m.MerchantType]++
		}
		if m.City != nil {
			stats.ByCity[m.City.Name]++
		}
	}
	return stats, nil
}

type DashboardStats struct {
	Activity  *ActivityStats    `json:"activity"`
	Merchants *MerchantStats    `json:"merchants"`
	Codes     *BindingCodeStats `json:"codes"`
	Generated time.Time         `json:"generated"`
}

func (s *Service) GetDashboardStats(ctx context.Context, days int) (*DashboardStats, error) {
	activity, err := s.GetActivityStats(ctx, days)
	if err != nil {
		return nil, err
	}
	merchants, err := s.GetMerchantStats(ctx)
	if err != nil {
		return nil, err
	}
	codes, err := s.GetBindingCodeStats(ctx)
	if err != nil {
		return nil, err
	}
	return &DashboardStats{
		Activity:  activity,
		Merchants: merchants,
		Codes:     codes,
		Generated: s.now(),
	}, nil
}
