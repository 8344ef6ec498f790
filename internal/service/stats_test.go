package service

import (
	"context"
	"testing"
	"time"

	"merchant-bot/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityStatsGrouping(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	base := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	seed := []struct {
		userID int64
		action string
		button string
		offset time.Duration
	}{
		{1, models.ActionButtonClick, "profile", -1 * time.Hour},
		{1, models.ActionButtonClick, "profile", -2 * time.Hour},
		{2, models.ActionButtonClick, "submit", -1 * time.Hour},
		{2, models.ActionUserInteraction, "", -26 * time.Hour},
		{3, models.ActionBindingCodeUsed, "", -1 * time.Hour},
	}
	for _, e := range seed {
		entry := &models.ActivityLog{
			UserID:     e.userID,
			ActionType: e.action,
			Details:    "{}",
			Timestamp:  base.Add(e.offset),
		}
		if e.button != "" {
			entry.Details = `{"button":"` + e.button + `"}`
		}
		require.NoError(t, repo.CreateActivityLog(ctx, entry))
	}

	stats, err := svc.GetActivityStats(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalEvents)
	assert.Equal(t, 3, stats.ActiveUsers)
	assert.Equal(t, 2, stats.ButtonClicks["profile"])
	assert.Equal(t, 1, stats.ButtonClicks["submit"])
	assert.Equal(t, 3, stats.ByAction[models.ActionButtonClick])
	assert.Equal(t, 4, stats.DailyCounts["2026-08-25"])
	assert.Equal(t, 1, stats.DailyCounts["2026-08-24"])
	assert.Equal(t, 13, stats.PeakHour)
}

func TestMerchantStatsNormalizesLegacyStatuses(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	statuses := []string{"pending", "active", "inactive", models.StatusPendingApproval}
	for i, status := range statuses {
		m := &models.Merchant{TelegramChatID: int64(1000 + i), Status: status, MerchantType: "teacher"}
		require.NoError(t, repo.CreateMerchant(ctx, m))
	}

	stats, err := svc.GetMerchantStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 1, stats.ByStatus[models.StatusPendingSubmission])
	assert.Equal(t, 1, stats.ByStatus[models.StatusPublished])
	assert.Equal(t, 1, stats.ByStatus[models.StatusExpired])
	assert.Equal(t, 1, stats.ByStatus[models.StatusPendingApproval])
	assert.Equal(t, 4, stats.ByType["teacher"])
}

func TestCleanupOldLogs(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	now := time.Now()
	old := &models.ActivityLog{UserID: 1, ActionType: models.ActionSystemEvent, Details: "{}", Timestamp: now.AddDate(0, 0, -120)}
	fresh := &models.ActivityLog{UserID: 1, ActionType: models.ActionSystemEvent, Details: "{}", Timestamp: now.AddDate(0, 0, -5)}
	require.NoError(t, repo.CreateActivityLog(ctx, old))
	require.NoError(t, repo.CreateActivityLog(ctx, fresh))

	deleted, err := svc.CleanupOldLogs(ctx, 90)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	remaining, err := repo.ListActivitySince(ctx, now.AddDate(0, 0, -365))
	require.NoError(t, err)
	assert.Len(t, remaining, 1)
}

func TestFunnelStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	now := time.Now()

	for _, e := range []struct {
		userID int64
		action string
	}{
		{1, models.ActionUserInteraction},
		{2, models.ActionUserInteraction},
		{3, models.ActionUserInteraction},
		{1, models.ActionBindingCodeUsed},
		{2, models.ActionBindingCodeUsed},
	} {
		require.NoError(t, repo.CreateActivityLog(ctx, &models.ActivityLog{
			UserID: e.userID, ActionType: e.action, Details: "{}", Timestamp: now,
		}))
	}

	submitted := &models.Merchant{TelegramChatID: 1, Status: models.StatusPendingApproval}
	approved := &models.Merchant{TelegramChatID: 2, Status: models.StatusApproved}
	require.NoError(t, repo.CreateMerchant(ctx, submitted))
	require.NoError(t, repo.CreateMerchant(ctx, approved))

	funnel, err := svc.GetFunnelStats(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 3, funnel.Triggered)
	assert.Equal(t, 2, funnel.Redeemed)
	assert.Equal(t, 2, funnel.Submitted)
	assert.Equal(t, 1, funnel.Approved)
}

func TestUserSegments(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()
	now := time.Now()

	addEvents := func(userID int64, count int) {
		for i := 0; i < count; i++ {
			require.NoError(t, repo.CreateActivityLog(ctx, &models.ActivityLog{
				UserID: userID, ActionType: models.ActionButtonClick, Details: "{}", Timestamp: now,
			}))
		}
	}
	addEvents(1, 25)
	addEvents(2, 7)
	addEvents(3, 2)

	segments, err := svc.GetUserSegments(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, segments.High)
	assert.Equal(t, 1, segments.Medium)
	assert.Equal(t, 1, segments.Low)
}
