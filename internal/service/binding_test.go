package service

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateBindingCodeFormat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	formatRe := regexp.MustCompile(`^[A-Z0-9]{8}$`)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		code, err := svc.GenerateBindingCode(ctx, 24)
		require.NoError(t, err)
		assert.Regexp(t, formatRe, code.Code)
		assert.False(t, seen[code.Code], "duplicate code %s", code.Code)
		seen[code.Code] = true
		require.NotNil(t, code.ExpiresAt)
	}
}

func TestGenerateBindingCodeCollisionRetry(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	// First generator output collides with an existing row, forcing a retry.
	existing, err := svc.GenerateBindingCode(ctx, -1)
	require.NoError(t, err)

	calls := 0
	svc.newCode = func() string {
		calls++
		if calls == 1 {
			return existing.Code
		}
		return "FRESH001"
	}

	code, err := svc.GenerateBindingCode(ctx, -1)
	require.NoError(t, err)
	assert.Equal(t, "FRESH001", code.Code)
	assert.Equal(t, 2, calls)
	assert.Nil(t, code.ExpiresAt, "negative expiryHours should make a non-expiring code")
}

func TestGenerateBindingCodeDefaultExpiry(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	base := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	// expiryHours 0 picks up the configured default instead of never expiring.
	code, err := svc.GenerateBindingCode(ctx, 0)
	require.NoError(t, err)
	require.NotNil(t, code.ExpiresAt)
	assert.Equal(t, base.Add(24*time.Hour), *code.ExpiresAt)
}

func TestGenerateBindingCodeGivesUpAfterMaxAttempts(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	existing, err := svc.GenerateBindingCode(ctx, -1)
	require.NoError(t, err)
	svc.newCode = func() string { return existing.Code }

	_, err = svc.GenerateBindingCode(ctx, -1)
	assert.Error(t, err)
}

func TestRedeemBindingCode(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	code, err := svc.GenerateBindingCode(ctx, 24)
	require.NoError(t, err)

	result, err := svc.RedeemBindingCode(ctx, code.Code, 1001, "alice", "Alice A")
	require.NoError(t, err)
	require.True(t, result.OK())
	require.NotNil(t, result.Merchant)
	assert.Equal(t, "pending_submission", result.Merchant.Status)
	assert.Equal(t, int64(1001), result.Merchant.TelegramChatID)

	// The same code redeemed again is spent.
	second, err := svc.RedeemBindingCode(ctx, code.Code, 1002, "bob", "Bob B")
	require.NoError(t, err)
	assert.Equal(t, RedeemInvalid, second.Reason)

	loser, err := svc.GetMerchantByChatID(ctx, 1002)
	require.NoError(t, err)
	assert.Nil(t, loser, "losing redemption must not leave a merchant row")
}

func TestRedeemBindingCodeBadFormat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	for _, raw := range []string{"", "short", "toolongcode1", "ABCD-123"} {
		result, err := svc.RedeemBindingCode(ctx, raw, 1001, "u", "U")
		require.NoError(t, err)
		assert.Equal(t, RedeemBadFormat, result.Reason, "input %q", raw)
	}

	// Surrounding whitespace is trimmed before the format check.
	code, err := svc.GenerateBindingCode(ctx, 24)
	require.NoError(t, err)
	result, err := svc.RedeemBindingCode(ctx, "  "+code.Code+"  ", 1001, "u", "U")
	require.NoError(t, err)
	assert.True(t, result.OK())
}

func TestRedeemExpiredCodeFails(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	code, err := svc.GenerateBindingCode(ctx, 1)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	result, err := svc.RedeemBindingCode(ctx, code.Code, 1001, "u", "U")
	require.NoError(t, err)
	assert.Equal(t, RedeemInvalid, result.Reason)
}

func TestRedeemAlreadyBoundChat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.GenerateBindingCode(ctx, 24)
	require.NoError(t, err)
	result, err := svc.RedeemBindingCode(ctx, first.Code, 1001, "u", "U")
	require.NoError(t, err)
	require.True(t, result.OK())

	second, err := svc.GenerateBindingCode(ctx, 24)
	require.NoError(t, err)
	again, err := svc.RedeemBindingCode(ctx, second.Code, 1001, "u", "U")
	require.NoError(t, err)
	assert.Equal(t, RedeemAlreadyBound, again.Reason)
	require.NotNil(t, again.Merchant)
	assert.Equal(t, result.Merchant.ID, again.Merchant.ID)

	// The second code stays unspent.
	fresh, err := svc.repo.GetValidBindingCode(ctx, second.Code, svc.now())
	require.NoError(t, err)
	assert.NotNil(t, fresh)
}

// claimLosingRepo simulates losing the conditional-update race: the code looks
// valid on read but the claim affects zero rows.
type claimLosingRepo struct {
	*fakeRepo
}

func (r *claimLosingRepo) MarkBindingCodeUsed(context.Context, string, uint, string, string, time.Time) (int64, error) {
	return 0, nil
}

func TestRedeemRaceLoserCompensates(t *testing.T) {
	repo := &claimLosingRepo{newFakeRepo()}
	svc := newTestService(t, repo)
	ctx := context.Background()

	code, err := svc.GenerateBindingCode(ctx, 24)
	require.NoError(t, err)

	result, err := svc.RedeemBindingCode(ctx, code.Code, 1001, "u", "U")
	require.NoError(t, err)
	assert.Equal(t, RedeemTaken, result.Reason)

	merchant, err := svc.GetMerchantByChatID(ctx, 1001)
	require.NoError(t, err)
	assert.Nil(t, merchant, "placeholder merchant must be deleted when the claim loses")
}

func TestCleanupExpiredCodes(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	expiring, err := svc.GenerateBindingCode(ctx, 1)
	require.NoError(t, err)
	forever, err := svc.GenerateBindingCode(ctx, -1)
	require.NoError(t, err)

	used, err := svc.GenerateBindingCode(ctx, 1)
	require.NoError(t, err)
	_, err = svc.RedeemBindingCode(ctx, used.Code, 1001, "u", "U")
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	deleted, err := svc.CleanupExpiredCodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	gone, err := svc.repo.GetBindingCodeByCode(ctx, expiring.Code)
	require.NoError(t, err)
	assert.Nil(t, gone)

	kept, err := svc.repo.GetBindingCodeByCode(ctx, forever.Code)
	require.NoError(t, err)
	assert.NotNil(t, kept)

	// Used codes survive the sweep for audit purposes.
	usedRow, err := svc.repo.GetBindingCodeByCode(ctx, used.Code)
	require.NoError(t, err)
	assert.NotNil(t, usedRow)
}

func TestBindingCodeStats(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		_, err := svc.GenerateBindingCode(ctx, 24)
		require.NoError(t, err)
	}
	used, err := svc.GenerateBindingCode(ctx, 24)
	require.NoError(t, err)
	_, err = svc.RedeemBindingCode(ctx, used.Code, 1001, "u", "U")
	require.NoError(t, err)

	stats, err := svc.GetBindingCodeStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 1, stats.Used)
	assert.Equal(t, 4, stats.Valid)
	assert.Equal(t, 1, stats.RecentUsed)
	assert.InDelta(t, 0.2, stats.UsageRate, 1e-9)
}

var _ Repository = (*fakeRepo)(nil)
