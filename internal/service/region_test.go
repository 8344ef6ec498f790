package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteCityBlockedWhileDistrictsExist(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	city, err := svc.CreateCity(ctx, "深圳", 0)
	require.NoError(t, err)
	district, err := svc.CreateDistrict(ctx, city.ID, "南山区", 0)
	require.NoError(t, err)

	err = svc.DeleteCity(ctx, city.ID)
	assert.ErrorIs(t, err, ErrCityHasDistricts)

	require.NoError(t, svc.DeleteDistrict(ctx, district.ID))
	require.NoError(t, svc.DeleteCity(ctx, city.ID))

	cities, err := svc.AllCities(ctx)
	require.NoError(t, err)
	assert.Empty(t, cities)
}

func TestToggleCityFlipsActive(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	city, err := svc.CreateCity(ctx, "上海", 0)
	require.NoError(t, err)
	require.True(t, city.IsActive)

	active, err := svc.ToggleCity(ctx, city.ID)
	require.NoError(t, err)
	assert.False(t, active)

	// Inactive cities disappear from the onboarding options.
	activeCities, err := svc.ActiveCities(ctx)
	require.NoError(t, err)
	assert.Empty(t, activeCities)

	all, err := svc.AllCities(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestUpdateCityInfo(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	city, err := svc.CreateCity(ctx, "北京", 0)
	require.NoError(t, err)

	order := 5
	require.NoError(t, svc.UpdateCityInfo(ctx, city.ID, "北京市", &order))

	updated, err := repo.GetCity(ctx, city.ID)
	require.NoError(t, err)
	assert.Equal(t, "北京市", updated.Name)
	assert.Equal(t, 5, updated.DisplayOrder)

	// An empty name keeps the current one.
	require.NoError(t, svc.UpdateCityInfo(ctx, city.ID, "", nil))
	updated, err = repo.GetCity(ctx, city.ID)
	require.NoError(t, err)
	assert.Equal(t, "北京市", updated.Name)
}

func TestCreateTimeSlotValidatesFormat(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.CreateTimeSlot(ctx, "25:00", 0)
	assert.Error(t, err)
	_, err = svc.CreateTimeSlot(ctx, "9:00", 0)
	assert.Error(t, err)

	slot, err := svc.CreateTimeSlot(ctx, "09:30", 0)
	require.NoError(t, err)
	assert.Equal(t, "09:30", slot.TimeStr)
}
