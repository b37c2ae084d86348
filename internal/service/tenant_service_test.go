package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/repository/memory"
)

func TestResolveFallsBackToDefaults(t *testing.T) {
	uow := newFakeUow()
	svc := NewTenantService(uow, memory.NewSettingsCache(), testLimits())

	settings, err := svc.Resolve(context.Background(), uuid.New())
	require.NoError(t, err)

	assert.Equal(t, "Assistant", settings.AssistantName)
	assert.Equal(t, 100, settings.RateLimitPerHour)
	assert.Equal(t, 0.35, settings.SimilarityThreshold)
}

func TestResolveUsesStoredRow(t *testing.T) {
	uow := newFakeUow()
	tenantId := uuid.New()
	uow.settings.row = &entity.TenantSettings{
		Id:               uuid.New(),
		TenantId:         tenantId,
		AssistantName:    "Clinic Helper",
		RateLimitPerHour: 10,
		TopK:             2,
	}
	svc := NewTenantService(uow, memory.NewSettingsCache(), testLimits())

	settings, err := svc.Resolve(context.Background(), tenantId)
	require.NoError(t, err)
	assert.Equal(t, "Clinic Helper", settings.AssistantName)
	assert.Equal(t, 2, settings.TopK)
}

func TestUpdateSettingsAppliesPartialChanges(t *testing.T) {
	uow := newFakeUow()
	svc := NewTenantService(uow, memory.NewSettingsCache(), testLimits())
	tenantId := uuid.New()

	name := "Support Bot"
	topK := 6
	res, err := svc.UpdateSettings(context.Background(), tenantId, &dto.UpdateTenantSettingsRequest{
		AssistantName: &name,
		TopK:          &topK,
	})
	require.NoError(t, err)

	assert.Equal(t, "Support Bot", res.AssistantName)
	assert.Equal(t, 6, res.TopK)
	// Untouched fields keep their defaults.
	assert.Equal(t, 100, res.RateLimitPerHour)

	require.NotNil(t, uow.settings.row)
	assert.Equal(t, tenantId, uow.settings.row.TenantId)
}

func TestUpdateSettingsInvalidatesCache(t *testing.T) {
	uow := newFakeUow()
	cache := memory.NewSettingsCache()
	svc := NewTenantService(uow, cache, testLimits())
	tenantId := uuid.New()

	// Prime the cache with the defaults.
	_, err := svc.Resolve(context.Background(), tenantId)
	require.NoError(t, err)

	name := "Renamed"
	_, err = svc.UpdateSettings(context.Background(), tenantId, &dto.UpdateTenantSettingsRequest{
		AssistantName: &name,
	})
	require.NoError(t, err)

	settings, err := svc.Resolve(context.Background(), tenantId)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", settings.AssistantName)
}
