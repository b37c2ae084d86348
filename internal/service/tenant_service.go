package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/config"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/unitofwork"
)

type ITenantService interface {
	// Resolve returns the tenant's effective settings, falling back to
	// the configured defaults when no row exists yet.
	Resolve(ctx context.Context, tenantId uuid.UUID) (*entity.TenantSettings, error)
	GetSettings(ctx context.Context, tenantId uuid.UUID) (*dto.TenantSettingsResponse, error)
	UpdateSettings(ctx context.Context, tenantId uuid.UUID, req *dto.UpdateTenantSettingsRequest) (*dto.TenantSettingsResponse, error)
}

type tenantService struct {
	uowFactory unitofwork.RepositoryFactory
	cache      *memory.SettingsCache
	defaults   config.LimitsConfig
}

func NewTenantService(
	uowFactory unitofwork.RepositoryFactory,
	cache *memory.SettingsCache,
	defaults config.LimitsConfig,
) ITenantService {
	return &tenantService{
		uowFactory: uowFactory,
		cache:      cache,
		defaults:   defaults,
	}
}

func (c *tenantService) Resolve(ctx context.Context, tenantId uuid.UUID) (*entity.TenantSettings, error) {
	if cached, found := c.cache.Get(tenantId); found {
		return cached, nil
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)
	settings, err := uow.TenantSettingsRepository().FindByTenantId(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = c.defaultSettings(tenantId)
	}

	c.cache.Set(settings)
	return settings, nil
}

func (c *tenantService) GetSettings(ctx context.Context, tenantId uuid.UUID) (*dto.TenantSettingsResponse, error) {
	settings, err := c.Resolve(ctx, tenantId)
	if err != nil {
		return nil, err
	}
	return toSettingsResponse(settings), nil
}

func (c *tenantService) UpdateSettings(ctx context.Context, tenantId uuid.UUID, req *dto.UpdateTenantSettingsRequest) (*dto.TenantSettingsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	settings, err := uow.TenantSettingsRepository().FindByTenantId(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	isNew := settings == nil
	if isNew {
		settings = c.defaultSettings(tenantId)
	}

	if req.AssistantName != nil {
		settings.AssistantName = *req.AssistantName
	}
	if req.ContactEmail != nil {
		settings.ContactEmail = *req.ContactEmail
	}
	if req.RateLimitPerHour != nil {
		settings.RateLimitPerHour = *req.RateLimitPerHour
	}
	if req.MaxDocuments != nil {
		settings.MaxDocuments = *req.MaxDocuments
	}
	if req.MaxFileSizeMB != nil {
		settings.MaxFileSizeMB = *req.MaxFileSizeMB
	}
	if req.TopK != nil {
		settings.TopK = *req.TopK
	}
	if req.SimilarityThreshold != nil {
		settings.SimilarityThreshold = *req.SimilarityThreshold
	}

	if isNew {
		err = uow.TenantSettingsRepository().Create(ctx, settings)
	} else {
		err = uow.TenantSettingsRepository().Update(ctx, settings)
	}
	if err != nil {
		return nil, err
	}

	c.cache.Invalidate(tenantId)
	return toSettingsResponse(settings), nil
}

func (c *tenantService) defaultSettings(tenantId uuid.UUID) *entity.TenantSettings {
	return &entity.TenantSettings{
		Id:                  uuid.New(),
		TenantId:            tenantId,
		AssistantName:       "Assistant",
		RateLimitPerHour:    c.defaults.RateLimitPerHour,
		MaxDocuments:        c.defaults.MaxDocuments,
		MaxFileSizeMB:       c.defaults.MaxFileSizeMB,
		TopK:                c.defaults.TopK,
		SimilarityThreshold: c.defaults.SimilarityThreshold,
		CreatedAt:           time.Now(),
	}
}

func toSettingsResponse(s *entity.TenantSettings) *dto.TenantSettingsResponse {
	return &dto.TenantSettingsResponse{
		AssistantName:       s.AssistantName,
		ContactEmail:        s.ContactEmail,
		RateLimitPerHour:    s.RateLimitPerHour,
		MaxDocuments:        s.MaxDocuments,
		MaxFileSizeMB:       s.MaxFileSizeMB,
		TopK:                s.TopK,
		SimilarityThreshold: s.SimilarityThreshold,
	}
}
