package contract

import (
	"context"

	"docchat-be/internal/entity"

	"github.com/google/uuid"
)

type TenantSettingsRepository interface {
	Create(ctx context.Context, settings *entity.TenantSettings) error
	Update(ctx context.Context, settings *entity.TenantSettings) error
	FindByTenantId(ctx context.Context, tenantId uuid.UUID) (*entity.TenantSettings, error)
}
