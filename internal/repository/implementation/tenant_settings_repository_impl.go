package implementation

import (
	"context"
	"errors"

	"docchat-be/internal/entity"
	"docchat-be/internal/mapper"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/contract"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantSettingsRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.TenantSettingsMapper
}

func NewTenantSettingsRepository(db *gorm.DB) contract.TenantSettingsRepository {
	return &TenantSettingsRepositoryImpl{
		db:     db,
		mapper: mapper.NewTenantSettingsMapper(),
	}
}

func (r *TenantSettingsRepositoryImpl) Create(ctx context.Context, settings *entity.TenantSettings) error {
	m := r.mapper.ToModel(settings)
	if err := r.db.WithContext(ctx).Create(m).Error; err != nil {
		return err
	}
	*settings = *r.mapper.ToEntity(m)
	return nil
}

func (r *TenantSettingsRepositoryImpl) Update(ctx context.Context, settings *entity.TenantSettings) error {
	m := r.mapper.ToModel(settings)
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	*settings = *r.mapper.ToEntity(m)
	return nil
}

func (r *TenantSettingsRepositoryImpl) FindByTenantId(ctx context.Context, tenantId uuid.UUID) (*entity.TenantSettings, error) {
	var m model.TenantSettings
	err := r.db.WithContext(ctx).Where("tenant_id = ?", tenantId).First(&m).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return r.mapper.ToEntity(&m), nil
}
