package mapper

import (
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/model"
)

type TenantSettingsMapper struct{}

func NewTenantSettingsMapper() *TenantSettingsMapper {
	return &TenantSettingsMapper{}
}

func (m *TenantSettingsMapper) ToEntity(s *model.TenantSettings) *entity.TenantSettings {
	if s == nil {
		return nil
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.TenantSettings{
		Id:                  s.Id,
		TenantId:            s.TenantId,
		AssistantName:       s.AssistantName,
		ContactEmail:        s.ContactEmail,
		RateLimitPerHour:    s.RateLimitPerHour,
		MaxDocuments:        s.MaxDocuments,
		MaxFileSizeMB:       s.MaxFileSizeMB,
		TopK:                s.TopK,
		SimilarityThreshold: s.SimilarityThreshold,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
	}
}

func (m *TenantSettingsMapper) ToModel(s *entity.TenantSettings) *model.TenantSettings {
	if s == nil {
		return nil
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.TenantSettings{
		Id:                  s.Id,
		TenantId:            s.TenantId,
		AssistantName:       s.AssistantName,
		ContactEmail:        s.ContactEmail,
		RateLimitPerHour:    s.RateLimitPerHour,
		MaxDocuments:        s.MaxDocuments,
		MaxFileSizeMB:       s.MaxFileSizeMB,
		TopK:                s.TopK,
		SimilarityThreshold: s.SimilarityThreshold,
		CreatedAt:           s.CreatedAt,
		UpdatedAt:           updatedAt,
	}
}
