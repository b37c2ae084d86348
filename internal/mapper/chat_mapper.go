package mapper

import (
	"encoding/json"
	"time"

	"docchat-be/internal/entity"
	"docchat-be/internal/model"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ChatMapper struct{}

func NewChatMapper() *ChatMapper {
	return &ChatMapper{}
}

func (m *ChatMapper) SessionToEntity(s *model.ChatSession) *entity.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt *time.Time
	if s.DeletedAt.Valid {
		t := s.DeletedAt.Time
		deletedAt = &t
	}

	var updatedAt *time.Time
	if !s.UpdatedAt.IsZero() {
		t := s.UpdatedAt
		updatedAt = &t
	}

	return &entity.ChatSession{
		Id:         s.Id,
		TenantId:   s.TenantId,
		SessionKey: s.SessionKey,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
		IsDeleted:  s.DeletedAt.Valid,
	}
}

func (m *ChatMapper) SessionToModel(s *entity.ChatSession) *model.ChatSession {
	if s == nil {
		return nil
	}

	var deletedAt gorm.DeletedAt
	if s.DeletedAt != nil {
		deletedAt = gorm.DeletedAt{Time: *s.DeletedAt, Valid: true}
	}

	var updatedAt time.Time
	if s.UpdatedAt != nil {
		updatedAt = *s.UpdatedAt
	}

	return &model.ChatSession{
		Id:         s.Id,
		TenantId:   s.TenantId,
		SessionKey: s.SessionKey,
		Title:      s.Title,
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  updatedAt,
		DeletedAt:  deletedAt,
	}
}

func (m *ChatMapper) SessionsToEntities(sessions []model.ChatSession) []entity.ChatSession {
	result := make([]entity.ChatSession, 0, len(sessions))
	for i := range sessions {
		result = append(result, *m.SessionToEntity(&sessions[i]))
	}
	return result
}

func (m *ChatMapper) MessageToEntity(msg *model.ChatMessage) *entity.ChatMessage {
	if msg == nil {
		return nil
	}

	e := &entity.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		CreatedAt:     msg.CreatedAt,
	}

	// Structured fields are best-effort; a corrupt blob degrades to nil
	// rather than failing the whole read.
	if len(msg.Sources) > 0 {
		_ = json.Unmarshal(msg.Sources, &e.Sources)
	}
	if len(msg.ContactInfo) > 0 {
		var ci entity.ContactInfo
		if err := json.Unmarshal(msg.ContactInfo, &ci); err == nil {
			e.ContactInfo = &ci
		}
	}
	if len(msg.Categories) > 0 {
		_ = json.Unmarshal(msg.Categories, &e.Categories)
	}
	if len(msg.Providers) > 0 {
		_ = json.Unmarshal(msg.Providers, &e.Providers)
	}

	return e
}

func (m *ChatMapper) MessageToModel(msg *entity.ChatMessage) *model.ChatMessage {
	if msg == nil {
		return nil
	}

	out := &model.ChatMessage{
		Id:            msg.Id,
		ChatSessionId: msg.ChatSessionId,
		Role:          msg.Role,
		Content:       msg.Content,
		CreatedAt:     msg.CreatedAt,
	}

	if len(msg.Sources) > 0 {
		if raw, err := json.Marshal(msg.Sources); err == nil {
			out.Sources = datatypes.JSON(raw)
		}
	}
	if msg.ContactInfo != nil {
		if raw, err := json.Marshal(msg.ContactInfo); err == nil {
			out.ContactInfo = datatypes.JSON(raw)
		}
	}
	if len(msg.Categories) > 0 {
		if raw, err := json.Marshal(msg.Categories); err == nil {
			out.Categories = datatypes.JSON(raw)
		}
	}
	if len(msg.Providers) > 0 {
		if raw, err := json.Marshal(msg.Providers); err == nil {
			out.Providers = datatypes.JSON(raw)
		}
	}

	return out
}

func (m *ChatMapper) MessagesToEntities(messages []model.ChatMessage) []entity.ChatMessage {
	result := make([]entity.ChatMessage, 0, len(messages))
	for i := range messages {
		result = append(result, *m.MessageToEntity(&messages[i]))
	}
	return result
}
