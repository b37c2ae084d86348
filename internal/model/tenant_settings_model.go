package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TenantSettings struct {
	Id                  uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId            uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex"`
	AssistantName       string         `gorm:"type:varchar(255);default:'Assistant'"`
	ContactEmail        string         `gorm:"type:varchar(255)"`
	RateLimitPerHour    int            `gorm:"default:100"`
	MaxDocuments        int            `gorm:"default:50"`
	MaxFileSizeMB       int            `gorm:"default:10"`
	TopK                int            `gorm:"default:4"`
	SimilarityThreshold float64        `gorm:"default:0.35"`
	CreatedAt           time.Time      `gorm:"autoCreateTime"`
	UpdatedAt           time.Time      `gorm:"autoUpdateTime"`
	DeletedAt           gorm.DeletedAt `gorm:"index"`
}

func (TenantSettings) TableName() string {
	return "tenant_settings"
}
