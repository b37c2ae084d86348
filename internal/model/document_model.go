package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document ingestion lifecycle states.
const (
	DocumentStatusPending    = "pending"
	DocumentStatusProcessing = "processing"
	DocumentStatusCompleted  = "completed"
	DocumentStatusFailed     = "failed"
)

type Document struct {
	Id           uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantId     uuid.UUID      `gorm:"type:uuid;not null;index"` // Tenant ownership for data isolation
	Filename     string         `gorm:"type:varchar(512);not null"`
	FileType     string         `gorm:"type:varchar(50);not null"`
	FileSize     int64          `gorm:"not null;default:0"`
	Status       string         `gorm:"type:varchar(50);not null;default:'pending';index"`
	ErrorMessage string         `gorm:"type:text"`
	ChunkCount   int            `gorm:"default:0"`
	Content      []byte         `gorm:"type:bytea"` // raw upload bytes, kept for re-ingestion; bytea so binary and non-UTF-8 files survive
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

func (Document) TableName() string {
	return "documents"
}
