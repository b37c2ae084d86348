package entity

import (
	"time"

	"github.com/google/uuid"
)

type Document struct {
	Id           uuid.UUID
	TenantId     uuid.UUID
	Filename     string
	FileType     string
	FileSize     int64
	Status       string
	ErrorMessage string
	ChunkCount   int
	Content      []byte
	CreatedAt    time.Time
	UpdatedAt    *time.Time
	DeletedAt    *time.Time
	IsDeleted    bool
}
