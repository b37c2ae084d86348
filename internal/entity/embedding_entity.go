package entity

import (
	"time"

	"github.com/google/uuid"
)

type Embedding struct {
	Id         uuid.UUID
	TenantId   uuid.UUID
	DocumentId uuid.UUID
	Content    string
	Values     []float32
	ChunkIndex int
	CharStart  int
	CharEnd    int
	CreatedAt  time.Time
}

// RetrievedChunk is an embedding row returned from similarity search,
// joined with its document filename and the cosine similarity score.
type RetrievedChunk struct {
	Id         uuid.UUID
	DocumentId uuid.UUID
	Filename   string
	Content    string
	ChunkIndex int
	Similarity float64
}
