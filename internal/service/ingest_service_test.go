package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/memory"
	"docchat-be/pkg/embedding"
)

type ingestFixture struct {
	service  *ingestService
	uow      *fakeUow
	embedder *fakeEmbedder
	notifier *fakeNotifier
	guard    *memory.Guard
}

func newIngestFixture(t *testing.T, embedder *fakeEmbedder) *ingestFixture {
	t.Helper()

	uow := newFakeUow()
	guard := memory.NewGuard(time.Minute)
	notifier := &fakeNotifier{}
	tenantService := NewTenantService(uow, memory.NewSettingsCache(), testLimits())
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})

	svc := NewIngestService(
		pubSub,
		"INGEST_DOCUMENT",
		uow,
		embedder,
		tenantService,
		guard,
		nil, // event bus optional
		notifier,
		nil, // no mailer in tests
	)

	return &ingestFixture{
		service:  svc.(*ingestService),
		uow:      uow,
		embedder: embedder,
		notifier: notifier,
		guard:    guard,
	}
}

func (f *ingestFixture) seedDocument(content string) *entity.Document {
	doc := &entity.Document{
		Id:       uuid.New(),
		TenantId: uuid.New(),
		Filename: "notes.txt",
		FileType: "Text",
		Status:   model.DocumentStatusPending,
		Content:  []byte(content),
	}
	f.uow.documents.rows[doc.Id] = doc
	return doc
}

func ingestMessage(t *testing.T, doc *entity.Document) *message.Message {
	t.Helper()
	payload, err := json.Marshal(dto.PublishIngestDocumentMessage{
		DocumentId: doc.Id,
		TenantId:   doc.TenantId,
	})
	require.NoError(t, err)
	return message.NewMessage(watermill.NewUUID(), payload)
}

func TestIngestHappyPath(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := f.seedDocument("The office is open weekdays from nine to five.")

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
	assert.Equal(t, 1, doc.ChunkCount)
	assert.Empty(t, doc.ErrorMessage)

	// Old chunks replaced and new ones written inside the transaction.
	assert.Contains(t, f.uow.embedding.deleted, doc.Id)
	require.Len(t, f.uow.embedding.created, 1)
	assert.Equal(t, doc.TenantId, f.uow.embedding.created[0].TenantId)
	assert.Equal(t, 1, f.uow.committed)

	assert.Equal(t, []string{model.DocumentStatusProcessing, model.DocumentStatusCompleted}, f.notifier.statuses())
	assert.False(t, f.guard.Held("ingest:"+doc.Id.String()))
}

func TestIngestExtractionFailureIsTerminal(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := f.seedDocument("raw pdf bytes")
	doc.FileType = "PDF" // no extraction backend configured

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	assert.Equal(t, model.DocumentStatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "extraction service not configured")
	assert.Empty(t, f.uow.embedding.created)
	// Embedding was never attempted.
	assert.Equal(t, 0, f.embedder.calls)
}

func TestIngestEmptyDocumentFails(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := f.seedDocument("   \n\n  ")

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	assert.Equal(t, model.DocumentStatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "no extractable text")
}

func TestIngestRepairsInvalidUTF8Text(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	// Latin-1 encoded text file; 0xe9 is not valid UTF-8.
	doc := f.seedDocument("caf\xe9 menu available daily")

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	require.Equal(t, model.DocumentStatusCompleted, doc.Status)
	require.Len(t, f.uow.embedding.created, 1)
	chunk := f.uow.embedding.created[0].Content
	assert.True(t, utf8.ValidString(chunk))
	assert.Contains(t, chunk, "menu available daily")
}

func TestIngestRetriesTransientEmbeddingFailure(t *testing.T) {
	embedder := &fakeEmbedder{
		failures: 2,
		failErr:  &embedding.ServiceError{Provider: "ollama", Err: errors.New("connection refused")},
	}
	f := newIngestFixture(t, embedder)
	doc := f.seedDocument("Some content worth indexing.")

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	// Two failures then success on the third attempt.
	assert.Equal(t, 3, embedder.calls)
	assert.Equal(t, model.DocumentStatusCompleted, doc.Status)
}

func TestIngestFailsAfterRetriesExhausted(t *testing.T) {
	embedder := &fakeEmbedder{
		failures: embedMaxAttempts,
		failErr:  &embedding.ServiceError{Provider: "ollama", Err: errors.New("connection refused")},
	}
	f := newIngestFixture(t, embedder)
	doc := f.seedDocument("Some content worth indexing.")

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	assert.Equal(t, embedMaxAttempts, embedder.calls)
	assert.Equal(t, model.DocumentStatusFailed, doc.Status)
	assert.Contains(t, doc.ErrorMessage, "embedding service unavailable")
	// No partial chunks persisted.
	assert.Empty(t, f.uow.embedding.created)
	assert.Equal(t, 0, f.uow.committed)
}

func TestIngestSkipsNonPendingDocument(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := f.seedDocument("content")
	doc.Status = model.DocumentStatusProcessing

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	// Still processing, nothing embedded, guard released.
	assert.Equal(t, model.DocumentStatusProcessing, doc.Status)
	assert.Equal(t, 0, f.embedder.calls)
	assert.False(t, f.guard.Held("ingest:"+doc.Id.String()))
}

func TestIngestDuplicateMessageLosesGuard(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := f.seedDocument("content")
	require.True(t, f.guard.Acquire("ingest:"+doc.Id.String()))

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	assert.Equal(t, model.DocumentStatusPending, doc.Status)
	assert.Equal(t, 0, f.embedder.calls)
	// The loser must not release the holder's guard.
	assert.True(t, f.guard.Held("ingest:"+doc.Id.String()))
}

func TestIngestMissingDocumentAcked(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := &entity.Document{Id: uuid.New(), TenantId: uuid.New()}

	// Not seeded, the row does not exist.
	f.service.processMessage(context.Background(), ingestMessage(t, doc))
	assert.Equal(t, 0, f.embedder.calls)
}

func TestIngestChunkOffsetsPreserved(t *testing.T) {
	f := newIngestFixture(t, &fakeEmbedder{})
	doc := f.seedDocument(strings.Repeat("All work and no play makes for dull documentation. ", 60))

	f.service.processMessage(context.Background(), ingestMessage(t, doc))

	require.Equal(t, model.DocumentStatusCompleted, doc.Status)
	require.Greater(t, len(f.uow.embedding.created), 1)
	for i, emb := range f.uow.embedding.created {
		assert.Equal(t, i, emb.ChunkIndex)
		assert.Less(t, emb.CharStart, emb.CharEnd)
	}
}
