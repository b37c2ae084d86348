package service

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/memory"
)

type documentFixture struct {
	service   IDocumentService
	uow       *fakeUow
	publisher *fakePublisher
	guard     *memory.Guard
}

func newDocumentFixture(t *testing.T) *documentFixture {
	t.Helper()

	uow := newFakeUow()
	publisher := &fakePublisher{}
	guard := memory.NewGuard(time.Minute)
	tenantService := NewTenantService(uow, memory.NewSettingsCache(), testLimits())

	return &documentFixture{
		service:   NewDocumentService(uow, publisher, tenantService, guard),
		uow:       uow,
		publisher: publisher,
		guard:     guard,
	}
}

func TestUploadCreatesPendingDocumentAndEnqueues(t *testing.T) {
	f := newDocumentFixture(t)
	tenantId := uuid.New()

	res, err := f.service.Upload(context.Background(), tenantId, &dto.UploadDocumentRequest{
		Filename: "faq.txt",
		Content:  []byte("Q: when are you open?\nA: 9 to 5."),
	})
	require.NoError(t, err)

	assert.Equal(t, model.DocumentStatusPending, res.Status)
	assert.Equal(t, "Text", res.FileType)

	doc := f.uow.documents.rows[res.Id]
	require.NotNil(t, doc)
	assert.Equal(t, tenantId, doc.TenantId)

	require.Len(t, f.publisher.payloads, 1)
	var msg dto.PublishIngestDocumentMessage
	require.NoError(t, json.Unmarshal(f.publisher.payloads[0], &msg))
	assert.Equal(t, res.Id, msg.DocumentId)
	assert.Equal(t, tenantId, msg.TenantId)
}

func TestUploadPreservesRawBytes(t *testing.T) {
	f := newDocumentFixture(t)
	tenantId := uuid.New()

	// Binary and non-UTF-8 uploads must survive persistence unchanged;
	// the ingest worker decides later whether they are extractable.
	cases := []struct {
		filename string
		content  []byte
	}{
		{"doc.pdf", []byte("%PDF-1.4\x00\x00binary")},
		{"menu.txt", []byte("caf\xe9 menu")},
	}

	for _, tc := range cases {
		res, err := f.service.Upload(context.Background(), tenantId, &dto.UploadDocumentRequest{
			Filename: tc.filename,
			Content:  tc.content,
		})
		require.NoError(t, err, tc.filename)

		doc := f.uow.documents.rows[res.Id]
		require.NotNil(t, doc)
		assert.Equal(t, tc.content, doc.Content, tc.filename)
	}
}

func TestUploadRejectsUnsupportedExtension(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.service.Upload(context.Background(), uuid.New(), &dto.UploadDocumentRequest{
		Filename: "report.docx",
		Content:  []byte("content"),
	})
	assert.ErrorIs(t, err, dto.ErrUnsupportedFile)
	assert.Empty(t, f.publisher.payloads)
}

func TestUploadRejectsOversizedFile(t *testing.T) {
	f := newDocumentFixture(t)

	// Limit in the fixture is 1 MB.
	big := bytes.Repeat([]byte("a"), 2*1024*1024)
	_, err := f.service.Upload(context.Background(), uuid.New(), &dto.UploadDocumentRequest{
		Filename: "big.txt",
		Content:  big,
	})
	assert.ErrorIs(t, err, dto.ErrFileTooLarge)
}

func TestUploadEnforcesDocumentQuota(t *testing.T) {
	f := newDocumentFixture(t)
	tenantId := uuid.New()

	// Fixture quota is 3 documents.
	for i := 0; i < 3; i++ {
		id := uuid.New()
		f.uow.documents.rows[id] = &entity.Document{Id: id, TenantId: tenantId}
	}

	_, err := f.service.Upload(context.Background(), tenantId, &dto.UploadDocumentRequest{
		Filename: "one-too-many.txt",
		Content:  []byte("content"),
	})
	assert.ErrorIs(t, err, dto.ErrQuotaExceeded)
}

func TestDeleteRemovesEmbeddingsWithDocument(t *testing.T) {
	f := newDocumentFixture(t)
	tenantId := uuid.New()
	id := uuid.New()
	f.uow.documents.rows[id] = &entity.Document{Id: id, TenantId: tenantId, Status: model.DocumentStatusCompleted}

	_, err := f.service.Delete(context.Background(), tenantId, id)
	require.NoError(t, err)

	assert.NotContains(t, f.uow.documents.rows, id)
	assert.Contains(t, f.uow.embedding.deleted, id)
	assert.Equal(t, 1, f.uow.committed)
}

func TestShowMissingDocument(t *testing.T) {
	f := newDocumentFixture(t)

	_, err := f.service.Show(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, dto.ErrNotFound)
}

func TestReprocessResetsStatusAndEnqueues(t *testing.T) {
	f := newDocumentFixture(t)
	tenantId := uuid.New()
	id := uuid.New()
	f.uow.documents.rows[id] = &entity.Document{
		Id:       id,
		TenantId: tenantId,
		Status:   model.DocumentStatusFailed,
	}

	res, err := f.service.Reprocess(context.Background(), tenantId, id)
	require.NoError(t, err)

	assert.Equal(t, model.DocumentStatusPending, res.Status)
	assert.Equal(t, model.DocumentStatusPending, f.uow.documents.rows[id].Status)
	assert.Len(t, f.publisher.payloads, 1)
}

func TestReprocessBusyDocument(t *testing.T) {
	f := newDocumentFixture(t)
	tenantId := uuid.New()
	id := uuid.New()
	f.uow.documents.rows[id] = &entity.Document{
		Id:       id,
		TenantId: tenantId,
		Status:   model.DocumentStatusCompleted,
	}
	require.True(t, f.guard.Acquire("ingest:"+id.String()))

	_, err := f.service.Reprocess(context.Background(), tenantId, id)
	assert.ErrorIs(t, err, dto.ErrDocumentBusy)
}
