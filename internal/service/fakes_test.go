package service

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"docchat-be/internal/config"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/contract"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/llm"
)

func testLimits() config.LimitsConfig {
	return config.LimitsConfig{
		RateLimitPerHour:    100,
		MaxDocuments:        3,
		MaxFileSizeMB:       1,
		TopK:                4,
		SimilarityThreshold: 0.35,
	}
}

// In-memory doubles for the repository layer. Specifications are not
// interpreted; tests preload exactly the rows a lookup should find.

type fakeUow struct {
	documents *fakeDocumentRepo
	embedding *fakeEmbeddingRepo
	sessions  *fakeSessionRepo
	messages  *fakeMessageRepo
	settings  *fakeSettingsRepo
	notifs    *fakeNotificationRepo

	begun      int
	committed  int
	rolledBack int
}

func newFakeUow() *fakeUow {
	return &fakeUow{
		documents: &fakeDocumentRepo{rows: map[uuid.UUID]*entity.Document{}},
		embedding: &fakeEmbeddingRepo{},
		sessions:  &fakeSessionRepo{},
		messages:  &fakeMessageRepo{},
		settings:  &fakeSettingsRepo{},
		notifs:    &fakeNotificationRepo{},
	}
}

func (u *fakeUow) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return u }

func (u *fakeUow) Begin(ctx context.Context) error { u.begun++; return nil }
func (u *fakeUow) Commit() error                   { u.committed++; return nil }
func (u *fakeUow) Rollback() error                 { u.rolledBack++; return nil }

func (u *fakeUow) DocumentRepository() contract.DocumentRepository           { return u.documents }
func (u *fakeUow) EmbeddingRepository() contract.EmbeddingRepository         { return u.embedding }
func (u *fakeUow) ChatSessionRepository() contract.ChatSessionRepository     { return u.sessions }
func (u *fakeUow) ChatMessageRepository() contract.ChatMessageRepository     { return u.messages }
func (u *fakeUow) TenantSettingsRepository() contract.TenantSettingsRepository {
	return u.settings
}
func (u *fakeUow) NotificationRepository() contract.NotificationRepository { return u.notifs }

type fakeDocumentRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*entity.Document

	findErr error
}

func (r *fakeDocumentRepo) Create(ctx context.Context, d *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[d.Id] = d
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, d *entity.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[d.Id] = d
	return nil
}

func (r *fakeDocumentRepo) UpdateStatusIf(ctx context.Context, id uuid.UUID, fromStatus, toStatus string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.rows[id]
	if !ok || d.Status != fromStatus {
		return false, nil
	}
	d.Status = toStatus
	return true, nil
}

func (r *fakeDocumentRepo) SetStatus(ctx context.Context, id uuid.UUID, status, errorMessage string, chunkCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if d, ok := r.rows[id]; ok {
		d.Status = status
		d.ErrorMessage = errorMessage
		d.ChunkCount = chunkCount
	}
	return nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rows, id)
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	if r.findErr != nil {
		return nil, r.findErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, d := range r.rows {
		return d, nil
	}
	return nil, nil
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*entity.Document, 0, len(r.rows))
	for _, d := range r.rows {
		out = append(out, d)
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

type fakeEmbeddingRepo struct {
	mu      sync.Mutex
	created []*entity.Embedding
	deleted []uuid.UUID

	chunks    []*entity.RetrievedChunk
	searchErr error
	createErr error
}

func (r *fakeEmbeddingRepo) CreateBulk(ctx context.Context, embeddings []*entity.Embedding) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, embeddings...)
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deleted = append(r.deleted, documentId)
	return nil
}

func (r *fakeEmbeddingRepo) DeleteByDocumentIdUnscoped(ctx context.Context, documentId uuid.UUID) error {
	return r.DeleteByDocumentId(ctx, documentId)
}

func (r *fakeEmbeddingRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Embedding, error) {
	return r.created, nil
}

func (r *fakeEmbeddingRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.created)), nil
}

func (r *fakeEmbeddingRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, tenantId uuid.UUID, threshold float64) ([]*entity.RetrievedChunk, error) {
	if r.searchErr != nil {
		return nil, r.searchErr
	}
	return r.chunks, nil
}

type fakeSessionRepo struct {
	mu   sync.Mutex
	rows []*entity.ChatSession
}

func (r *fakeSessionRepo) Create(ctx context.Context, s *entity.ChatSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, s)
	return nil
}

func (r *fakeSessionRepo) Update(ctx context.Context, s *entity.ChatSession) error { return nil }

func (r *fakeSessionRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.rows[:0]
	for _, s := range r.rows {
		if s.Id != id {
			kept = append(kept, s)
		}
	}
	r.rows = kept
	return nil
}

func (r *fakeSessionRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.ChatSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.rows) == 0 {
		return nil, nil
	}
	return r.rows[0], nil
}

func (r *fakeSessionRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatSession, error) {
	return r.rows, nil
}

func (r *fakeSessionRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.rows)), nil
}

type fakeMessageRepo struct {
	mu        sync.Mutex
	rows      []*entity.ChatMessage
	lastSpecs []specification.Specification
}

func (r *fakeMessageRepo) Create(ctx context.Context, m *entity.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, m)
	return nil
}

func (r *fakeMessageRepo) DeleteByChatSessionId(ctx context.Context, sessionId uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = nil
	return nil
}

func (r *fakeMessageRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.ChatMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastSpecs = specs
	out := make([]*entity.ChatMessage, len(r.rows))
	copy(out, r.rows)
	return out, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.rows)), nil
}

type fakeSettingsRepo struct {
	row *entity.TenantSettings
}

func (r *fakeSettingsRepo) Create(ctx context.Context, s *entity.TenantSettings) error {
	r.row = s
	return nil
}

func (r *fakeSettingsRepo) Update(ctx context.Context, s *entity.TenantSettings) error {
	r.row = s
	return nil
}

func (r *fakeSettingsRepo) FindByTenantId(ctx context.Context, tenantId uuid.UUID) (*entity.TenantSettings, error) {
	return r.row, nil
}

type fakeNotificationRepo struct {
	mu   sync.Mutex
	rows []*model.Notification
}

func (r *fakeNotificationRepo) Create(ctx context.Context, n *model.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, n)
	return nil
}

func (r *fakeNotificationRepo) FindByTenantId(ctx context.Context, tenantId uuid.UUID, limit, offset int) ([]model.Notification, int64, error) {
	out := make([]model.Notification, 0, len(r.rows))
	for _, n := range r.rows {
		out = append(out, *n)
	}
	return out, int64(len(out)), nil
}

func (r *fakeNotificationRepo) UnreadCount(ctx context.Context, tenantId uuid.UUID) (int64, error) {
	var unread int64
	for _, n := range r.rows {
		if !n.IsRead {
			unread++
		}
	}
	return unread, nil
}

func (r *fakeNotificationRepo) MarkAsRead(ctx context.Context, id uuid.UUID) error { return nil }

func (r *fakeNotificationRepo) MarkAllAsRead(ctx context.Context, tenantId uuid.UUID) error {
	return nil
}

// Other doubles.

type fakePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *fakePublisher) Publish(ctx context.Context, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payloads = append(p.payloads, payload)
	return nil
}

type fakeLimiter struct {
	allowed   bool
	remaining int
	calls     int
}

func (l *fakeLimiter) Allow(ctx context.Context, tenantID string, limit int) (bool, int, error) {
	l.calls++
	return l.allowed, l.remaining, nil
}

type statusCall struct {
	tenantID   uuid.UUID
	documentID uuid.UUID
	status     string
	message    string
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []statusCall
}

func (n *fakeNotifier) SendDocumentStatus(tenantID, documentID uuid.UUID, status, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, statusCall{tenantID, documentID, status, message})
}

func (n *fakeNotifier) statuses() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.calls))
	for _, c := range n.calls {
		out = append(out, c.status)
	}
	return out
}

type fakeLLM struct {
	response string
	err      error
}

func (f *fakeLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) ChatStream(ctx context.Context, history []llm.Message, onDelta func(delta string) error, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if err := onDelta(f.response); err != nil {
		return "", err
	}
	return f.response, nil
}

func (f *fakeLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeEmbedder struct {
	// failures is how many EmbedBatch calls fail with failErr before
	// the fake starts succeeding.
	failures int
	failErr  error
	calls    int
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return nil, f.failErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = make([]float32, 768)
		out[i][0] = 1
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.failures > 0 {
		f.failures--
		return nil, f.failErr
	}
	v := make([]float32, 768)
	v[0] = 1
	return v, nil
}
