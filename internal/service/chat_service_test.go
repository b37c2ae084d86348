package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/pkg/llm"
	"docchat-be/pkg/rag/answer"
	"docchat-be/pkg/rag/retrieve"
)

type chatFixture struct {
	service IChatService
	uow     *fakeUow
	limiter *fakeLimiter
	guard   *memory.Guard
}

func newChatFixture(t *testing.T, provider *fakeLLM, chunks []*entity.RetrievedChunk) *chatFixture {
	t.Helper()

	uow := newFakeUow()
	uow.embedding.chunks = chunks

	limiter := &fakeLimiter{allowed: true, remaining: 99}
	guard := memory.NewGuard(time.Minute)

	tenantService := NewTenantService(uow, memory.NewSettingsCache(), testLimits())
	retriever := retrieve.NewRetriever(&fakeEmbedder{}, uow.embedding)
	synthesizer := answer.NewSynthesizer(provider)

	svc := NewChatService(uow, tenantService, retriever, synthesizer, limiter, guard, nil)

	return &chatFixture{
		service: svc,
		uow:     uow,
		limiter: limiter,
		guard:   guard,
	}
}

func testChunks() []*entity.RetrievedChunk {
	return []*entity.RetrievedChunk{
		{
			Id:         uuid.New(),
			DocumentId: uuid.New(),
			Filename:   "handbook.txt",
			Content:    "Our office is open 9 to 5 on weekdays.",
			ChunkIndex: 0,
			Similarity: 0.91,
		},
	}
}

func TestChatQueryPersistsUserAndAssistantTurns(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "We are open 9 to 5."}, testChunks())
	tenantId := uuid.New()

	res, err := f.service.Query(context.Background(), tenantId, &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "When are you open?",
	})
	require.NoError(t, err)

	assert.Equal(t, "We are open 9 to 5.", res.Answer)
	assert.Len(t, res.Sources, 1)
	assert.Equal(t, "handbook.txt", res.Sources[0].Filename)
	require.NotNil(t, res.RateLimit)
	assert.Equal(t, 99, res.RateLimit.Remaining)

	require.Len(t, f.uow.messages.rows, 2)
	assert.Equal(t, model.RoleUser, f.uow.messages.rows[0].Role)
	assert.Equal(t, "When are you open?", f.uow.messages.rows[0].Content)
	assert.Equal(t, model.RoleAssistant, f.uow.messages.rows[1].Role)

	// Session created from the first message.
	require.Len(t, f.uow.sessions.rows, 1)
	assert.Equal(t, "visitor-1", f.uow.sessions.rows[0].SessionKey)
	assert.Equal(t, tenantId, f.uow.sessions.rows[0].TenantId)
}

func TestChatQueryRateLimited(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "unused"}, testChunks())
	f.limiter.allowed = false

	_, err := f.service.Query(context.Background(), uuid.New(), &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "hello",
	})
	assert.ErrorIs(t, err, dto.ErrRateLimited)
	assert.Empty(t, f.uow.messages.rows)
}

func TestChatQuerySessionBusy(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "unused"}, testChunks())
	tenantId := uuid.New()

	// Simulate an in-flight turn holding the session.
	require.True(t, f.guard.Acquire("session:"+tenantId.String()+":visitor-1"))

	_, err := f.service.Query(context.Background(), tenantId, &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "hello",
	})
	assert.ErrorIs(t, err, dto.ErrSessionBusy)
}

func TestChatQueryReleasesGuardAfterTurn(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "answer"}, testChunks())
	tenantId := uuid.New()
	req := &dto.ChatQueryRequest{SessionKey: "visitor-1", Message: "hello"}

	_, err := f.service.Query(context.Background(), tenantId, req)
	require.NoError(t, err)

	_, err = f.service.Query(context.Background(), tenantId, req)
	assert.NoError(t, err, "second turn should not see a busy session")
}

func TestChatQueryGenerationErrorPersistsErrorTurn(t *testing.T) {
	genErr := &llm.GenerationError{Provider: "ollama", Err: errors.New("boom")}
	f := newChatFixture(t, &fakeLLM{err: genErr}, testChunks())

	_, err := f.service.Query(context.Background(), uuid.New(), &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "hello",
	})
	require.Error(t, err)

	var ge *llm.GenerationError
	assert.ErrorAs(t, err, &ge)

	// The user turn is kept and the failure is recorded as an error
	// turn; no partial answer is stored.
	require.Len(t, f.uow.messages.rows, 2)
	assert.Equal(t, model.RoleUser, f.uow.messages.rows[0].Role)
	assert.Equal(t, model.RoleError, f.uow.messages.rows[1].Role)
}

func TestChatQueryNoContextSkipsModel(t *testing.T) {
	genErr := &llm.GenerationError{Provider: "ollama", Err: errors.New("should not be called")}
	f := newChatFixture(t, &fakeLLM{err: genErr}, nil)

	res, err := f.service.Query(context.Background(), uuid.New(), &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "anything indexed?",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "don't have information")
	assert.Empty(t, res.Sources)
}

func TestChatQueryStreamEmitsChunksAndComplete(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "streamed answer"}, testChunks())

	var events []dto.StreamEvent
	err := f.service.QueryStream(context.Background(), uuid.New(), &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "hello",
	}, func(event dto.StreamEvent) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, "chunk", events[0].Type)

	last := events[len(events)-1]
	assert.Equal(t, "complete", last.Type)
	assert.Equal(t, "streamed answer", last.Answer)
	assert.Len(t, last.Sources, 1)

	require.Len(t, f.uow.messages.rows, 2)
	assert.Equal(t, model.RoleAssistant, f.uow.messages.rows[1].Role)
	assert.Equal(t, "streamed answer", f.uow.messages.rows[1].Content)
}

func TestChatQueryStreamGenerationErrorEmitsErrorFrame(t *testing.T) {
	genErr := &llm.GenerationError{Provider: "ollama", Err: errors.New("boom")}
	f := newChatFixture(t, &fakeLLM{err: genErr}, testChunks())

	var events []dto.StreamEvent
	err := f.service.QueryStream(context.Background(), uuid.New(), &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "hello",
	}, func(event dto.StreamEvent) error {
		events = append(events, event)
		return nil
	})
	require.NoError(t, err)

	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, "error", last.Type)
	assert.Equal(t, "answer generation failed", last.Error)

	require.Len(t, f.uow.messages.rows, 2)
	assert.Equal(t, model.RoleError, f.uow.messages.rows[1].Role)
}

func TestChatHistoryExcludesErrorTurnsFromModelInput(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "second answer"}, testChunks())
	tenantId := uuid.New()

	session := &entity.ChatSession{
		Id:         uuid.New(),
		TenantId:   tenantId,
		SessionKey: "visitor-1",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.uow.sessions.Create(context.Background(), session))
	require.NoError(t, f.uow.messages.Create(context.Background(), &entity.ChatMessage{
		Id: uuid.New(), ChatSessionId: session.Id, Role: model.RoleError, Content: "answer generation failed",
	}))

	svc := f.service.(*chatService)
	history, err := svc.loadHistory(context.Background(), session.Id)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestChatHistoryCapsReplayedTurns(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "unused"}, testChunks())

	session := &entity.ChatSession{
		Id:         uuid.New(),
		TenantId:   uuid.New(),
		SessionKey: "visitor-1",
		CreatedAt:  time.Now(),
	}
	require.NoError(t, f.uow.sessions.Create(context.Background(), session))

	base := time.Now().Add(-time.Hour)
	for i := 0; i < maxHistoryMessages+6; i++ {
		role := model.RoleUser
		if i%2 == 1 {
			role = model.RoleAssistant
		}
		require.NoError(t, f.uow.messages.Create(context.Background(), &entity.ChatMessage{
			Id:            uuid.New(),
			ChatSessionId: session.Id,
			Role:          role,
			Content:       fmt.Sprintf("turn %d", i),
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		}))
	}

	svc := f.service.(*chatService)
	history, err := svc.loadHistory(context.Background(), session.Id)
	require.NoError(t, err)

	// Only the newest turns are replayed, in chronological order.
	require.Len(t, history, maxHistoryMessages)
	assert.Equal(t, "turn 6", history[0].Content)
	assert.Equal(t, fmt.Sprintf("turn %d", maxHistoryMessages+5), history[len(history)-1].Content)

	// The fetch itself is bounded, a long session must not be read whole.
	var limited bool
	for _, spec := range f.uow.messages.lastSpecs {
		if p, ok := spec.(specification.Pagination); ok {
			limited = p.Limit > 0 && p.Limit <= maxHistoryMessages*2
		}
	}
	assert.True(t, limited, "history query should carry a row limit")
}

func TestDeleteSessionRemovesMessages(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{response: "answer"}, testChunks())
	tenantId := uuid.New()

	_, err := f.service.Query(context.Background(), tenantId, &dto.ChatQueryRequest{
		SessionKey: "visitor-1",
		Message:    "hello",
	})
	require.NoError(t, err)

	require.NoError(t, f.service.DeleteSession(context.Background(), tenantId, "visitor-1"))
	assert.Empty(t, f.uow.messages.rows)
	assert.Empty(t, f.uow.sessions.rows)
}

func TestDeleteSessionNotFound(t *testing.T) {
	f := newChatFixture(t, &fakeLLM{}, nil)
	err := f.service.DeleteSession(context.Background(), uuid.New(), "missing")
	assert.ErrorIs(t, err, dto.ErrNotFound)
}
