package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/events"
	"docchat-be/pkg/llm"
	pktNats "docchat-be/pkg/nats"
	"docchat-be/pkg/rag/answer"
	"docchat-be/pkg/rag/retrieve"
)

// RateLimiter checks whether a tenant may run another chat turn.
// Implemented by the Redis fixed-window limiter.
type RateLimiter interface {
	Allow(ctx context.Context, tenantID string, limit int) (bool, int, error)
}

type IChatService interface {
	Query(ctx context.Context, tenantId uuid.UUID, req *dto.ChatQueryRequest) (*dto.ChatQueryResponse, error)
	// QueryStream runs the same turn but forwards answer deltas and the
	// final structured result as stream events. The error frame is
	// emitted through onEvent; the returned error covers pre-stream
	// failures (rate limit, busy session).
	QueryStream(ctx context.Context, tenantId uuid.UUID, req *dto.ChatQueryRequest, onEvent func(dto.StreamEvent) error) error
	ListSessions(ctx context.Context, tenantId uuid.UUID) ([]*dto.SessionResponse, error)
	History(ctx context.Context, tenantId uuid.UUID, sessionKey string) (*dto.ChatHistoryResponse, error)
	DeleteSession(ctx context.Context, tenantId uuid.UUID, sessionKey string) error
}

// maxHistoryMessages bounds how much prior conversation is replayed to
// the model on each turn.
const maxHistoryMessages = 10

const maxSessionTitleLen = 80

type chatService struct {
	uowFactory     unitofwork.RepositoryFactory
	tenantService  ITenantService
	retriever      *retrieve.Retriever
	synthesizer    *answer.Synthesizer
	limiter        RateLimiter
	sessionGuard   *memory.Guard
	eventPublisher *pktNats.Publisher
}

func NewChatService(
	uowFactory unitofwork.RepositoryFactory,
	tenantService ITenantService,
	retriever *retrieve.Retriever,
	synthesizer *answer.Synthesizer,
	limiter RateLimiter,
	sessionGuard *memory.Guard,
	eventPublisher *pktNats.Publisher,
) IChatService {
	return &chatService{
		uowFactory:     uowFactory,
		tenantService:  tenantService,
		retriever:      retriever,
		synthesizer:    synthesizer,
		limiter:        limiter,
		sessionGuard:   sessionGuard,
		eventPublisher: eventPublisher,
	}
}

func (c *chatService) Query(ctx context.Context, tenantId uuid.UUID, req *dto.ChatQueryRequest) (*dto.ChatQueryResponse, error) {
	turn, err := c.beginTurn(ctx, tenantId, req)
	if err != nil {
		return nil, err
	}
	defer turn.release()

	result, err := c.synthesizer.Synthesize(ctx, turn.synthRequest)
	if err != nil {
		c.persistErrorTurn(ctx, turn, err)
		return nil, err
	}

	if err := c.persistTurn(ctx, turn, result); err != nil {
		return nil, err
	}

	c.publishChatTurn(ctx, tenantId, req.SessionKey, len(result.Sources))

	return &dto.ChatQueryResponse{
		SessionKey:  req.SessionKey,
		Answer:      result.Text,
		Sources:     result.Sources,
		ContactInfo: result.ContactInfo,
		Categories:  result.Categories,
		Providers:   result.Providers,
		RateLimit: &dto.RateLimitInfo{
			Limit:     turn.rateLimit,
			Remaining: turn.rateRemaining,
		},
	}, nil
}

func (c *chatService) QueryStream(ctx context.Context, tenantId uuid.UUID, req *dto.ChatQueryRequest, onEvent func(dto.StreamEvent) error) error {
	turn, err := c.beginTurn(ctx, tenantId, req)
	if err != nil {
		return err
	}
	defer turn.release()

	result, err := c.synthesizer.SynthesizeStream(ctx, turn.synthRequest, func(delta string) error {
		return onEvent(dto.StreamEvent{Type: "chunk", Content: delta})
	})
	if err != nil {
		c.persistErrorTurn(ctx, turn, err)
		// The stream already started, so the failure travels in-band.
		return onEvent(dto.StreamEvent{Type: "error", Error: publicStreamError(err)})
	}

	if err := c.persistTurn(ctx, turn, result); err != nil {
		return onEvent(dto.StreamEvent{Type: "error", Error: "failed to save conversation"})
	}

	c.publishChatTurn(ctx, tenantId, req.SessionKey, len(result.Sources))

	return onEvent(dto.StreamEvent{
		Type:        "complete",
		SessionKey:  req.SessionKey,
		Answer:      result.Text,
		Sources:     result.Sources,
		ContactInfo: result.ContactInfo,
		Categories:  result.Categories,
		Providers:   result.Providers,
	})
}

// chatTurn holds everything prepared before synthesis starts.
type chatTurn struct {
	session       *entity.ChatSession
	query         string
	synthRequest  answer.Request
	rateLimit     int
	rateRemaining int
	release       func()
}

// beginTurn enforces the rate limit, serializes the session, loads
// history and runs retrieval. Callers must invoke release when done.
func (c *chatService) beginTurn(ctx context.Context, tenantId uuid.UUID, req *dto.ChatQueryRequest) (*chatTurn, error) {
	if req.SessionKey == "" {
		req.SessionKey = uuid.NewString()
	}

	settings, err := c.tenantService.Resolve(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	allowed, remaining, err := c.limiter.Allow(ctx, tenantId.String(), settings.RateLimitPerHour)
	if err != nil {
		log.Printf("[WARN] Rate limiter unavailable for tenant %s: %v", tenantId, err)
	}
	if !allowed {
		return nil, dto.ErrRateLimited
	}

	guardKey := fmt.Sprintf("session:%s:%s", tenantId, req.SessionKey)
	if !c.sessionGuard.Acquire(guardKey) {
		return nil, dto.ErrSessionBusy
	}
	released := false
	release := func() {
		if !released {
			released = true
			c.sessionGuard.Release(guardKey)
		}
	}

	session, err := c.findOrCreateSession(ctx, tenantId, req)
	if err != nil {
		release()
		return nil, err
	}

	history, err := c.loadHistory(ctx, session.Id)
	if err != nil {
		release()
		return nil, err
	}

	chunks, err := c.retriever.Retrieve(ctx, tenantId, req.Message, settings.TopK, settings.SimilarityThreshold)
	if err != nil {
		release()
		return nil, err
	}

	return &chatTurn{
		session: session,
		query:   req.Message,
		synthRequest: answer.Request{
			AssistantName: settings.AssistantName,
			ContactEmail:  settings.ContactEmail,
			Query:         req.Message,
			History:       history,
			Chunks:        chunks,
		},
		rateLimit:     settings.RateLimitPerHour,
		rateRemaining: remaining,
		release:       release,
	}, nil
}

func (c *chatService) findOrCreateSession(ctx context.Context, tenantId uuid.UUID, req *dto.ChatQueryRequest) (*entity.ChatSession, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByTenantID{TenantID: tenantId},
		specification.BySessionKey{SessionKey: req.SessionKey},
	)
	if err != nil {
		return nil, err
	}
	if session != nil {
		return session, nil
	}

	session = &entity.ChatSession{
		Id:         uuid.New(),
		TenantId:   tenantId,
		SessionKey: req.SessionKey,
		Title:      sessionTitle(req.Message),
		CreatedAt:  time.Now(),
	}
	if err := uow.ChatSessionRepository().Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// loadHistory replays the most recent turns as model messages. Error
// turns stay out of the prompt, the model never sees failed exchanges.
// Only the tail of the session is read; long sessions must not grow
// each turn's query. The fetch is oversized so skipped error turns
// still leave a full window.
func (c *chatService) loadHistory(ctx context.Context, sessionId uuid.UUID) ([]llm.Message, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: sessionId},
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: maxHistoryMessages * 2},
	)
	if err != nil {
		return nil, err
	}

	// Normalize to chronological order regardless of fetch direction.
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	history := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == model.RoleError {
			continue
		}
		history = append(history, llm.Message{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	if len(history) > maxHistoryMessages {
		history = history[len(history)-maxHistoryMessages:]
	}
	return history, nil
}

// persistTurn saves the user message and the assistant answer together.
func (c *chatService) persistTurn(ctx context.Context, turn *chatTurn, result *answer.Result) error {
	assistantMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: turn.session.Id,
		Role:          model.RoleAssistant,
		Content:       result.Text,
		Sources:       result.Sources,
		ContactInfo:   result.ContactInfo,
		Categories:    result.Categories,
		Providers:     result.Providers,
	}
	return c.saveExchange(ctx, turn, assistantMsg)
}

// persistErrorTurn records a failed generation as an error turn. The
// user message is kept; no partial answer is ever stored.
func (c *chatService) persistErrorTurn(ctx context.Context, turn *chatTurn, genErr error) {
	errorMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: turn.session.Id,
		Role:          model.RoleError,
		Content:       publicStreamError(genErr),
	}
	if err := c.saveExchange(ctx, turn, errorMsg); err != nil {
		log.Printf("[ERROR] Failed to persist error turn for session %s: %v", turn.session.Id, err)
	}
}

func (c *chatService) saveExchange(ctx context.Context, turn *chatTurn, reply *entity.ChatMessage) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	now := time.Now()
	userMsg := &entity.ChatMessage{
		Id:            uuid.New(),
		ChatSessionId: turn.session.Id,
		Role:          model.RoleUser,
		Content:       turn.query,
		CreatedAt:     now,
	}
	if err := uow.ChatMessageRepository().Create(ctx, userMsg); err != nil {
		return err
	}

	reply.CreatedAt = now.Add(time.Millisecond)
	if err := uow.ChatMessageRepository().Create(ctx, reply); err != nil {
		return err
	}

	// Bump the session's updated_at so listings sort by last activity.
	if err := uow.ChatSessionRepository().Update(ctx, turn.session); err != nil {
		return err
	}

	return uow.Commit()
}

func (c *chatService) ListSessions(ctx context.Context, tenantId uuid.UUID) ([]*dto.SessionResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	sessions, err := uow.ChatSessionRepository().FindAll(ctx,
		specification.ByTenantID{TenantID: tenantId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.SessionResponse, 0, len(sessions))
	for _, s := range sessions {
		responses = append(responses, &dto.SessionResponse{
			Id:         s.Id,
			SessionKey: s.SessionKey,
			Title:      s.Title,
			CreatedAt:  s.CreatedAt,
			UpdatedAt:  s.UpdatedAt,
		})
	}
	return responses, nil
}

func (c *chatService) History(ctx context.Context, tenantId uuid.UUID, sessionKey string) (*dto.ChatHistoryResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := c.findOwnedSession(ctx, uow, tenantId, sessionKey)
	if err != nil {
		return nil, err
	}

	messages, err := uow.ChatMessageRepository().FindAll(ctx,
		specification.ByChatSessionID{ChatSessionID: session.Id},
		specification.OrderBy{Field: "created_at"},
	)
	if err != nil {
		return nil, err
	}

	history := make([]dto.ChatHistoryMessage, 0, len(messages))
	for _, msg := range messages {
		history = append(history, dto.ChatHistoryMessage{
			Id:          msg.Id,
			Role:        msg.Role,
			Content:     msg.Content,
			Sources:     msg.Sources,
			ContactInfo: msg.ContactInfo,
			Categories:  msg.Categories,
			Providers:   msg.Providers,
			CreatedAt:   msg.CreatedAt,
		})
	}

	return &dto.ChatHistoryResponse{
		SessionKey: sessionKey,
		Messages:   history,
	}, nil
}

func (c *chatService) DeleteSession(ctx context.Context, tenantId uuid.UUID, sessionKey string) error {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	session, err := c.findOwnedSession(ctx, uow, tenantId, sessionKey)
	if err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.ChatMessageRepository().DeleteByChatSessionId(ctx, session.Id); err != nil {
		return err
	}
	if err := uow.ChatSessionRepository().Delete(ctx, session.Id); err != nil {
		return err
	}

	return uow.Commit()
}

func (c *chatService) findOwnedSession(ctx context.Context, uow unitofwork.UnitOfWork, tenantId uuid.UUID, sessionKey string) (*entity.ChatSession, error) {
	session, err := uow.ChatSessionRepository().FindOne(ctx,
		specification.ByTenantID{TenantID: tenantId},
		specification.BySessionKey{SessionKey: sessionKey},
	)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, dto.ErrNotFound
	}
	return session, nil
}

func (c *chatService) publishChatTurn(ctx context.Context, tenantId uuid.UUID, sessionKey string, sourceCount int) {
	if c.eventPublisher == nil {
		return
	}
	evt := events.NewChatTurn(tenantId.String(), sessionKey, sourceCount)
	if err := c.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish chat turn event: %v", err)
	}
}

// publicStreamError keeps provider internals out of client responses.
func publicStreamError(err error) string {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		return "answer generation failed"
	}
	return "chat turn failed"
}

func sessionTitle(message string) string {
	runes := []rune(message)
	if len(runes) <= maxSessionTitleLen {
		return message
	}
	return string(runes[:maxSessionTitleLen-3]) + "..."
}
