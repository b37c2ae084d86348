package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/pkg/mailer"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/events"
	"docchat-be/pkg/extract"
	pktNats "docchat-be/pkg/nats"
	"docchat-be/pkg/textsplit"
)

// StatusNotifier pushes document status changes to connected clients.
// Implemented by the websocket hub.
type StatusNotifier interface {
	SendDocumentStatus(tenantID, documentID uuid.UUID, status, message string)
}

type IIngestService interface {
	Consume(ctx context.Context) error
}

const embedMaxAttempts = 3

type ingestService struct {
	pubSub         *gochannel.GoChannel
	topicName      string
	uowFactory     unitofwork.RepositoryFactory
	provider       embedding.Provider
	tenantService  ITenantService
	guard          *memory.Guard
	eventPublisher *pktNats.Publisher
	notifier       StatusNotifier
	emailService   mailer.IEmailService
}

func NewIngestService(
	pubSub *gochannel.GoChannel,
	topicName string,
	uowFactory unitofwork.RepositoryFactory,
	provider embedding.Provider,
	tenantService ITenantService,
	guard *memory.Guard,
	eventPublisher *pktNats.Publisher,
	notifier StatusNotifier,
	emailService mailer.IEmailService,
) IIngestService {
	return &ingestService{
		pubSub:         pubSub,
		topicName:      topicName,
		uowFactory:     uowFactory,
		provider:       provider,
		tenantService:  tenantService,
		guard:          guard,
		eventPublisher: eventPublisher,
		notifier:       notifier,
		emailService:   emailService,
	}
}

func (cs *ingestService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *ingestService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.PublishIngestDocumentMessage
	err := json.Unmarshal(msg.Payload, &payload)
	if err != nil {
		log.Printf("[ERROR] Failed to unmarshal ingest message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	// One worker at a time per document. A duplicate message finds the
	// key held and is acked; the holder works on the same row content.
	guardKey := "ingest:" + payload.DocumentId.String()
	if !cs.guard.Acquire(guardKey) {
		log.Printf("[INFO] Ingestion already running for document %s, skipping", payload.DocumentId)
		msg.Ack()
		return
	}
	defer cs.guard.Release(guardKey)

	log.Printf("[INFO] Processing document ingestion for DocumentId: %s", payload.DocumentId)

	uow := cs.uowFactory.NewUnitOfWork(ctx)

	document, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: payload.DocumentId})
	if err != nil {
		log.Printf("[ERROR] Failed to get document %s: %v", payload.DocumentId, err)
		msg.Nack() // Nack for retriable errors
		return
	}
	if document == nil {
		log.Printf("[ERROR] Document not found: %s", payload.DocumentId)
		msg.Ack() // Document deleted? Ack.
		return
	}

	// Only a pending document may start processing. Losing this race
	// means another run already owns the document.
	applied, err := uow.DocumentRepository().UpdateStatusIf(ctx, document.Id, model.DocumentStatusPending, model.DocumentStatusProcessing)
	if err != nil {
		log.Printf("[ERROR] Failed to transition document %s to processing: %v", document.Id, err)
		msg.Nack()
		return
	}
	if !applied {
		log.Printf("[INFO] Document %s is not pending (status %s), skipping", document.Id, document.Status)
		msg.Ack()
		return
	}

	cs.notifier.SendDocumentStatus(document.TenantId, document.Id, model.DocumentStatusProcessing, "")

	text, err := extract.Extract(document.Content, document.FileType)
	if err != nil {
		// Extraction failures are terminal, retrying cannot fix them.
		cs.failDocument(ctx, uow, document, err.Error())
		msg.Ack()
		return
	}

	if strings.TrimSpace(text) == "" {
		cs.failDocument(ctx, uow, document, "document contains no extractable text")
		msg.Ack()
		return
	}

	chunks := textsplit.Split(text, textsplit.DefaultConfig())

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Content)
	}

	vectors, err := cs.embedWithRetry(ctx, texts)
	if err != nil {
		cs.failDocument(ctx, uow, document, "embedding service unavailable: "+err.Error())
		msg.Ack()
		return
	}

	embeddings := make([]*entity.Embedding, 0, len(chunks))
	for i, chunk := range chunks {
		embeddings = append(embeddings, &entity.Embedding{
			Id:         uuid.New(),
			TenantId:   document.TenantId,
			DocumentId: document.Id,
			Content:    chunk.Content,
			Values:     vectors[i],
			ChunkIndex: chunk.Index,
			CharStart:  chunk.Start,
			CharEnd:    chunk.End,
			CreatedAt:  time.Now(),
		})
	}

	// Replace old chunks and mark completed atomically. A failure here
	// leaves the previous chunks intact for retrieval.
	err = uow.Begin(ctx)
	if err != nil {
		log.Printf("[ERROR] Failed to begin transaction for document %s: %v", document.Id, err)
		cs.failDocument(ctx, uow, document, "persistence failure: "+err.Error())
		msg.Ack()
		return
	}

	err = cs.persistChunks(ctx, uow, document.Id, embeddings)
	if err != nil {
		uow.Rollback()
		log.Printf("[ERROR] Failed to persist embeddings for document %s: %v", document.Id, err)
		cs.failDocument(ctx, uow, document, "persistence failure: "+err.Error())
		msg.Ack()
		return
	}

	err = uow.Commit()
	if err != nil {
		log.Printf("[ERROR] Failed to commit embeddings for document %s: %v", document.Id, err)
		cs.failDocument(ctx, uow, document, "persistence failure: "+err.Error())
		msg.Ack()
		return
	}

	log.Printf("[SUCCESS] Ingested document %s (%d chunks)", document.Id, len(embeddings))
	cs.completeDocument(ctx, document, len(embeddings))
	msg.Ack()
}

func (cs *ingestService) persistChunks(ctx context.Context, uow unitofwork.UnitOfWork, documentId uuid.UUID, embeddings []*entity.Embedding) error {
	if err := uow.EmbeddingRepository().DeleteByDocumentId(ctx, documentId); err != nil {
		return err
	}
	if err := uow.EmbeddingRepository().CreateBulk(ctx, embeddings); err != nil {
		return err
	}
	return uow.DocumentRepository().SetStatus(ctx, documentId, model.DocumentStatusCompleted, "", len(embeddings))
}

// embedWithRetry retries transient embedding failures with exponential
// backoff. Anything other than a ServiceError fails immediately.
func (cs *ingestService) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var lastErr error
	backoff := time.Second

	for attempt := 1; attempt <= embedMaxAttempts; attempt++ {
		vectors, err := cs.provider.EmbedBatch(ctx, texts, embedding.TaskDocument)
		if err == nil {
			return vectors, nil
		}
		lastErr = err

		var serviceErr *embedding.ServiceError
		if !errors.As(err, &serviceErr) {
			return nil, err
		}

		log.Printf("[WARN] Embedding attempt %d/%d failed: %v", attempt, embedMaxAttempts, err)
		if attempt < embedMaxAttempts {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
	}

	return nil, lastErr
}

func (cs *ingestService) failDocument(ctx context.Context, uow unitofwork.UnitOfWork, document *entity.Document, reason string) {
	log.Printf("[ERROR] Ingestion failed for document %s: %s", document.Id, reason)

	err := uow.DocumentRepository().SetStatus(ctx, document.Id, model.DocumentStatusFailed, reason, 0)
	if err != nil {
		log.Printf("[ERROR] Failed to mark document %s as failed: %v", document.Id, err)
	}

	cs.notifier.SendDocumentStatus(document.TenantId, document.Id, model.DocumentStatusFailed, reason)

	if cs.eventPublisher != nil {
		evt := events.NewDocumentFailed(document.TenantId.String(), document.Id.String(), document.Filename, reason)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish failure event for document %s: %v", document.Id, err)
		}
	}

	cs.sendFailureEmail(ctx, document, reason)
}

func (cs *ingestService) completeDocument(ctx context.Context, document *entity.Document, chunkCount int) {
	cs.notifier.SendDocumentStatus(document.TenantId, document.Id, model.DocumentStatusCompleted, "")

	if cs.eventPublisher != nil {
		evt := events.NewDocumentCompleted(document.TenantId.String(), document.Id.String(), document.Filename, chunkCount)
		if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish completion event for document %s: %v", document.Id, err)
		}
	}
}

// sendFailureEmail notifies the tenant's contact address. Best effort,
// a mail failure never affects the pipeline outcome.
func (cs *ingestService) sendFailureEmail(ctx context.Context, document *entity.Document, reason string) {
	if cs.emailService == nil {
		return
	}
	settings, err := cs.tenantService.Resolve(ctx, document.TenantId)
	if err != nil || settings.ContactEmail == "" {
		return
	}
	go func() {
		if err := cs.emailService.SendIngestionFailed(settings.ContactEmail, document.Filename, reason); err != nil {
			log.Printf("[WARN] Failed to send failure email for document %s: %v", document.Id, err)
		}
	}()
}
