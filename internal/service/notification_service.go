package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"docchat-be/internal/dto"
	"docchat-be/internal/model"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/pkg/mailer"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/events"
	pktNats "docchat-be/pkg/nats"
)

// NotificationDelivery defines how to push real-time updates.
// Typically implemented by the WebSocket Hub.
type NotificationDelivery interface {
	SendNotification(tenantID uuid.UUID, notification model.Notification)
}

type NotificationService struct {
	uowFactory    unitofwork.RepositoryFactory
	subscriber    *pktNats.Subscriber
	delivery      NotificationDelivery
	tenantService ITenantService
	emailService  mailer.IEmailService
	logger        logger.ILogger
}

func NewNotificationService(
	uowFactory unitofwork.RepositoryFactory,
	sub *pktNats.Subscriber,
	delivery NotificationDelivery,
	tenantService ITenantService,
	emailService mailer.IEmailService,
	log logger.ILogger,
) *NotificationService {
	return &NotificationService{
		uowFactory:    uowFactory,
		subscriber:    sub,
		delivery:      delivery,
		tenantService: tenantService,
		emailService:  emailService,
		logger:        log,
	}
}

// Start begins listening to the event bus.
func (s *NotificationService) Start() {
	err := s.subscriber.Subscribe("events.>", "notif-service-worker", s.handleEvent)
	if err != nil {
		s.logger.Error("NotificationService", "Failed to start notification subscriber", map[string]interface{}{"error": err})
		return
	}
	s.logger.Info("NotificationService", "Notification service started, listening to events.>", nil)
}

func (s *NotificationService) handleEvent(ctx context.Context, event events.Event) error {
	// NATS subjects carry the stream prefix, strip it back to the code.
	typeCode := strings.TrimPrefix(event.EventType(), "events.")
	payload := event.Payload()

	tenantRaw, _ := payload["tenant_id"].(string)
	tenantId, err := uuid.Parse(tenantRaw)
	if err != nil {
		s.logger.Warn("NotificationService", fmt.Sprintf("Event %s has no valid tenant_id", typeCode), nil)
		return nil
	}

	var title, messageText string
	switch typeCode {
	case events.TypeDocumentCompleted:
		chunkCount, _ := payload["chunk_count"].(float64)
		title = "Document Ready"
		messageText = fmt.Sprintf("Your document was processed into %d searchable chunks.", int(chunkCount))
		s.sendCompletionEmail(ctx, tenantId, payload, int(chunkCount))
	case events.TypeDocumentFailed:
		reason, _ := payload["reason"].(string)
		title = "Document Processing Failed"
		messageText = fmt.Sprintf("Your document could not be processed: %s", reason)
	default:
		// Chat turns and unknown codes are analytics, not notifications.
		return nil
	}

	metaJSON, _ := json.Marshal(payload)
	notification := model.Notification{
		Id:        uuid.New(),
		TenantId:  tenantId,
		TypeCode:  typeCode,
		Title:     title,
		Message:   messageText,
		Metadata:  datatypes.JSON(metaJSON),
		CreatedAt: time.Now(),
		IsRead:    false,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.NotificationRepository().Create(ctx, &notification); err != nil {
		s.logger.Error("NotificationService", "Failed to persist notification", map[string]interface{}{"error": err.Error()})
		return err
	}

	if s.delivery != nil {
		s.delivery.SendNotification(tenantId, notification)
	}

	return nil
}

func (s *NotificationService) sendCompletionEmail(ctx context.Context, tenantId uuid.UUID, payload map[string]interface{}, chunkCount int) {
	if s.emailService == nil || s.tenantService == nil {
		return
	}
	settings, err := s.tenantService.Resolve(ctx, tenantId)
	if err != nil || settings.ContactEmail == "" {
		return
	}
	filename, _ := payload["filename"].(string)
	if filename == "" {
		documentId, _ := payload["document_id"].(string)
		filename = documentId
	}
	go func() {
		if err := s.emailService.SendIngestionCompleted(settings.ContactEmail, filename, chunkCount); err != nil {
			log.Printf("[WARN] Failed to send completion email: %v", err)
		}
	}()
}

func (s *NotificationService) List(ctx context.Context, tenantId uuid.UUID, limit, offset int) (*dto.NotificationResponse, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	notifications, total, err := uow.NotificationRepository().FindByTenantId(ctx, tenantId, limit, offset)
	if err != nil {
		return nil, err
	}
	unread, err := uow.NotificationRepository().UnreadCount(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	return &dto.NotificationResponse{
		Notifications: notifications,
		Total:         total,
		UnreadCount:   unread,
	}, nil
}

func (s *NotificationService) MarkRead(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().MarkAsRead(ctx, id)
}

func (s *NotificationService) MarkAllRead(ctx context.Context, tenantId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	return uow.NotificationRepository().MarkAllAsRead(ctx, tenantId)
}
