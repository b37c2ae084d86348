package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/model"
	"docchat-be/internal/repository/memory"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"
	"docchat-be/pkg/extract"
)

type IDocumentService interface {
	Upload(ctx context.Context, tenantId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error)
	List(ctx context.Context, tenantId uuid.UUID) (*dto.ListDocumentsResponse, error)
	Show(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error)
	Delete(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.DeleteDocumentResponse, error)
	Reprocess(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.ReprocessDocumentResponse, error)
}

type documentService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	tenantService    ITenantService
	ingestGuard      *memory.Guard
}

func NewDocumentService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	tenantService ITenantService,
	ingestGuard *memory.Guard,
) IDocumentService {
	return &documentService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		tenantService:    tenantService,
		ingestGuard:      ingestGuard,
	}
}

func (c *documentService) Upload(ctx context.Context, tenantId uuid.UUID, req *dto.UploadDocumentRequest) (*dto.UploadDocumentResponse, error) {
	fileType := extract.FileTypeFromFilename(req.Filename)
	if fileType == "" {
		return nil, fmt.Errorf("%w: %s", dto.ErrUnsupportedFile, req.Filename)
	}

	settings, err := c.tenantService.Resolve(ctx, tenantId)
	if err != nil {
		return nil, err
	}

	fileSize := int64(len(req.Content))
	if !extract.ValidateFileSize(fileSize, settings.MaxFileSizeMB) {
		return nil, fmt.Errorf("%w: limit is %d MB", dto.ErrFileTooLarge, settings.MaxFileSizeMB)
	}

	uow := c.uowFactory.NewUnitOfWork(ctx)

	count, err := uow.DocumentRepository().Count(ctx, specification.ByTenantID{TenantID: tenantId})
	if err != nil {
		return nil, err
	}
	if count >= int64(settings.MaxDocuments) {
		return nil, fmt.Errorf("%w: limit is %d documents", dto.ErrQuotaExceeded, settings.MaxDocuments)
	}

	document := entity.Document{
		Id:        uuid.New(),
		TenantId:  tenantId,
		Filename:  req.Filename,
		FileType:  fileType,
		FileSize:  fileSize,
		Status:    model.DocumentStatusPending,
		Content:   req.Content,
		CreatedAt: time.Now(),
	}

	if err := uow.DocumentRepository().Create(ctx, &document); err != nil {
		return nil, err
	}

	if err := c.enqueueIngestion(ctx, &document); err != nil {
		return nil, err
	}

	return &dto.UploadDocumentResponse{
		Id:       document.Id,
		Filename: document.Filename,
		FileType: document.FileType,
		Status:   document.Status,
	}, nil
}

func (c *documentService) List(ctx context.Context, tenantId uuid.UUID) (*dto.ListDocumentsResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	documents, err := uow.DocumentRepository().FindAll(ctx,
		specification.ByTenantID{TenantID: tenantId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.DocumentResponse, 0, len(documents))
	for _, d := range documents {
		responses = append(responses, toDocumentResponse(d))
	}

	return &dto.ListDocumentsResponse{
		Documents: responses,
		Total:     int64(len(responses)),
	}, nil
}

func (c *documentService) Show(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.DocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	document, err := c.findOwned(ctx, uow, tenantId, id)
	if err != nil {
		return nil, err
	}

	res := toDocumentResponse(document)
	return &res, nil
}

// Delete removes the document and its embeddings in one transaction, so
// retrieval never sees chunks for a document that no longer exists.
func (c *documentService) Delete(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.DeleteDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	if _, err := c.findOwned(ctx, uow, tenantId, id); err != nil {
		return nil, err
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.EmbeddingRepository().DeleteByDocumentId(ctx, id); err != nil {
		return nil, err
	}
	if err := uow.DocumentRepository().Delete(ctx, id); err != nil {
		return nil, err
	}

	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.DeleteDocumentResponse{Id: id}, nil
}

// Reprocess re-runs ingestion for a document that already exists, for
// example after a transient embedding outage. The document goes back to
// pending and the old chunks stay queryable until the new run commits.
func (c *documentService) Reprocess(ctx context.Context, tenantId uuid.UUID, id uuid.UUID) (*dto.ReprocessDocumentResponse, error) {
	uow := c.uowFactory.NewUnitOfWork(ctx)

	document, err := c.findOwned(ctx, uow, tenantId, id)
	if err != nil {
		return nil, err
	}

	if document.Status == model.DocumentStatusProcessing || c.ingestGuard.Held("ingest:"+id.String()) {
		return nil, dto.ErrDocumentBusy
	}

	if err := uow.DocumentRepository().SetStatus(ctx, id, model.DocumentStatusPending, "", 0); err != nil {
		return nil, err
	}

	document.Status = model.DocumentStatusPending
	if err := c.enqueueIngestion(ctx, document); err != nil {
		return nil, err
	}

	return &dto.ReprocessDocumentResponse{
		Id:     id,
		Status: model.DocumentStatusPending,
	}, nil
}

func (c *documentService) enqueueIngestion(ctx context.Context, document *entity.Document) error {
	payload := dto.PublishIngestDocumentMessage{
		DocumentId: document.Id,
		TenantId:   document.TenantId,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.publisherService.Publish(ctx, payloadJson)
}

func (c *documentService) findOwned(ctx context.Context, uow unitofwork.UnitOfWork, tenantId, id uuid.UUID) (*entity.Document, error) {
	document, err := uow.DocumentRepository().FindOne(ctx,
		specification.ByID{ID: id},
		specification.ByTenantID{TenantID: tenantId},
	)
	if err != nil {
		return nil, err
	}
	if document == nil {
		return nil, dto.ErrNotFound
	}
	return document, nil
}

func toDocumentResponse(d *entity.Document) dto.DocumentResponse {
	return dto.DocumentResponse{
		Id:           d.Id,
		Filename:     d.Filename,
		FileType:     d.FileType,
		FileSize:     d.FileSize,
		Status:       d.Status,
		ErrorMessage: d.ErrorMessage,
		ChunkCount:   d.ChunkCount,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}
