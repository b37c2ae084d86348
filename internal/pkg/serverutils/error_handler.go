// FILE: internal/pkg/serverutils/error_handler.go
package serverutils

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"docchat-be/internal/dto"
	"docchat-be/internal/repository/contract"
	"docchat-be/pkg/embedding"
	"docchat-be/pkg/extract"
	"docchat-be/pkg/llm"
)

// ErrorHandler maps domain errors to HTTP status codes. Registered as
// the Fiber app-level error handler, so controllers just return errors.
func ErrorHandler(ctx *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()

	var fiberErr *fiber.Error
	var extractionErr *extract.ExtractionError
	var embeddingErr *embedding.ServiceError
	var generationErr *llm.GenerationError

	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, dto.ErrNotFound):
		code = fiber.StatusNotFound
	case errors.Is(err, dto.ErrSessionBusy), errors.Is(err, dto.ErrDocumentBusy):
		code = fiber.StatusConflict
	case errors.Is(err, dto.ErrRateLimited):
		code = fiber.StatusTooManyRequests
	case errors.Is(err, dto.ErrQuotaExceeded):
		code = fiber.StatusForbidden
	case errors.Is(err, dto.ErrFileTooLarge):
		code = fiber.StatusRequestEntityTooLarge
	case errors.Is(err, dto.ErrUnsupportedFile), errors.As(err, &extractionErr):
		code = fiber.StatusBadRequest
	case errors.Is(err, contract.ErrStoreUnavailable):
		// The retrieval store being down is a service failure, never
		// presented as "no results".
		code = fiber.StatusServiceUnavailable
		message = "search is temporarily unavailable"
	case errors.As(err, &embeddingErr):
		code = fiber.StatusServiceUnavailable
		message = "embedding service is temporarily unavailable"
	case errors.As(err, &generationErr):
		code = fiber.StatusBadGateway
		message = "answer generation failed"
	}

	return ctx.Status(code).JSON(ErrorResponse(code, message))
}
