package dto

import "errors"

// Domain errors surfaced to the HTTP layer, mapped to status codes by
// the error handler middleware.
var (
	// ErrSessionBusy means another turn is already in flight for this
	// session. Mapped to 409.
	ErrSessionBusy = errors.New("session is busy processing another message")

	// ErrRateLimited means the tenant exhausted its hourly chat quota.
	// Mapped to 429.
	ErrRateLimited = errors.New("rate limit exceeded")

	// ErrDocumentBusy means an ingestion run is already active for the
	// document. Mapped to 409.
	ErrDocumentBusy = errors.New("document is already being processed")

	// ErrNotFound covers lookups for rows the tenant cannot see, either
	// missing or owned by someone else. Mapped to 404.
	ErrNotFound = errors.New("resource not found")

	// ErrQuotaExceeded means the tenant hit its document count limit.
	// Mapped to 403.
	ErrQuotaExceeded = errors.New("document quota exceeded")

	// ErrFileTooLarge means the upload exceeds the tenant's size limit.
	// Mapped to 413.
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")

	// ErrUnsupportedFile means the filename extension is not supported.
	// Mapped to 400.
	ErrUnsupportedFile = errors.New("unsupported file type")
)
