package api

import (
	"errors"
	"net/http"

	"github.com/phrazzld/presser/internal/artifact"
	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/service"
	"github.com/phrazzld/presser/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Overload: the submission was rejected, retry later
	case errors.Is(err, service.ErrOverloaded):
		return http.StatusTooManyRequests

	// Not found errors
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// The job exists but has not produced a document yet
	case errors.Is(err, service.ErrNotReady):
		return http.StatusConflict

	// The job completed but its document has since been removed
	case errors.Is(err, artifact.ErrMissing):
		return http.StatusGone

	// Bad request errors
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrOverloaded):
		return "Service is at capacity, retry later"

	case errors.Is(err, store.ErrNotFound):
		return "Job not found"

	case errors.Is(err, service.ErrNotReady):
		return "Job has not completed"

	case errors.Is(err, artifact.ErrMissing):
		return "Document is no longer available"

	case errors.Is(err, domain.ErrEmptyURL):
		return "URL is required"

	case errors.Is(err, domain.ErrUnsupportedScheme):
		return "URL must use http or https"

	case errors.Is(err, domain.ErrMalformedURL):
		return "URL is malformed"

	case errors.Is(err, domain.ErrInvalidID):
		return "Invalid job ID"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, store.ErrInvalidEntity):
		return "Invalid request data"

	default:
		return "An unexpected error occurred"
	}
}
