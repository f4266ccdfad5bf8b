package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phrazzld/presser/internal/artifact"
	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/service"
	"github.com/phrazzld/presser/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"overloaded", service.ErrOverloaded, http.StatusTooManyRequests},
		{"wrapped overloaded", fmt.Errorf("%w: queue depth 100 reached", service.ErrOverloaded), http.StatusTooManyRequests},
		{"job not found", store.ErrJobNotFound, http.StatusNotFound},
		{"not ready", service.ErrNotReady, http.StatusConflict},
		{"artifact missing", artifact.ErrMissing, http.StatusGone},
		{"unsupported scheme", domain.ErrUnsupportedScheme, http.StatusBadRequest},
		{"malformed URL", domain.ErrMalformedURL, http.StatusBadRequest},
		{"invalid ID", domain.ErrInvalidID, http.StatusBadRequest},
		{"unknown error", errors.New("database exploded"), http.StatusInternalServerError},
		{"nil error", nil, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	t.Run("never leaks internal detail", func(t *testing.T) {
		t.Parallel()
		err := fmt.Errorf("failed to create job: pq: connection refused at 10.0.0.5:5432")
		msg := GetSafeErrorMessage(err)
		assert.Equal(t, "An unexpected error occurred", msg)
		assert.NotContains(t, msg, "10.0.0.5")
	})

	t.Run("maps sentinel errors to friendly messages", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "Job not found", GetSafeErrorMessage(store.ErrJobNotFound))
		assert.Equal(t, "URL must use http or https", GetSafeErrorMessage(domain.ErrUnsupportedScheme))
		assert.Equal(t, "Service is at capacity, retry later", GetSafeErrorMessage(service.ErrOverloaded))
		assert.Equal(t, "Document is no longer available", GetSafeErrorMessage(artifact.ErrMissing))
	})

	t.Run("handles nil", func(t *testing.T) {
		t.Parallel()
		assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
	})
}
