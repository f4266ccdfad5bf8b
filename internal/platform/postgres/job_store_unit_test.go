package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/events"
	"github.com/phrazzld/presser/internal/store"
)

// failingDBTX implements store.DBTX and fails every call with a fixed error.
type failingDBTX struct {
	err error
}

func (m *failingDBTX) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return nil, m.err
}

func (m *failingDBTX) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return nil, m.err
}

func (m *failingDBTX) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	// A *sql.Row carrying an error cannot be constructed outside
	// database/sql; paths that reach QueryRowContext are covered by the
	// integration tests instead.
	return nil
}

func newUnitStore(err error) *PostgresJobStore {
	return NewPostgresJobStore(&failingDBTX{err: err}, events.NopEmitter{}, slog.Default())
}

func pendingJob(t *testing.T) *domain.Job {
	t.Helper()
	job, err := domain.NewJob("https://example.com/report")
	require.NoError(t, err)
	return job
}

func TestNewPostgresJobStore(t *testing.T) {
	t.Parallel()

	s := NewPostgresJobStore(&failingDBTX{}, events.NopEmitter{}, slog.Default())
	assert.NotNil(t, s)
	assert.NotNil(t, s.db)
}

func TestCreateValidation(t *testing.T) {
	t.Parallel()

	t.Run("rejects an invalid job before touching the database", func(t *testing.T) {
		t.Parallel()
		s := newUnitStore(errors.New("must not be reached"))

		job := pendingJob(t)
		job.ID = uuid.Nil

		err := s.Create(context.Background(), job)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("rejects a non-pending job", func(t *testing.T) {
		t.Parallel()
		s := newUnitStore(errors.New("must not be reached"))

		job := pendingJob(t)
		job.State = domain.JobStateGenerating

		err := s.Create(context.Background(), job)
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("wraps database failures", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("connection refused")
		s := newUnitStore(dbErr)

		err := s.Create(context.Background(), pendingJob(t))
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestTransitionValidation(t *testing.T) {
	t.Parallel()

	t.Run("completed requires an artifact reference", func(t *testing.T) {
		t.Parallel()
		s := newUnitStore(errors.New("must not be reached"))

		err := s.TransitionToCompleted(context.Background(), uuid.New(), "")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("wraps database failures", func(t *testing.T) {
		t.Parallel()
		dbErr := errors.New("connection refused")
		s := newUnitStore(dbErr)

		err := s.TransitionToGenerating(context.Background(), uuid.New())
		require.Error(t, err)
		assert.ErrorIs(t, err, dbErr)
	})
}

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		sentinel error
	}{
		{"nil", nil, nil},
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"check violation", &pgconn.PgError{Code: checkViolationCode}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: notNullViolationCode}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := MapError(tt.err)
			if tt.sentinel == nil {
				assert.NoError(t, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tt.sentinel)
		})
	}

	t.Run("passes unknown errors through", func(t *testing.T) {
		t.Parallel()
		err := errors.New("some driver error")
		assert.Equal(t, err, MapError(err))
	})
}

func TestIsUniqueViolation(t *testing.T) {
	t.Parallel()

	assert.True(t, IsUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: checkViolationCode}))
	assert.False(t, IsUniqueViolation(errors.New("plain error")))
	assert.False(t, IsUniqueViolation(nil))
}
