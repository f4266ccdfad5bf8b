package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/domain"
)

// JobStore defines the interface for persisting render jobs and driving
// them through their state machine.
//
// All transition methods are atomic read-modify-write operations guarded
// by the job's expected prior state: they return ErrInvalidTransition if
// the job is not in that state, which makes a worker's claim race-safe
// even when two callers race on the same job. GetByID never blocks on a
// transition and always returns a consistent snapshot.
type JobStore interface {
	// Create persists a new job. The job must be in the pending state.
	Create(ctx context.Context, job *domain.Job) error

	// GetByID retrieves a job by its ID.
	// Returns ErrJobNotFound if no job with the given ID exists.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error)

	// TransitionToGenerating atomically claims a pending job for a worker.
	// Returns ErrInvalidTransition if the job is not pending.
	TransitionToGenerating(ctx context.Context, id uuid.UUID) error

	// TransitionToCompleted atomically moves a generating job to completed,
	// recording the artifact reference and the completion timestamp.
	// Returns ErrInvalidTransition if the job is not generating.
	TransitionToCompleted(ctx context.Context, id uuid.UUID, artifactRef string) error

	// TransitionToFailed atomically moves a generating job to failed,
	// recording the error reason and the completion timestamp.
	// Returns ErrInvalidTransition if the job is not generating.
	TransitionToFailed(ctx context.Context, id uuid.UUID, reason string) error

	// ListByState retrieves jobs currently in the given state, in creation
	// order. Used by the stuck-job monitor and the stats endpoint.
	ListByState(ctx context.Context, state domain.JobState) ([]*domain.Job, error)

	// CountByState returns the number of jobs per state.
	CountByState(ctx context.Context) (map[domain.JobState]int, error)
}

// DBTX is the common interface implemented by *sql.DB and *sql.Tx,
// allowing store implementations to run inside or outside a transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}
