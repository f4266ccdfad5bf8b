package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/events"
	"github.com/phrazzld/presser/internal/store"
)

// PostgresJobStore implements the store.JobStore interface using PostgreSQL.
//
// Transition guards are pushed into the SQL itself: every transition is an
// UPDATE conditioned on the expected prior state, so a lost race affects
// zero rows and never overwrites a terminal job, regardless of how many
// service instances share the database.
type PostgresJobStore struct {
	db      store.DBTX
	emitter events.Emitter
	logger  *slog.Logger
}

// NewPostgresJobStore creates a new PostgresJobStore.
func NewPostgresJobStore(db store.DBTX, emitter events.Emitter, logger *slog.Logger) *PostgresJobStore {
	return &PostgresJobStore{
		db:      db,
		emitter: emitter,
		logger:  logger.With("component", "postgres_job_store"),
	}
}

// Create persists a new job. The job must be in the pending state.
func (s *PostgresJobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if job.State != domain.JobStatePending {
		return store.NewStoreError("job", "create", "new job must be pending", store.ErrInvalidEntity)
	}

	query := `
		INSERT INTO jobs (id, source_url, state, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := s.db.ExecContext(ctx, query,
		job.ID,
		job.SourceURL,
		job.State,
		job.CreatedAt,
		job.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create job",
			"job_id", job.ID,
			"error", err)
		return fmt.Errorf("failed to create job: %w", MapError(err))
	}

	s.emit(ctx, job.ID, domain.JobStatePending)
	return nil
}

// GetByID retrieves a job by its ID.
func (s *PostgresJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	query := `
		SELECT id, source_url, state, artifact_ref, error_reason,
		       created_at, updated_at, completed_at
		FROM jobs
		WHERE id = $1
	`

	job, err := scanJob(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrJobNotFound
		}
		return nil, fmt.Errorf("failed to get job: %w", MapError(err))
	}
	return job, nil
}

// TransitionToGenerating atomically claims a pending job for a worker.
func (s *PostgresJobStore) TransitionToGenerating(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE jobs
		SET state = $1, updated_at = $2
		WHERE id = $3 AND state = $4
	`

	if err := s.guardedUpdate(ctx, id, domain.JobStatePending, query,
		domain.JobStateGenerating, time.Now().UTC(), id, domain.JobStatePending); err != nil {
		return err
	}

	s.emit(ctx, id, domain.JobStateGenerating)
	return nil
}

// TransitionToCompleted atomically moves a generating job to completed.
func (s *PostgresJobStore) TransitionToCompleted(ctx context.Context, id uuid.UUID, artifactRef string) error {
	if artifactRef == "" {
		return store.NewStoreError("job", "transition", "artifact reference cannot be empty", store.ErrInvalidEntity)
	}

	query := `
		UPDATE jobs
		SET state = $1, artifact_ref = $2, updated_at = $3, completed_at = $3
		WHERE id = $4 AND state = $5
	`

	now := time.Now().UTC()
	if err := s.guardedUpdate(ctx, id, domain.JobStateGenerating, query,
		domain.JobStateCompleted, artifactRef, now, id, domain.JobStateGenerating); err != nil {
		return err
	}

	s.emit(ctx, id, domain.JobStateCompleted)
	return nil
}

// TransitionToFailed atomically moves a generating job to failed.
func (s *PostgresJobStore) TransitionToFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if reason == "" {
		reason = "unknown failure"
	}

	query := `
		UPDATE jobs
		SET state = $1, error_reason = $2, updated_at = $3, completed_at = $3
		WHERE id = $4 AND state = $5
	`

	now := time.Now().UTC()
	if err := s.guardedUpdate(ctx, id, domain.JobStateGenerating, query,
		domain.JobStateFailed, reason, now, id, domain.JobStateGenerating); err != nil {
		return err
	}

	s.emit(ctx, id, domain.JobStateFailed)
	return nil
}

// ListByState retrieves jobs in the given state, in creation order.
func (s *PostgresJobStore) ListByState(ctx context.Context, state domain.JobState) ([]*domain.Job, error) {
	query := `
		SELECT id, source_url, state, artifact_ref, error_reason,
		       created_at, updated_at, completed_at
		FROM jobs
		WHERE state = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, state)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by state: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	var jobs []*domain.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating job rows: %w", MapError(err))
	}
	return jobs, nil
}

// CountByState returns the number of jobs per state.
func (s *PostgresJobStore) CountByState(ctx context.Context) (map[domain.JobState]int, error) {
	query := `SELECT state, COUNT(*) FROM jobs GROUP BY state`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs by state: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.JobState]int)
	for rows.Next() {
		var state domain.JobState
		var count int
		if err := rows.Scan(&state, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[state] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", MapError(err))
	}
	return counts, nil
}

// guardedUpdate runs a state-conditioned UPDATE and distinguishes a missing
// job from a lost transition race when no row matched.
func (s *PostgresJobStore) guardedUpdate(
	ctx context.Context,
	id uuid.UUID,
	from domain.JobState,
	query string,
	args ...interface{},
) error {
	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		s.logger.Error("failed to transition job",
			"job_id", id,
			"error", err)
		return fmt.Errorf("failed to transition job: %w", MapError(err))
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return nil
	}

	// No row matched: either the job does not exist, or it is no longer in
	// the expected prior state.
	var current domain.JobState
	err = s.db.QueryRowContext(ctx, `SELECT state FROM jobs WHERE id = $1`, id).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to inspect job state: %w", MapError(err))
	}
	return fmt.Errorf("%w: job %s is %s, expected %s", store.ErrInvalidTransition, id, current, from)
}

// rowScanner abstracts *sql.Row and *sql.Rows for scanJob.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanJob(row rowScanner) (*domain.Job, error) {
	var job domain.Job
	var artifactRef, errorReason sql.NullString
	var completedAt sql.NullTime

	err := row.Scan(
		&job.ID,
		&job.SourceURL,
		&job.State,
		&artifactRef,
		&errorReason,
		&job.CreatedAt,
		&job.UpdatedAt,
		&completedAt,
	)
	if err != nil {
		return nil, err
	}

	job.ArtifactRef = artifactRef.String
	job.ErrorReason = errorReason.String
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

// emit announces an applied transition. Delivery is best-effort; failures
// are logged and never surfaced to the transition caller.
func (s *PostgresJobStore) emit(ctx context.Context, id uuid.UUID, state domain.JobState) {
	if err := s.emitter.EmitJobEvent(ctx, events.NewJobEvent(id, state)); err != nil {
		s.logger.Warn("failed to deliver job event",
			"job_id", id,
			"state", state,
			"error", err)
	}
}

// Ensure PostgresJobStore implements JobStore
var _ store.JobStore = (*PostgresJobStore)(nil)
