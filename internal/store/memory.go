package store

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/events"
)

// MemoryJobStore implements the JobStore interface with an in-process map.
// It is the default storage medium for a single-node deployment.
//
// Every mutation happens under the write lock, which gives the atomic
// read-modify-write per job ID that the transition guards require. Reads
// return copies, so callers never observe a partially-applied transition.
type MemoryJobStore struct {
	mu      sync.RWMutex
	jobs    map[uuid.UUID]*domain.Job
	order   []uuid.UUID
	emitter events.Emitter
	logger  *slog.Logger
}

// NewMemoryJobStore creates an empty in-memory job store. Applied
// transitions are announced through the given emitter; pass
// events.NopEmitter{} when no observer is wired.
func NewMemoryJobStore(emitter events.Emitter, logger *slog.Logger) *MemoryJobStore {
	return &MemoryJobStore{
		jobs:    make(map[uuid.UUID]*domain.Job),
		order:   make([]uuid.UUID, 0),
		emitter: emitter,
		logger:  logger.With("component", "memory_job_store"),
	}
}

// Create persists a new job. The job must be in the pending state.
func (s *MemoryJobStore) Create(ctx context.Context, job *domain.Job) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}
	if job.State != domain.JobStatePending {
		return NewStoreError("job", "create", "new job must be pending", ErrInvalidEntity)
	}

	s.mu.Lock()
	if _, exists := s.jobs[job.ID]; exists {
		s.mu.Unlock()
		return fmt.Errorf("%w: job %s", ErrDuplicate, job.ID)
	}
	stored := *job
	s.jobs[job.ID] = &stored
	s.order = append(s.order, job.ID)
	s.mu.Unlock()

	s.emit(ctx, job.ID, domain.JobStatePending)
	return nil
}

// GetByID retrieves a consistent snapshot of a job by its ID.
func (s *MemoryJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, exists := s.jobs[id]
	if !exists {
		return nil, ErrJobNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// TransitionToGenerating atomically claims a pending job for a worker.
func (s *MemoryJobStore) TransitionToGenerating(ctx context.Context, id uuid.UUID) error {
	if err := s.transition(id, domain.JobStatePending, func(job *domain.Job) {
		job.State = domain.JobStateGenerating
		job.UpdatedAt = time.Now().UTC()
	}); err != nil {
		return err
	}

	s.emit(ctx, id, domain.JobStateGenerating)
	return nil
}

// TransitionToCompleted atomically moves a generating job to completed.
func (s *MemoryJobStore) TransitionToCompleted(ctx context.Context, id uuid.UUID, artifactRef string) error {
	if artifactRef == "" {
		return NewStoreError("job", "transition", "artifact reference cannot be empty", ErrInvalidEntity)
	}

	if err := s.transition(id, domain.JobStateGenerating, func(job *domain.Job) {
		now := time.Now().UTC()
		job.State = domain.JobStateCompleted
		job.ArtifactRef = artifactRef
		job.UpdatedAt = now
		job.CompletedAt = &now
	}); err != nil {
		return err
	}

	s.emit(ctx, id, domain.JobStateCompleted)
	return nil
}

// TransitionToFailed atomically moves a generating job to failed.
func (s *MemoryJobStore) TransitionToFailed(ctx context.Context, id uuid.UUID, reason string) error {
	if reason == "" {
		reason = "unknown failure"
	}

	if err := s.transition(id, domain.JobStateGenerating, func(job *domain.Job) {
		now := time.Now().UTC()
		job.State = domain.JobStateFailed
		job.ErrorReason = reason
		job.UpdatedAt = now
		job.CompletedAt = &now
	}); err != nil {
		return err
	}

	s.emit(ctx, id, domain.JobStateFailed)
	return nil
}

// ListByState retrieves jobs in the given state, in creation order.
func (s *MemoryJobStore) ListByState(ctx context.Context, state domain.JobState) ([]*domain.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Job
	for _, id := range s.order {
		job := s.jobs[id]
		if job.State == state {
			snapshot := *job
			out = append(out, &snapshot)
		}
	}
	return out, nil
}

// CountByState returns the number of jobs per state.
func (s *MemoryJobStore) CountByState(ctx context.Context) (map[domain.JobState]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[domain.JobState]int)
	for _, job := range s.jobs {
		counts[job.State]++
	}
	return counts, nil
}

// transition applies fn to the job under the write lock, but only if the
// job is currently in the expected prior state.
func (s *MemoryJobStore) transition(id uuid.UUID, from domain.JobState, fn func(*domain.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, exists := s.jobs[id]
	if !exists {
		return ErrJobNotFound
	}

	if job.State != from {
		return fmt.Errorf("%w: job %s is %s, expected %s", ErrInvalidTransition, id, job.State, from)
	}

	fn(job)
	return nil
}

// emit announces an applied transition. Delivery is best-effort; failures
// are logged and never surfaced to the transition caller.
func (s *MemoryJobStore) emit(ctx context.Context, id uuid.UUID, state domain.JobState) {
	if err := s.emitter.EmitJobEvent(ctx, events.NewJobEvent(id, state)); err != nil {
		s.logger.Warn("failed to deliver job event",
			"job_id", id,
			"state", state,
			"error", err)
	}
}

// Ensure MemoryJobStore implements JobStore
var _ JobStore = (*MemoryJobStore)(nil)
