// Package service implements the application services that sit between the
// HTTP handlers and the stores.
package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/store"
	"github.com/phrazzld/presser/internal/worker"
)

// Service-level errors surfaced to the API layer.
var (
	// ErrOverloaded is returned when the job queue is at its maximum depth.
	// The caller should retry later; no job is created.
	ErrOverloaded = errors.New("service overloaded")

	// ErrNotReady is returned when an artifact is requested for a job that
	// has not completed.
	ErrNotReady = errors.New("job has not completed")
)

// ArtifactOpener is the slice of the artifact store the service needs.
type ArtifactOpener interface {
	Open(ref string) (io.ReadCloser, int64, error)
}

// JobStats summarizes the job table for the stats endpoint.
type JobStats struct {
	Total                 int     `json:"total_jobs"`
	Completed             int     `json:"completed_jobs"`
	Failed                int     `json:"failed_jobs"`
	Active                int     `json:"active_jobs"`
	AverageProcessingSecs float64 `json:"average_processing_time"`
}

// JobService owns the submission, status, and retrieval paths of the job
// lifecycle. Rendering itself happens in the worker pool; the service only
// creates pending jobs and hands them to the queue.
type JobService struct {
	store     store.JobStore
	queue     *worker.Queue
	artifacts ArtifactOpener
	logger    *slog.Logger

	// submitMu serializes submissions so the queue-depth check and the
	// enqueue are atomic with respect to other submitters. Workers only
	// drain the queue, so a free slot seen under the lock stays free.
	submitMu sync.Mutex
}

// NewJobService creates a new JobService.
func NewJobService(
	jobStore store.JobStore,
	queue *worker.Queue,
	artifacts ArtifactOpener,
	logger *slog.Logger,
) *JobService {
	return &JobService{
		store:     jobStore,
		queue:     queue,
		artifacts: artifacts,
		logger:    logger.With("component", "job_service"),
	}
}

// Submit validates the source URL, creates a pending job, and enqueues it
// for rendering. A rejected URL or a full queue creates no job.
func (s *JobService) Submit(ctx context.Context, sourceURL string) (*domain.Job, error) {
	job, err := domain.NewJob(sourceURL)
	if err != nil {
		return nil, err
	}

	s.submitMu.Lock()
	defer s.submitMu.Unlock()

	if s.queue.Full() {
		s.logger.Warn("submission rejected, queue at maximum depth",
			"queue_depth", s.queue.Depth())
		return nil, fmt.Errorf("%w: queue depth %d reached", ErrOverloaded, s.queue.Depth())
	}

	if err := s.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	if err := s.queue.Enqueue(job); err != nil {
		// Only possible when the queue is closing down; the stored job
		// stays pending and is surfaced to the caller as overload.
		s.logger.Error("failed to enqueue created job",
			"job_id", job.ID,
			"error", err)
		return nil, fmt.Errorf("%w: %v", ErrOverloaded, err)
	}

	s.logger.Info("job submitted",
		"job_id", job.ID,
		"source_url", job.SourceURL,
		"queue_depth", s.queue.Depth())
	return job, nil
}

// GetStatus retrieves a consistent snapshot of the job.
// Returns store.ErrJobNotFound for an unknown ID.
func (s *JobService) GetStatus(ctx context.Context, id uuid.UUID) (*domain.Job, error) {
	return s.store.GetByID(ctx, id)
}

// FetchArtifact opens the rendered document of a completed job.
// Returns store.ErrJobNotFound for an unknown ID, ErrNotReady when the job
// has not completed, and artifact.ErrMissing when the job completed but
// its bytes have been removed since.
func (s *JobService) FetchArtifact(ctx context.Context, id uuid.UUID) (io.ReadCloser, int64, string, error) {
	job, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, 0, "", err
	}

	if job.State != domain.JobStateCompleted {
		return nil, 0, "", fmt.Errorf("%w: job is %s", ErrNotReady, job.State)
	}

	r, size, err := s.artifacts.Open(job.ArtifactRef)
	if err != nil {
		return nil, 0, "", err
	}
	return r, size, job.ArtifactRef, nil
}

// Stats summarizes the job table.
func (s *JobService) Stats(ctx context.Context) (*JobStats, error) {
	counts, err := s.store.CountByState(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}

	stats := &JobStats{
		Completed: counts[domain.JobStateCompleted],
		Failed:    counts[domain.JobStateFailed],
		Active:    counts[domain.JobStatePending] + counts[domain.JobStateGenerating],
	}
	for _, n := range counts {
		stats.Total += n
	}

	if stats.Completed > 0 {
		completed, err := s.store.ListByState(ctx, domain.JobStateCompleted)
		if err != nil {
			return nil, fmt.Errorf("failed to list completed jobs: %w", err)
		}
		var totalSecs float64
		for _, job := range completed {
			totalSecs += job.ProcessingTime().Seconds()
		}
		if len(completed) > 0 {
			stats.AverageProcessingSecs = totalSecs / float64(len(completed))
		}
	}

	return stats, nil
}

// ActiveRenders returns the number of jobs currently generating, for the
// health endpoint.
func (s *JobService) ActiveRenders(ctx context.Context) (int, error) {
	counts, err := s.store.CountByState(ctx)
	if err != nil {
		return 0, err
	}
	return counts[domain.JobStateGenerating], nil
}
