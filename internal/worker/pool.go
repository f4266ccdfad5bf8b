package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/render"
	"github.com/phrazzld/presser/internal/store"
)

// ArtifactSaver is the slice of the artifact store the pool needs: persist
// rendered bytes and hand back a reference.
type ArtifactSaver interface {
	Save(data []byte) (string, error)
}

// PoolConfig holds configuration for the worker pool
type PoolConfig struct {
	// WorkerCount determines how many concurrent workers render jobs.
	// Each worker drives one rendering backend instance at a time.
	WorkerCount int

	// StuckJobAge defines how long a job can sit in the generating state
	// before the monitor fails it as orphaned.
	StuckJobAge time.Duration

	// StuckJobCheckInterval defines how often to check for orphaned jobs.
	// If zero, defaults to 1 minute.
	StuckJobCheckInterval time.Duration
}

// DefaultPoolConfig returns a PoolConfig with reasonable defaults.
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		WorkerCount:           2,
		StuckJobAge:           10 * time.Minute,
		StuckJobCheckInterval: time.Minute,
	}
}

// Pool pulls pending jobs off the queue in FIFO order and drives each one
// through its render: claim, render, record the terminal state. A job is
// claimed by exactly one worker through the store's guarded transition, so
// the claim is race-safe even if the same job were ever queued twice.
type Pool struct {
	store      store.JobStore
	gateway    render.Gateway
	artifacts  ArtifactSaver
	queue      *Queue
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     PoolConfig
	logger     *slog.Logger
}

// NewPool creates a new worker pool over the given queue.
func NewPool(
	jobStore store.JobStore,
	gateway render.Gateway,
	artifacts ArtifactSaver,
	queue *Queue,
	config PoolConfig,
	logger *slog.Logger,
) *Pool {
	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
		config.WorkerCount = 1
	}
	if config.StuckJobCheckInterval == 0 {
		config.StuckJobCheckInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		store:      jobStore,
		gateway:    gateway,
		artifacts:  artifacts,
		queue:      queue,
		ctx:        ctx,
		cancelFunc: cancel,
		config:     config,
		logger:     logger.With("component", "worker_pool"),
	}
}

// Start launches the worker goroutines and the stuck-job monitor.
func (p *Pool) Start() {
	for i := 0; i < p.config.WorkerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}

	if p.config.StuckJobAge > 0 {
		p.wg.Add(1)
		go p.stuckJobMonitor()
	}

	p.logger.Info("worker pool started", "worker_count", p.config.WorkerCount)
}

// Stop gracefully shuts down the pool, waiting for in-flight renders to
// finish or be cut off by their deadline.
func (p *Pool) Stop() {
	p.cancelFunc()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker consumes jobs from the queue until shutdown.
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case job, ok := <-p.queue.Chan():
			if !ok {
				p.logger.Debug("job queue closed, stopping worker", "worker_id", id)
				return
			}
			p.process(job, id)
		}
	}
}

// process drives one job from claim to terminal state.
func (p *Pool) process(job *domain.Job, workerID int) {
	logger := p.logger.With(
		"job_id", job.ID,
		"worker_id", workerID,
	)

	// Transitions use a fresh context so a shutdown in the middle of a
	// render can still record the job's terminal state.
	ctx := context.Background()

	// Claim the job. The store's state guard makes this atomic: a second
	// claim of the same job fails here instead of rendering twice.
	if err := p.store.TransitionToGenerating(ctx, job.ID); err != nil {
		if errors.Is(err, store.ErrInvalidTransition) {
			// Double-claim defense tripped. This indicates a dispatch bug,
			// not a user error; it must never surface to a client.
			logger.Error("invariant violation: job already claimed", "error", err)
			return
		}
		logger.Error("failed to claim job", "error", err)
		return
	}

	logger.Info("rendering job", "source_url", job.SourceURL)

	data, err := p.renderSafely(job)
	if err != nil {
		logger.Warn("render failed", "error", err)
		p.fail(ctx, logger, job.ID, err.Error())
		return
	}

	ref, err := p.artifacts.Save(data)
	if err != nil {
		logger.Error("failed to save artifact", "error", err)
		p.fail(ctx, logger, job.ID, fmt.Sprintf("failed to store rendered document: %v", err))
		return
	}

	if err := p.store.TransitionToCompleted(ctx, job.ID, ref); err != nil {
		// The monitor may have failed the job as stuck while the render
		// was still running; the terminal state it chose stands.
		logger.Error("failed to record completion", "error", err, "artifact_ref", ref)
		return
	}

	logger.Info("job completed", "artifact_ref", ref, "bytes", len(data))
}

// renderSafely invokes the gateway with panic containment: a crashing
// backend adapter fails the job instead of the process.
func (p *Pool) renderSafely(job *domain.Job) (data []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("render panicked",
				"job_id", job.ID,
				"panic", r)
			data = nil
			err = fmt.Errorf("%w: render panicked: %v", render.ErrBackend, r)
		}
	}()

	return p.gateway.Render(p.ctx, job.SourceURL)
}

// fail records the terminal failed state, tolerating a lost race with the
// stuck-job monitor.
func (p *Pool) fail(ctx context.Context, logger *slog.Logger, id uuid.UUID, reason string) {
	if err := p.store.TransitionToFailed(ctx, id, reason); err != nil {
		logger.Error("failed to record failure", "error", err, "reason", reason)
	}
}
