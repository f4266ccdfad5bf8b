package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/presser/internal/domain"
)

// Common errors returned by the Queue
var (
	ErrQueueClosed = errors.New("job queue is closed")
	ErrQueueFull   = errors.New("job queue is full")
)

// Queue implements the buffered FIFO queue of pending jobs awaiting a
// worker. Its capacity is the operator-configured maximum queue depth:
// a saturated pool grows the queue instead of rejecting submissions,
// until the queue itself is full.
type Queue struct {
	jobs   chan *domain.Job
	logger *slog.Logger
	mu     sync.Mutex
	closed bool
}

// NewQueue creates a new job queue with the specified maximum depth.
func NewQueue(depth int, logger *slog.Logger) *Queue {
	return &Queue{
		jobs:   make(chan *domain.Job, depth),
		logger: logger.With("component", "job_queue"),
	}
}

// Enqueue adds a job to the queue for processing.
// Returns ErrQueueFull if the maximum depth is reached and ErrQueueClosed
// after Close.
func (q *Queue) Enqueue(job *domain.Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return ErrQueueClosed
	}

	select {
	case q.jobs <- job:
		q.logger.Debug("job enqueued",
			"job_id", job.ID,
			"queue_len", len(q.jobs),
			"queue_cap", cap(q.jobs))
		return nil
	default:
		return fmt.Errorf("%w: queue depth %d reached", ErrQueueFull, cap(q.jobs))
	}
}

// Full reports whether the queue is at its maximum depth.
func (q *Queue) Full() bool {
	return len(q.jobs) == cap(q.jobs)
}

// Depth returns the number of jobs currently waiting.
func (q *Queue) Depth() int {
	return len(q.jobs)
}

// Close closes the queue, preventing further job submission.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if !q.closed {
		q.closed = true
		close(q.jobs)
		q.logger.Info("job queue closed")
	}
}

// Chan returns a read-only channel for consuming jobs in FIFO order.
func (q *Queue) Chan() <-chan *domain.Job {
	return q.jobs
}
