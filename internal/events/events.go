package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/domain"
)

// JobEvent represents one applied state transition of a job. It carries
// just enough for an observer to react without reaching into the store.
type JobEvent struct {
	// JobID identifies the job that transitioned
	JobID uuid.UUID `json:"job_id"`

	// State is the state the job transitioned into
	State domain.JobState `json:"state"`

	// OccurredAt is the timestamp when the transition was applied
	OccurredAt time.Time `json:"occurred_at"`
}

// NewJobEvent creates a JobEvent for the given job and new state.
func NewJobEvent(jobID uuid.UUID, state domain.JobState) JobEvent {
	return JobEvent{
		JobID:      jobID,
		State:      state,
		OccurredAt: time.Now().UTC(),
	}
}

// Subscriber defines an interface for components that observe job
// transitions. Subscribers must tolerate being called concurrently for
// different jobs; events for one job arrive in transition order.
type Subscriber interface {
	// HandleJobEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled; the emitter treats
	// this as a delivery failure to log, never as a transition failure.
	HandleJobEvent(ctx context.Context, event JobEvent) error
}

// Emitter defines an interface for components that publish job transition
// events. This allows the store to announce transitions without direct
// knowledge of who is listening.
type Emitter interface {
	// EmitJobEvent publishes the given event to all registered subscribers.
	// The returned error reports delivery problems for observability only;
	// callers on the transition path ignore it.
	EmitJobEvent(ctx context.Context, event JobEvent) error
}
