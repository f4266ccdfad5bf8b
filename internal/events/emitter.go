package events

import (
	"context"
	"log/slog"
	"sync"
)

// InMemoryEmitter is a simple implementation of the Emitter interface
// that stores registered subscribers in memory and dispatches events to
// them synchronously, in registration order.
type InMemoryEmitter struct {
	subscribers []Subscriber
	mu          sync.RWMutex
	logger      *slog.Logger
}

// NewInMemoryEmitter creates a new instance of InMemoryEmitter.
func NewInMemoryEmitter(logger *slog.Logger) *InMemoryEmitter {
	return &InMemoryEmitter{
		subscribers: make([]Subscriber, 0),
		logger:      logger.With("component", "in_memory_emitter"),
	}
}

// Subscribe adds a new subscriber to receive job transition events.
func (e *InMemoryEmitter) Subscribe(sub Subscriber) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subscribers = append(e.subscribers, sub)
	e.logger.Debug("registered new subscriber", "subscriber_count", len(e.subscribers))
}

// EmitJobEvent publishes the given event to all registered subscribers.
// If a subscriber returns an error, the event is still delivered to the
// remaining subscribers, and the first error encountered is returned.
func (e *InMemoryEmitter) EmitJobEvent(ctx context.Context, event JobEvent) error {
	e.mu.RLock()
	subscribers := make([]Subscriber, len(e.subscribers))
	copy(subscribers, e.subscribers)
	e.mu.RUnlock()

	e.logger.Debug("emitting job event",
		"job_id", event.JobID,
		"state", event.State,
		"subscriber_count", len(subscribers))

	var firstErr error
	for i, sub := range subscribers {
		if err := sub.HandleJobEvent(ctx, event); err != nil {
			e.logger.Error("subscriber failed to process job event",
				"error", err,
				"subscriber_index", i,
				"job_id", event.JobID,
				"state", event.State)
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	return firstErr
}

// Ensure InMemoryEmitter implements Emitter
var _ Emitter = (*InMemoryEmitter)(nil)

// NopEmitter discards all events. It stands in when no observer is wired.
type NopEmitter struct{}

// EmitJobEvent implements Emitter by doing nothing.
func (NopEmitter) EmitJobEvent(ctx context.Context, event JobEvent) error {
	return nil
}

var _ Emitter = NopEmitter{}
