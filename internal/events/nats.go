package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"
)

// NATSPublisher forwards job transition events to a NATS subject so that
// out-of-process observers (a live-updating page, an operations dashboard)
// can follow job progress without polling the status API.
//
// It implements Subscriber and is meant to be registered on the in-memory
// emitter; publish failures are reported back to the emitter, which logs
// them and carries on.
type NATSPublisher struct {
	nc            *nats.Conn
	subjectPrefix string
	logger        *slog.Logger
}

// NewNATSPublisher creates a publisher over an established NATS connection.
// Events for job X are published to "<subjectPrefix>.<job id>".
func NewNATSPublisher(nc *nats.Conn, subjectPrefix string, logger *slog.Logger) *NATSPublisher {
	return &NATSPublisher{
		nc:            nc,
		subjectPrefix: subjectPrefix,
		logger:        logger.With("component", "nats_publisher"),
	}
}

// HandleJobEvent publishes the event as JSON.
func (p *NATSPublisher) HandleJobEvent(ctx context.Context, event JobEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal job event: %w", err)
	}

	subject := fmt.Sprintf("%s.%s", p.subjectPrefix, event.JobID)
	if err := p.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish job event to %s: %w", subject, err)
	}

	p.logger.Debug("published job event",
		"subject", subject,
		"job_id", event.JobID,
		"state", event.State)
	return nil
}

// Ensure NATSPublisher implements Subscriber
var _ Subscriber = (*NATSPublisher)(nil)
