package domain

import (
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// JobState represents the processing state of a PDF render job.
type JobState string

// Possible job state values
const (
	JobStatePending    JobState = "pending"
	JobStateGenerating JobState = "generating"
	JobStateCompleted  JobState = "completed"
	JobStateFailed     JobState = "failed"
)

// Common validation errors for Job
var (
	ErrEmptyJobID        = errors.New("job ID cannot be empty")
	ErrArtifactRefUnset  = errors.New("completed job must carry an artifact reference")
	ErrErrorReasonUnset  = errors.New("failed job must carry an error reason")
	ErrTerminalExclusive = errors.New("artifact reference and error reason are mutually exclusive")
)

// Job represents one request to render a web page to a PDF document,
// together with its tracked lifecycle state. The state moves forward only:
// pending -> generating -> completed or failed. Terminal fields are set
// exactly once at the terminal transition.
type Job struct {
	ID          uuid.UUID  `json:"id"`
	SourceURL   string     `json:"source_url"`
	State       JobState   `json:"state"`
	ArtifactRef string     `json:"artifact_ref,omitempty"`
	ErrorReason string     `json:"error_reason,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewJob creates a new Job for the given source URL. It generates a new
// UUID for the job ID, sets the state to pending, and sets the creation
// timestamp. The URL is validated before any job exists; a rejected URL
// never produces a job.
func NewJob(sourceURL string) (*Job, error) {
	if err := ValidateSourceURL(sourceURL); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Job{
		ID:        uuid.New(),
		SourceURL: sourceURL,
		State:     JobStatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateSourceURL checks that the given string is a well-formed absolute
// HTTP or HTTPS URL. It distinguishes empty input, input that does not
// parse as a URL (or lacks a host), and input with a non-http(s) scheme.
func ValidateSourceURL(sourceURL string) error {
	if sourceURL == "" {
		return fmt.Errorf("%w: %w", ErrValidation, ErrEmptyURL)
	}

	u, err := url.Parse(sourceURL)
	if err != nil {
		return fmt.Errorf("%w: %w: %v", ErrValidation, ErrMalformedURL, err)
	}

	if u.Scheme == "" {
		return fmt.Errorf("%w: %w: missing scheme", ErrValidation, ErrMalformedURL)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: %w: %q", ErrValidation, ErrUnsupportedScheme, u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("%w: %w: missing host", ErrValidation, ErrMalformedURL)
	}

	return nil
}

// Validate checks the Job's internal invariants. A terminal job carries
// exactly one of artifact reference or error reason; a non-terminal job
// carries neither.
func (j *Job) Validate() error {
	if j.ID == uuid.Nil {
		return ErrEmptyJobID
	}

	if err := ValidateSourceURL(j.SourceURL); err != nil {
		return err
	}

	if !isValidJobState(j.State) {
		return ErrInvalidJobState
	}

	switch j.State {
	case JobStateCompleted:
		if j.ArtifactRef == "" {
			return ErrArtifactRefUnset
		}
		if j.ErrorReason != "" {
			return ErrTerminalExclusive
		}
	case JobStateFailed:
		if j.ErrorReason == "" {
			return ErrErrorReasonUnset
		}
		if j.ArtifactRef != "" {
			return ErrTerminalExclusive
		}
	default:
		if j.ArtifactRef != "" || j.ErrorReason != "" {
			return ErrTerminalExclusive
		}
	}

	return nil
}

// IsTerminal reports whether the job has reached a terminal state.
func (j *Job) IsTerminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}

// CanTransitionTo reports whether the job may move to the given state.
// Transitions are monotone: pending -> generating -> completed or failed.
func (j *Job) CanTransitionTo(next JobState) bool {
	switch j.State {
	case JobStatePending:
		return next == JobStateGenerating
	case JobStateGenerating:
		return next == JobStateCompleted || next == JobStateFailed
	default:
		return false
	}
}

// ProcessingTime returns the wall-clock duration between creation and the
// terminal transition, or zero if the job is not terminal yet.
func (j *Job) ProcessingTime() time.Duration {
	if j.CompletedAt == nil {
		return 0
	}
	return j.CompletedAt.Sub(j.CreatedAt)
}

// isValidJobState checks if the given state is a valid JobState.
func isValidJobState(state JobState) bool {
	switch state {
	case JobStatePending, JobStateGenerating, JobStateCompleted, JobStateFailed:
		return true
	default:
		return false
	}
}
