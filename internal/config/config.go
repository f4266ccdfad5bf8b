package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"  validate:"required"`
	Worker  WorkerConfig  `mapstructure:"worker"  validate:"required"`
	Render  RenderConfig  `mapstructure:"render"  validate:"required"`
	Storage StorageConfig `mapstructure:"storage" validate:"required"`
	Notify  NotifyConfig  `mapstructure:"notify"`
}

// ServerConfig contains all HTTP server related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port"      validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// WorkerConfig contains the worker pool and queue settings.
type WorkerConfig struct {
	// Count is the number of concurrent render workers. Each worker drives
	// one rendering backend instance at a time, so keep this small.
	Count int `mapstructure:"count" validate:"required,gt=0,lte=32"`

	// QueueDepth is the maximum number of jobs waiting for a worker.
	// Submissions beyond this depth are rejected as overloaded.
	QueueDepth int `mapstructure:"queue_depth" validate:"required,gt=0"`

	// StuckJobAge is how long a job may stay generating before the monitor
	// fails it as orphaned.
	StuckJobAge time.Duration `mapstructure:"stuck_job_age" validate:"required"`

	// StuckJobCheckInterval is how often the monitor scans for orphaned
	// generating jobs.
	StuckJobCheckInterval time.Duration `mapstructure:"stuck_job_check_interval" validate:"required"`
}

// RenderConfig contains the Render Gateway settings.
type RenderConfig struct {
	// Backend selects the rendering mechanism: "exec" spawns a headless
	// browser process locally, "http" delegates to a remote render service.
	Backend string `mapstructure:"backend" validate:"required,oneof=exec http"`

	// Timeout is the hard per-render deadline enforced by the gateway.
	Timeout time.Duration `mapstructure:"timeout" validate:"required"`

	// BrowserPath is the headless browser executable for the exec backend.
	BrowserPath string `mapstructure:"browser_path" validate:"required_if=Backend exec"`

	// ServiceURL is the base URL of the remote render service for the http
	// backend.
	ServiceURL string `mapstructure:"service_url" validate:"required_if=Backend http,omitempty,url"`
}

// StorageConfig contains artifact and job record storage settings.
type StorageConfig struct {
	// ArtifactDir is the directory where rendered PDFs are stored.
	ArtifactDir string `mapstructure:"artifact_dir" validate:"required"`

	// DatabaseURL selects the Postgres-backed job store when set; the
	// in-memory store is used otherwise.
	DatabaseURL string `mapstructure:"database_url"`
}

// NotifyConfig contains the optional NATS notification settings.
type NotifyConfig struct {
	// NATSURL enables publishing of job transitions to NATS when set.
	NATSURL string `mapstructure:"nats_url"`

	// SubjectPrefix is the NATS subject prefix for job events.
	SubjectPrefix string `mapstructure:"subject_prefix"`
}
