package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Load configuration from environment variables.
// Environment variables use the PRESSER_ prefix with underscores separating
// nested keys (e.g. PRESSER_SERVER_PORT, PRESSER_RENDER_TIMEOUT).
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("PRESSER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only resolves keys viper already knows about, so bind
	// every key that has no default explicitly.
	for _, key := range []string{
		"storage.database_url",
		"notify.nats_url",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setDefaults registers the default value for every setting that has one.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("worker.count", 2)
	v.SetDefault("worker.queue_depth", 100)
	v.SetDefault("worker.stuck_job_age", 10*time.Minute)
	v.SetDefault("worker.stuck_job_check_interval", time.Minute)

	v.SetDefault("render.backend", "exec")
	v.SetDefault("render.timeout", 30*time.Second)
	v.SetDefault("render.browser_path", "/usr/bin/chromium")
	v.SetDefault("render.service_url", "")

	v.SetDefault("storage.artifact_dir", "pdf")

	v.SetDefault("notify.subject_prefix", "jobs.status")
}
