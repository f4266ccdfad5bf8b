package logger_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/presser/internal/config"
	"github.com/phrazzld/presser/internal/platform/logger"
)

func TestSetup(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
	}{
		{name: "debug level", logLevel: "debug"},
		{name: "info level", logLevel: "info"},
		{name: "warn level", logLevel: "warn"},
		{name: "error level", logLevel: "error"},
		{name: "mixed case", logLevel: "INFO"},
		{name: "invalid level falls back to info", logLevel: "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := logger.Setup(config.ServerConfig{Port: 8080, LogLevel: tt.logLevel})
			require.NoError(t, err)
			require.NotNil(t, log)
			assert.Same(t, log, slog.Default())
		})
	}
}

func TestWithLoggerAndFromContext(t *testing.T) {
	t.Run("retrieves stored logger", func(t *testing.T) {
		custom := slog.New(slog.NewTextHandler(io.Discard, nil))
		ctx := logger.WithLogger(context.Background(), custom)

		assert.Same(t, custom, logger.FromContext(ctx))
	})

	t.Run("falls back to default", func(t *testing.T) {
		assert.Same(t, slog.Default(), logger.FromContext(context.Background()))
	})

	t.Run("nil logger leaves context unchanged", func(t *testing.T) {
		ctx := context.Background()
		assert.Equal(t, ctx, logger.WithLogger(ctx, nil))
	})

	t.Run("explicit default wins when nothing stored", func(t *testing.T) {
		def := slog.New(slog.NewTextHandler(io.Discard, nil))
		assert.Same(t, def, logger.FromContextOrDefault(context.Background(), def))
	})
}
