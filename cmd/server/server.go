package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
)

// shutdownTimeout bounds how long in-flight requests may run during
// graceful shutdown. Renders already in progress are bounded separately by
// the render timeout.
const shutdownTimeout = 10 * time.Second

// run starts the worker pool and the HTTP server, then blocks until a
// shutdown signal arrives and the server has drained.
func (app *application) run() error {
	app.pool.Start()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", "port", app.config.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	select {
	case sig := <-shutdownCh:
		app.logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-serverErrCh:
		app.cleanup()
		return fmt.Errorf("server failed: %w", err)
	}

	// Stop accepting submissions first so every accepted job is either
	// drained by a worker or failed by the stuck-job monitor on restart.
	app.queue.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error("server shutdown failed", "error", err)
	}

	app.cleanup()
	app.logger.Info("server shutdown completed")
	return nil
}
