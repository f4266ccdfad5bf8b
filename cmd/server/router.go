package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	apiMiddleware "github.com/phrazzld/presser/internal/api/middleware"
)

// setupRouter configures the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", app.jobHandler.SubmitJob)
		r.Get("/jobs/{id}", app.jobHandler.GetJobStatus)
		r.Get("/jobs/{id}/download", app.jobHandler.DownloadArtifact)
	})

	r.Get("/health", app.healthHandler.Health)
	r.Get("/stats", app.healthHandler.Stats)

	return r
}
