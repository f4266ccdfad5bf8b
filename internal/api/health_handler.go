package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/presser/internal/api/shared"
	"github.com/phrazzld/presser/internal/service"
)

// HealthResponse represents the response data for the health endpoint.
type HealthResponse struct {
	Status     string `json:"status"`
	ActiveJobs int    `json:"active_jobs"`
}

// HealthHandler serves the operational endpoints.
type HealthHandler struct {
	jobService *service.JobService
	logger     *slog.Logger
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(jobService *service.JobService, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		jobService: jobService,
		logger:     logger.With(slog.String("component", "health_handler")),
	}
}

// Health handles GET /health requests.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	active, err := h.jobService.ActiveRenders(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Health check failed", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, HealthResponse{
		Status:     "ok",
		ActiveJobs: active,
	})
}

// Stats handles GET /stats requests.
func (h *HealthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobService.Stats(r.Context())
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError,
			"Failed to compute stats", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, stats)
}
