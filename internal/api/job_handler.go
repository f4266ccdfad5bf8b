// Package api provides HTTP handlers for the API.
package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/presser/internal/api/shared"
	"github.com/phrazzld/presser/internal/domain"
	"github.com/phrazzld/presser/internal/platform/logger"
	"github.com/phrazzld/presser/internal/service"
)

// SubmitJobRequest represents the request body for submitting a render job.
type SubmitJobRequest struct {
	URL string `json:"url" validate:"required"`
}

// SubmitJobResponse represents the response for an accepted render job.
type SubmitJobResponse struct {
	JobID     string `json:"job_id"`
	State     string `json:"state"`
	StatusURL string `json:"status_url"`
}

// JobStatusResponse represents the response data for a job status query.
type JobStatusResponse struct {
	JobID          string     `json:"job_id"`
	SourceURL      string     `json:"source_url"`
	State          string     `json:"state"`
	ErrorReason    string     `json:"error_reason,omitempty"`
	DownloadURL    string     `json:"download_url,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	ProcessingTime *float64   `json:"processing_time,omitempty"`
}

// JobHandler handles render-job HTTP requests.
type JobHandler struct {
	jobService *service.JobService
	logger     *slog.Logger
}

// NewJobHandler creates a new JobHandler.
func NewJobHandler(jobService *service.JobService, logger *slog.Logger) *JobHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for JobHandler")
	}

	return &JobHandler{
		jobService: jobService,
		logger:     logger.With(slog.String("component", "job_handler")),
	}
}

// SubmitJob handles POST /api/jobs requests. A valid submission is accepted
// with 202 and rendered asynchronously.
func (h *JobHandler) SubmitJob(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitJobRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Debug("failed to decode submission body", slog.String("error", err.Error()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "URL is required")
		return
	}

	job, err := h.jobService.Submit(r.Context(), req.URL)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("job accepted",
		slog.String("job_id", job.ID.String()),
		slog.String("source_url", job.SourceURL))
	shared.RespondWithJSON(w, r, http.StatusAccepted, SubmitJobResponse{
		JobID:     job.ID.String(),
		State:     string(job.State),
		StatusURL: fmt.Sprintf("/api/jobs/%s", job.ID),
	})
}

// GetJobStatus handles GET /api/jobs/{id} requests. It returns JSON by
// default, or a one-line plain-text rendering when the client asks for
// text/plain.
func (h *JobHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := parseJobID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	job, err := h.jobService.GetStatus(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	if wantsPlainText(r) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintln(w, statusLine(job))
		return
	}

	log.Debug("job status retrieved",
		slog.String("job_id", job.ID.String()),
		slog.String("state", string(job.State)))
	shared.RespondWithJSON(w, r, http.StatusOK, jobToStatusResponse(job))
}

// DownloadArtifact handles GET /api/jobs/{id}/download requests, streaming
// the rendered document of a completed job.
func (h *JobHandler) DownloadArtifact(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	id, err := parseJobID(r)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, GetSafeErrorMessage(err))
		return
	}

	artifact, size, filename, err := h.jobService.FetchArtifact(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}
	defer func() {
		if err := artifact.Close(); err != nil {
			log.Warn("failed to close artifact reader",
				slog.String("job_id", id.String()),
				slog.String("error", err.Error()))
		}
	}()

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := io.Copy(w, artifact); err != nil {
		// Headers are already out; nothing useful to send the client.
		log.Warn("failed to stream artifact",
			slog.String("job_id", id.String()),
			slog.String("error", err.Error()))
	}
}

func parseJobID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "id")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", domain.ErrInvalidID, raw)
	}
	return id, nil
}

func wantsPlainText(r *http.Request) bool {
	accept := r.Header.Get("Accept")
	return strings.Contains(accept, "text/plain") && !strings.Contains(accept, "application/json")
}

func statusLine(job *domain.Job) string {
	switch job.State {
	case domain.JobStateCompleted:
		return fmt.Sprintf("Job %s completed. Download at /api/jobs/%s/download", job.ID, job.ID)
	case domain.JobStateFailed:
		return fmt.Sprintf("Job %s failed: %s", job.ID, job.ErrorReason)
	default:
		return fmt.Sprintf("Job %s is %s", job.ID, job.State)
	}
}

func jobToStatusResponse(job *domain.Job) JobStatusResponse {
	resp := JobStatusResponse{
		JobID:       job.ID.String(),
		SourceURL:   job.SourceURL,
		State:       string(job.State),
		ErrorReason: job.ErrorReason,
		CreatedAt:   job.CreatedAt,
		UpdatedAt:   job.UpdatedAt,
		CompletedAt: job.CompletedAt,
	}
	if job.State == domain.JobStateCompleted {
		resp.DownloadURL = fmt.Sprintf("/api/jobs/%s/download", job.ID)
	}
	if job.IsTerminal() {
		secs := job.ProcessingTime().Seconds()
		resp.ProcessingTime = &secs
	}
	return resp
}
