package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"

	"upscaler/internal/domain"
)

// Result reports a job's state or streams its enhanced image. Job state is
// persisted by this service, so an unknown id is a 404 rather than an
// indistinguishable "pending".
func (a *App) Result(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "job_id")
	if jobID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job_id required")
		return
	}

	job, err := a.Jobs.GetByID(r.Context(), jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "unknown job id")
			return
		}
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("api: load job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		return
	}

	switch job.Status {
	case domain.JobStatusQueued, domain.JobStatusRunning:
		a.json(w, http.StatusOK, map[string]string{"status": "pending"})
	case domain.JobStatusFailed:
		a.json(w, http.StatusOK, map[string]string{
			"status": string(domain.JobStatusFailed),
			"reason": "upscaling failed",
		})
	case domain.JobStatusSucceeded:
		if _, err := os.Stat(job.DestPath); err != nil {
			// Already fetched once, or the worker cleaned up first.
			a.error(w, http.StatusGone, "expired", "result no longer available")
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		http.ServeFile(w, r, job.DestPath)
		if err := a.Scratch.Remove(job.DestPath); err != nil {
			a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("api: remove served result failed")
		}
	default:
		a.error(w, http.StatusInternalServerError, "internal", "unexpected job state")
	}
}
