package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"upscaler/internal/domain"
)

type upscaleResponse struct {
	JobID  string `json:"job_id"`
	Queue  string `json:"queue"`
	Status string `json:"status"`
}

// Upscale accepts a multipart image submission, admits it to a queue and
// returns the job id. Invalid submissions are rejected synchronously and no
// job is created.
func (a *App) Upscale(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes)
	if err := r.ParseMultipartForm(a.MaxUploadBytes); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart payload")
		return
	}

	accountKey, err := strconv.ParseInt(r.FormValue("account_key"), 10, 64)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "account_key required")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "file required")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType != "image/jpeg" && contentType != "image/png" {
		a.error(w, http.StatusBadRequest, "unsupported_media_type", "only JPEG and PNG images are supported")
		return
	}

	// Reject unregistered accounts before any file lands on disk.
	queueClass, err := a.Admission.SelectQueue(r.Context(), accountKey)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusForbidden, "unregistered", "account is not registered")
			return
		}
		a.Logger.Error().Err(err).Int64("account_key", accountKey).Msg("api: admission failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to admit job")
		return
	}

	jobID := uuid.NewString()
	job := &domain.Job{
		ID:         jobID,
		AccountKey: accountKey,
		Queue:      queueClass,
		Status:     domain.JobStatusQueued,
		SourcePath: a.Scratch.SourcePath(jobID),
		DestPath:   a.Scratch.DestPath(jobID),
	}

	if _, err := a.Scratch.WriteFile(job.SourcePath, file); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("api: persist upload failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to store upload")
		return
	}

	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("api: create job failed")
		a.discard(job)
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}

	if err := a.Queue.Enqueue(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("api: enqueue failed")
		if markErr := a.Jobs.MarkFailed(r.Context(), jobID, "enqueue: "+err.Error()); markErr != nil {
			a.Logger.Error().Err(markErr).Str("job_id", jobID).Msg("api: mark failed failed")
		}
		a.discard(job)
		a.error(w, http.StatusInternalServerError, "internal", "failed to queue job")
		return
	}

	a.Logger.Info().
		Str("job_id", jobID).
		Int64("account_key", accountKey).
		Str("queue", string(queueClass)).
		Msg("api: job admitted")
	a.json(w, http.StatusAccepted, upscaleResponse{
		JobID:  jobID,
		Queue:  string(queueClass),
		Status: string(domain.JobStatusQueued),
	})
}

func (a *App) discard(job *domain.Job) {
	if err := a.Scratch.Remove(job.SourcePath); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", job.ID).Msg("api: discard upload failed")
	}
}
