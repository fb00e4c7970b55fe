// Package jobs persists the job state machine: queued → running →
// succeeded|failed. Keeping state here rather than in the queue backend lets
// a result lookup distinguish an unknown id from a job that has not started.
package jobs

import (
	"context"
	"fmt"

	"upscaler/internal/domain"
	"upscaler/internal/infra"
	"upscaler/internal/sqlinline"
)

// Repository stores job records in PostgreSQL.
type Repository struct {
	sql infra.SQLExecutor
}

func NewRepository(sql infra.SQLExecutor) *Repository {
	return &Repository{sql: sql}
}

// Create inserts a new queued job record.
func (r *Repository) Create(ctx context.Context, job *domain.Job) error {
	_, err := r.sql.Exec(ctx, sqlinline.QInsertJob,
		job.ID,
		job.AccountKey,
		job.Queue,
		domain.JobStatusQueued,
		job.SourcePath,
		job.DestPath,
	)
	if err != nil {
		return fmt.Errorf("jobs: create: %w", err)
	}
	return nil
}

// MarkRunning transitions a queued job to running. Returns false when the job
// is unknown or already left the queued state, which makes the transition
// exactly-once under concurrent delivery.
func (r *Repository) MarkRunning(ctx context.Context, jobID string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QClaimJob, jobID)
	if err != nil {
		return false, fmt.Errorf("jobs: mark running: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// MarkSucceeded records the terminal success state and the credit consumed.
func (r *Repository) MarkSucceeded(ctx context.Context, jobID string, usage domain.CreditUsage) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QMarkJobSucceeded, jobID, usage); err != nil {
		return fmt.Errorf("jobs: mark succeeded: %w", err)
	}
	return nil
}

// MarkFailed records the terminal failure state. The detailed message stays
// in the record for operators; users only ever see a generic notice.
func (r *Repository) MarkFailed(ctx context.Context, jobID, message string) error {
	if _, err := r.sql.Exec(ctx, sqlinline.QMarkJobFailed, jobID, message); err != nil {
		return fmt.Errorf("jobs: mark failed: %w", err)
	}
	return nil
}

// GetByID fetches a job by its identifier.
func (r *Repository) GetByID(ctx context.Context, jobID string) (*domain.Job, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectJob, jobID)
	var job domain.Job
	if err := row.Scan(
		&job.ID,
		&job.AccountKey,
		&job.Queue,
		&job.Status,
		&job.SourcePath,
		&job.DestPath,
		&job.CreditUsed,
		&job.ErrorMessage,
		&job.CreatedAt,
		&job.UpdatedAt,
	); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("jobs: get: %w", err)
	}
	return &job, nil
}
