// Package worker runs the job pipeline: engine, ledger, delivery, cleanup.
// Nothing propagates past the handler: a failed job is terminal and
// reported, never requeued.
package worker

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"upscaler/internal/domain"
	"upscaler/internal/queue"
)

const (
	captionVip     = "Here is your upscaled image!\n1 VIP credit used."
	captionFree    = "Here is your upscaled image!\n1 free credit used."
	captionPlain   = "Here is your upscaled image!"
	failureMessage = "Sorry, upscaling failed. Your credits were not charged."
)

// Engine is the slice of the super-resolution engine the orchestrator needs.
type Engine interface {
	Upscale(ctx context.Context, sourcePath, destPath string) error
}

// Ledger decrements credits for successfully completed jobs.
type Ledger interface {
	DecrementOnSuccess(ctx context.Context, accountKey int64) (domain.CreditUsage, error)
}

// JobStore persists job state transitions.
type JobStore interface {
	MarkRunning(ctx context.Context, jobID string) (bool, error)
	MarkSucceeded(ctx context.Context, jobID string, usage domain.CreditUsage) error
	MarkFailed(ctx context.Context, jobID, message string) error
}

// Notifier delivers results and failure notices to the user's chat channel.
type Notifier interface {
	SendPhoto(ctx context.Context, chatID int64, photoPath, caption string) error
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Files removes transient job files.
type Files interface {
	Remove(path string) error
}

// Orchestrator wraps one engine invocation in a unit of work pulled from the
// queue.
type Orchestrator struct {
	engine   Engine
	ledger   Ledger
	jobs     JobStore
	notifier Notifier
	files    Files
	logger   zerolog.Logger
}

func NewOrchestrator(engine Engine, ledger Ledger, jobs JobStore, notifier Notifier, files Files, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		engine:   engine,
		ledger:   ledger,
		jobs:     jobs,
		notifier: notifier,
		files:    files,
		logger:   logger,
	}
}

// HandleUpscale processes one queued job. It always returns nil: every
// outcome is terminal, and returning an error would make the broker retry.
func (o *Orchestrator) HandleUpscale(ctx context.Context, task *asynq.Task) error {
	p, err := queue.DecodePayload(task.Payload())
	if err != nil {
		o.logger.Error().Err(err).Msg("worker: malformed task payload")
		return nil
	}

	// Transient files go away whatever happens below.
	defer o.cleanup(p.SourcePath, p.DestPath)

	claimed, err := o.jobs.MarkRunning(ctx, p.JobID)
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", p.JobID).Msg("worker: claim failed")
		return nil
	}
	if !claimed {
		o.logger.Warn().Str("job_id", p.JobID).Msg("worker: job already claimed or unknown")
		return nil
	}
	o.logger.Info().Str("job_id", p.JobID).Int64("account_key", p.AccountKey).Msg("worker: job started")

	if err := o.engine.Upscale(ctx, p.SourcePath, p.DestPath); err != nil {
		o.fail(ctx, p, err.Error())
		return nil
	}

	usage, err := o.ledger.DecrementOnSuccess(ctx, p.AccountKey)
	if err != nil {
		o.fail(ctx, p, "ledger decrement: "+err.Error())
		return nil
	}

	if err := o.notifier.SendPhoto(ctx, p.AccountKey, p.DestPath, captionFor(usage)); err != nil {
		// The job itself succeeded and the credit is spent; an unreachable
		// chat (user blocked the bot) does not fail it retroactively.
		o.logger.Warn().Err(err).Str("job_id", p.JobID).Msg("worker: result delivery failed")
	}

	if err := o.jobs.MarkSucceeded(ctx, p.JobID, usage); err != nil {
		o.logger.Error().Err(err).Str("job_id", p.JobID).Msg("worker: mark succeeded failed")
	}
	o.logger.Info().
		Str("job_id", p.JobID).
		Str("credit_used", string(usage)).
		Msg("worker: job succeeded")
	return nil
}

// fail records the terminal failure and tells the user. The detailed error is
// logged and stored for operators; the user sees a generic notice.
func (o *Orchestrator) fail(ctx context.Context, p queue.Payload, detail string) {
	o.logger.Error().
		Str("job_id", p.JobID).
		Int64("account_key", p.AccountKey).
		Str("detail", detail).
		Msg("worker: job failed")
	if err := o.jobs.MarkFailed(ctx, p.JobID, detail); err != nil {
		o.logger.Error().Err(err).Str("job_id", p.JobID).Msg("worker: mark failed failed")
	}
	if err := o.notifier.SendMessage(ctx, p.AccountKey, failureMessage); err != nil {
		o.logger.Warn().Err(err).Str("job_id", p.JobID).Msg("worker: failure notice delivery failed")
	}
}

func (o *Orchestrator) cleanup(paths ...string) {
	for _, path := range paths {
		if err := o.files.Remove(path); err != nil {
			o.logger.Warn().Err(err).Str("path", path).Msg("worker: cleanup failed")
		}
	}
}

func captionFor(usage domain.CreditUsage) string {
	switch usage {
	case domain.CreditUsageVip:
		return captionVip
	case domain.CreditUsageFree:
		return captionFree
	default:
		return captionPlain
	}
}
