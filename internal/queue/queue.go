// Package queue moves jobs between the API and the worker pool over asynq.
// Two queues exist, one per priority class; the worker drains the priority
// queue more often. That weighting is the only prioritization mechanism.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"upscaler/internal/domain"
)

// TaskTypeUpscale is the single task type this service processes.
const TaskTypeUpscale = "upscale:image"

// Weights configures how often the worker polls each queue.
func Weights() map[string]int {
	return map[string]int{
		string(domain.QueuePriority): 5,
		string(domain.QueueStandard): 1,
	}
}

// Payload is the wire format of one queued job.
type Payload struct {
	JobID      string `json:"job_id"`
	AccountKey int64  `json:"account_key"`
	SourcePath string `json:"source_path"`
	DestPath   string `json:"dest_path"`
}

// DecodePayload unmarshals a task payload.
func DecodePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, fmt.Errorf("queue: decode payload: %w", err)
	}
	if p.JobID == "" {
		return Payload{}, fmt.Errorf("queue: payload missing job id")
	}
	return p, nil
}

// Client enqueues upscale jobs.
type Client struct {
	inner   *asynq.Client
	timeout time.Duration
	logger  zerolog.Logger
}

func NewClient(opt asynq.RedisClientOpt, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{inner: asynq.NewClient(opt), timeout: timeout, logger: logger}
}

// Enqueue places the job on its admission-selected queue. MaxRetry(0): a
// failed job is terminal and reported, never requeued.
func (c *Client) Enqueue(ctx context.Context, job *domain.Job) error {
	payload, err := json.Marshal(Payload{
		JobID:      job.ID,
		AccountKey: job.AccountKey,
		SourcePath: job.SourcePath,
		DestPath:   job.DestPath,
	})
	if err != nil {
		return fmt.Errorf("queue: encode payload: %w", err)
	}
	task := asynq.NewTask(TaskTypeUpscale, payload)
	info, err := c.inner.EnqueueContext(ctx, task,
		asynq.Queue(string(job.Queue)),
		asynq.TaskID(job.ID),
		asynq.MaxRetry(0),
		asynq.Timeout(c.timeout),
	)
	if err != nil {
		return fmt.Errorf("queue: enqueue: %w", err)
	}
	c.logger.Info().
		Str("job_id", job.ID).
		Str("queue", info.Queue).
		Msg("queue: job enqueued")
	return nil
}

// Close releases the underlying asynq client.
func (c *Client) Close() error {
	return c.inner.Close()
}
