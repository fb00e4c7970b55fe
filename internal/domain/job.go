package domain

import "time"

// QueueClass partitions jobs between the two worker queues. Accounts holding
// vip credits are routed to the priority queue.
type QueueClass string

const (
	QueuePriority QueueClass = "priority"
	QueueStandard QueueClass = "standard"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusSucceeded JobStatus = "succeeded"
	JobStatusFailed    JobStatus = "failed"
)

// Terminal reports whether a job can no longer change state.
func (s JobStatus) Terminal() bool {
	return s == JobStatusSucceeded || s == JobStatusFailed
}

// Job encapsulates the lifecycle of one upscale request. The record is the
// source of truth for job state, so a result lookup can tell an unknown id
// apart from a job that has not started yet.
type Job struct {
	ID           string
	AccountKey   int64
	Queue        QueueClass
	Status       JobStatus
	SourcePath   string
	DestPath     string
	CreditUsed   CreditUsage
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
