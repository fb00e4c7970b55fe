package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"upscaler/internal/domain"
)

// LedgerOps is the ledger surface the HTTP handlers consume.
type LedgerOps interface {
	Balance(ctx context.Context, accountKey int64) (domain.Balance, error)
	RegisterIfAbsent(ctx context.Context, accountKey int64, referrerKey *int64) (domain.Registration, error)
	IncrementVip(ctx context.Context, accountKey int64, amount int) error
	ReferralCount(ctx context.Context, accountKey int64) (int, error)
}

// QueueSelector picks the priority class for a submission.
type QueueSelector interface {
	SelectQueue(ctx context.Context, accountKey int64) (domain.QueueClass, error)
}

// JobStore is the job-record surface the handlers consume.
type JobStore interface {
	Create(ctx context.Context, job *domain.Job) error
	MarkFailed(ctx context.Context, jobID, message string) error
	GetByID(ctx context.Context, jobID string) (*domain.Job, error)
}

// Enqueuer places an admitted job on its queue.
type Enqueuer interface {
	Enqueue(ctx context.Context, job *domain.Job) error
}

// Scratch hands out and cleans up transient job files.
type Scratch interface {
	SourcePath(jobID string) string
	DestPath(jobID string) string
	WriteFile(path string, r io.Reader) (int64, error)
	Remove(path string) error
}

// Notifier sends chat notices; delivery failures are warnings only.
type Notifier interface {
	Configured() bool
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// Pinger reports backend connectivity for the health endpoint.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App bundles the dependencies of the HTTP surface.
type App struct {
	Logger         zerolog.Logger
	Ledger         LedgerOps
	Admission      QueueSelector
	Jobs           JobStore
	Queue          Enqueuer
	Scratch        Scratch
	Notifier       Notifier
	DB             Pinger
	Broker         Pinger
	MaxUploadBytes int64
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]string{"error": errCode, "message": message})
}
