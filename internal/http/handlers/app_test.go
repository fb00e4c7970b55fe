package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"upscaler/internal/domain"
	"upscaler/internal/storage"
)

type fakeLedger struct {
	mu        sync.Mutex
	balances  map[int64]domain.Balance
	reg       domain.Registration
	regErr    error
	regCalls  []int64
	referrals map[int64]int
	credits   map[int64]int
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		balances:  make(map[int64]domain.Balance),
		referrals: make(map[int64]int),
		credits:   make(map[int64]int),
	}
}

func (f *fakeLedger) Balance(_ context.Context, accountKey int64) (domain.Balance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.balances[accountKey]
	if !ok {
		return domain.Balance{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeLedger) RegisterIfAbsent(_ context.Context, accountKey int64, _ *int64) (domain.Registration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.regCalls = append(f.regCalls, accountKey)
	return f.reg, f.regErr
}

func (f *fakeLedger) IncrementVip(_ context.Context, accountKey int64, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if amount <= 0 {
		return domain.ErrInvalidInput
	}
	if _, ok := f.balances[accountKey]; !ok {
		return domain.ErrNotFound
	}
	f.credits[accountKey] += amount
	return nil
}

func (f *fakeLedger) ReferralCount(_ context.Context, accountKey int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.referrals[accountKey], nil
}

type fakeAdmission struct {
	queue domain.QueueClass
	err   error
}

func (f *fakeAdmission) SelectQueue(context.Context, int64) (domain.QueueClass, error) {
	return f.queue, f.err
}

type fakeJobs struct {
	mu        sync.Mutex
	jobs      map[string]*domain.Job
	createErr error
}

func newFakeJobs() *fakeJobs {
	return &fakeJobs{jobs: make(map[string]*domain.Job)}
}

func (f *fakeJobs) Create(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	copied := *job
	f.jobs[job.ID] = &copied
	return nil
}

func (f *fakeJobs) MarkFailed(_ context.Context, jobID, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return domain.ErrNotFound
	}
	job.Status = domain.JobStatusFailed
	job.ErrorMessage = message
	return nil
}

func (f *fakeJobs) GetByID(_ context.Context, jobID string) (*domain.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	copied := *job
	return &copied, nil
}

type fakeQueue struct {
	mu       sync.Mutex
	enqueued []*domain.Job
	err      error
}

func (f *fakeQueue) Enqueue(_ context.Context, job *domain.Job) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.enqueued = append(f.enqueued, job)
	return nil
}

type fakeNotifier struct {
	mu         sync.Mutex
	configured bool
	err        error
	messages   []string
	chatIDs    []int64
}

func (f *fakeNotifier) Configured() bool { return f.configured }

func (f *fakeNotifier) SendMessage(_ context.Context, chatID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.chatIDs = append(f.chatIDs, chatID)
	f.messages = append(f.messages, text)
	return nil
}

type fakePinger struct{ err error }

func (f *fakePinger) Ping(context.Context) error { return f.err }

type fixture struct {
	app      *App
	ledger   *fakeLedger
	jobs     *fakeJobs
	queue    *fakeQueue
	notifier *fakeNotifier
	scratch  *storage.ScratchStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	scratch, err := storage.NewScratchStore(t.TempDir())
	if err != nil {
		t.Fatalf("scratch store: %v", err)
	}
	f := &fixture{
		ledger:   newFakeLedger(),
		jobs:     newFakeJobs(),
		queue:    &fakeQueue{},
		notifier: &fakeNotifier{configured: true},
		scratch:  scratch,
	}
	f.app = &App{
		Logger:         zerolog.Nop(),
		Ledger:         f.ledger,
		Admission:      &fakeAdmission{queue: domain.QueueStandard},
		Jobs:           f.jobs,
		Queue:          f.queue,
		Scratch:        scratch,
		Notifier:       f.notifier,
		DB:             &fakePinger{},
		Broker:         &fakePinger{},
		MaxUploadBytes: 8 << 20,
	}
	return f
}

// serve routes the request through the same chi patterns the real router
// uses, so URL params resolve.
func (f *fixture) serve(req *http.Request) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.Get("/v1/healthz", f.app.Health)
	r.Post("/v1/accounts/register", f.app.Register)
	r.Get("/v1/accounts/{account_key}/balance", f.app.Balance)
	r.Get("/v1/accounts/{account_key}/referrals", f.app.Referrals)
	r.Post("/v1/accounts/{account_key}/credits", f.app.AddCredits)
	r.Post("/v1/upscale", f.app.Upscale)
	r.Get("/v1/result/{job_id}", f.app.Result)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHealthOK(t *testing.T) {
	f := newFixture(t)
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestHealthDatabaseDown(t *testing.T) {
	f := newFixture(t)
	f.app.DB = &fakePinger{err: errors.New("connection refused")}
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealthBrokerDown(t *testing.T) {
	f := newFixture(t)
	f.app.Broker = &fakePinger{err: errors.New("connection refused")}
	rec := f.serve(httptest.NewRequest(http.MethodGet, "/v1/healthz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}
