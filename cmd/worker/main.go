package main

import (
	"context"
	"net/http"
	"time"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"

	"upscaler/internal/engine"
	"upscaler/internal/infra"
	"upscaler/internal/jobs"
	"upscaler/internal/ledger"
	"upscaler/internal/queue"
	"upscaler/internal/storage"
	"upscaler/internal/telegram"
	"upscaler/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer dbpool.Close()

	scratch, err := storage.NewScratchStore(cfg.ScratchDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to prepare scratch dir")
	}

	model := engine.NewModel(engine.ModelOptions{
		BaseURL:    cfg.InferenceURL,
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
		Logger:     &logger,
	})
	eng, err := engine.New(engine.Config{Model: model, Logger: logger})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure engine")
	}

	notifier := telegram.NewClient(telegram.Options{
		Token:      cfg.TelegramToken,
		BaseURL:    cfg.TelegramBaseURL,
		HTTPClient: &http.Client{Timeout: 60 * time.Second},
		Logger:     &logger,
	})
	if !notifier.Configured() {
		logger.Warn().Msg("worker: bot token missing, results will not be delivered")
	}

	orch := worker.NewOrchestrator(
		eng,
		ledger.New(dbpool, logger),
		jobs.NewRepository(dbpool),
		notifier,
		scratch,
		logger,
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues:      queue.Weights(),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskTypeUpscale, orch.HandleUpscale)

	logger.Info().
		Int("concurrency", cfg.WorkerConcurrency).
		Msg("worker: started")
	if err := srv.Run(mux); err != nil {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
