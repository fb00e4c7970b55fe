package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"upscaler/internal/admission"
	httpapi "upscaler/internal/http"
	"upscaler/internal/http/handlers"
	"upscaler/internal/infra"
	"upscaler/internal/jobs"
	"upscaler/internal/ledger"
	"upscaler/internal/queue"
	"upscaler/internal/storage"
	"upscaler/internal/telegram"
)

// redisPinger adapts go-redis to the health check's error-returning Ping.
type redisPinger struct {
	rdb *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.rdb.Ping(ctx).Err()
}

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
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}

	scratch, err := storage.NewScratchStore(cfg.ScratchDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare scratch dir")
	}

	queueClient := queue.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, cfg.JobTimeout, logger)
	defer queueClient.Close()

	creditLedger := ledger.New(dbpool, logger)
	notifier := telegram.NewClient(telegram.Options{
		Token:      cfg.TelegramToken,
		BaseURL:    cfg.TelegramBaseURL,
		HTTPClient: &http.Client{Timeout: cfg.HTTPWriteTimeout},
		Logger:     &logger,
	})
	if !notifier.Configured() {
		logger.Warn().Msg("bot token missing, chat notices disabled")
	}

	app := &handlers.App{
		Logger:         logger,
		Ledger:         creditLedger,
		Admission:      admission.NewRouter(creditLedger),
		Jobs:           jobs.NewRepository(dbpool),
		Queue:          queueClient,
		Scratch:        scratch,
		Notifier:       notifier,
		DB:             dbpool,
		Broker:         redisPinger{rdb: rdb},
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
