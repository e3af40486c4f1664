package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"donationhub/internal/infra"
	"donationhub/internal/infra/credentials"
	"donationhub/internal/rates"
)

// refreshRetry is how long the worker waits after a failed refresh before
// trying again, independent of the refresh interval.
const refreshRetry = 5 * time.Minute

type rateRefresher interface {
	Refresh(ctx context.Context) (rates.Rates, error)
}

type ratesWorker struct {
	rates  rateRefresher
	every  time.Duration
	retry  time.Duration
	logger zerolog.Logger
}

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadWorkerConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv).With().Str("cmd", "worker").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: invalid REDIS_URL")
	}
	client := redis.NewClient(opts)
	defer client.Close()

	var keys rates.KeySource
	if cfg.StoreDriver == infra.StoreDriverPostgres {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("worker: db connection failed")
		}
		defer pool.Close()
		keys = credentials.NewStore(infra.NewSQLRunner(pool, logger))
	}

	provider := rates.NewProvider(rates.Options{
		BaseURL: cfg.ExchangeRateBaseURL,
		APIKey:  cfg.ExchangeRateAPIKey,
		Keys:    keys,
		Shared:  rates.NewRedisCache(client, ""),
		// Readers treat the shared entry as fresh for one full interval.
		TTL: cfg.RatesRefreshEvery,
	}, logger)

	w := &ratesWorker{rates: provider, every: cfg.RatesRefreshEvery, retry: refreshRetry, logger: logger}
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// Run refreshes immediately and then once per interval. A failed refresh is
// retried sooner; the API keeps serving the last shared snapshot meanwhile.
func (w *ratesWorker) Run(ctx context.Context) error {
	w.logger.Info().Dur("every", w.every).Msg("worker: started")
	for {
		wait := w.every
		if !w.refresh(ctx) && w.retry > 0 && w.retry < wait {
			wait = w.retry
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

func (w *ratesWorker) refresh(ctx context.Context) bool {
	r, err := w.rates.Refresh(ctx)
	if err != nil {
		if ctx.Err() == nil {
			w.logger.Error().Err(err).Msg("worker: rates refresh failed")
		}
		return false
	}
	w.logger.Info().Int("currencies", len(r.Rates)).Str("base", r.Base).Msg("worker: rates refreshed")
	return true
}
