package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"donationhub/internal/accounts"
	"donationhub/internal/adapter/memstore"
	"donationhub/internal/adapter/repo"
	"donationhub/internal/domain"
	"donationhub/internal/feed"
	"donationhub/internal/http/handlers"
	httpapi "donationhub/internal/http/httpapi"
	"donationhub/internal/identity"
	"donationhub/internal/infra"
	"donationhub/internal/infra/credentials"
	"donationhub/internal/infra/geoip"
	"donationhub/internal/infra/oidc"
	"donationhub/internal/listings"
	"donationhub/internal/migrations"
	"donationhub/internal/quota"
	"donationhub/internal/rates"
	"donationhub/internal/storage"
)

const feedBuffer = 64

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		users     domain.UserRepository
		donations domain.DonationRepository
		stats     domain.StatsRepository
		keys      rates.KeySource
		ping      func(context.Context) error
	)
	switch cfg.StoreDriver {
	case infra.StoreDriverMemory:
		mem := memstore.New()
		users, donations, stats = mem.Users(), mem.Donations(), mem.Stats()
		logger.Warn().Msg("using in-memory store, data is lost on restart")
	default:
		if cfg.RunMigrate {
			if err := migrations.Run(ctx, cfg.DatabaseURL, logger); err != nil {
				logger.Fatal().Err(err).Msg("failed to migrate database")
			}
		}
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect database")
		}
		defer pool.Close()
		runner := infra.NewSQLRunner(pool, logger)
		users = repo.NewUserRepository(runner)
		donations = repo.NewDonationRepository(runner)
		stats = repo.NewStatsRepository(runner)
		keys = credentials.NewStore(runner)
		ping = pool.Ping
	}

	hub := feed.NewHub(feedBuffer, logger)
	cache := feed.NewCache(hub)
	defer cache.Close()

	var shared rates.SharedCache
	if cfg.RedisURL != "" {
		client := connectRedis(ctx, cfg.RedisURL, logger)
		defer client.Close()
		shared = rates.NewRedisCache(client, "")
		bridge := feed.NewRedisBridge(client, "", hub, logger)
		go func() {
			if err := bridge.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error().Err(err).Msg("feed bridge stopped")
			}
		}()
	}

	files, staticDir := openStorage(ctx, cfg, logger)

	resolver, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Str("path", cfg.GeoIPDBPath).Msg("geoip database unavailable, country detection disabled")
	}
	defer resolver.Close()

	hasher := identity.NewHasher()
	tokens := identity.NewTokens(cfg.JWTSecret, cfg.TokenTTL)
	verifier := identity.NewLocalVerifier(users, hasher)
	if cfg.OIDCIssuer != "" {
		verifier.WithIDTokens(oidc.NewVerifier(cfg.OIDCIssuer, cfg.OIDCClientID))
		logger.Info().Str("issuer", cfg.OIDCIssuer).Msg("id token login enabled")
	}
	acc := accounts.NewService(
		users,
		verifier,
		hasher,
		tokens,
		accounts.Config{CodeAttempts: cfg.CodeAllocationAttempts, AdminEmails: cfg.AdminEmails},
		logger,
	).WithPublisher(hub)

	engine := quota.NewEngine(users, donations, quota.Config{
		ContactLimit:  cfg.FreeContactLimit,
		DonationLimit: cfg.FreeDonationLimit,
		RetryBudget:   cfg.ContactRetryBudget,
	}, logger)

	app := &handlers.App{
		Accounts: acc,
		Listings: listings.NewService(donations, acc, engine, hub, cache, logger),
		Quota:    engine,
		Rates: rates.NewProvider(rates.Options{
			BaseURL: cfg.ExchangeRateBaseURL,
			APIKey:  cfg.ExchangeRateAPIKey,
			Keys:    keys,
			Shared:  shared,
		}, logger),
		Files:          files,
		Hub:            hub,
		Stats:          stats,
		Logger:         logger,
		Ping:           ping,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		Tokens:         tokens,
		Admins:         acc,
		CORSOrigins:    cfg.CORSOrigins,
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  resolver.Lookup(),
		LoginPerMinute: cfg.RateLimitPerMin,
		TrustedProxies: cfg.TrustedProxies,
		StaticDir:      staticDir,
		Logger:         logger,
	})

	server := infra.NewHTTPServer(cfg, router)
	go func() {
		logger.Info().Str("store", cfg.StoreDriver).Str("storage", cfg.StorageDriver).Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}

func connectRedis(ctx context.Context, url string, logger zerolog.Logger) *redis.Client {
	opts, err := redis.ParseURL(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid REDIS_URL")
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("failed to connect redis")
	}
	return client
}

// openStorage returns the upload store and, for the filesystem driver, the
// directory served under /static.
func openStorage(ctx context.Context, cfg *infra.Config, logger zerolog.Logger) (storage.Store, string) {
	if cfg.StorageDriver == "s3" {
		s3, err := storage.NewS3Store(ctx, storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PublicURL: cfg.S3PublicURL,
		})
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to configure s3 storage")
		}
		return s3, ""
	}
	fs, err := storage.NewFileStore(cfg.StoragePath, cfg.StorageBaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure storage")
	}
	return fs, fs.BasePath()
}
