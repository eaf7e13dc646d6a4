package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/plumline/promoboard/internal/config"
	"github.com/plumline/promoboard/internal/jobs"
	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/post"
	"github.com/plumline/promoboard/internal/resilience"
	"github.com/plumline/promoboard/internal/sheet"
	"github.com/plumline/promoboard/internal/social"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("component", "worker").Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "promoboard")
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool := mustInitDatabase(ctx, cfg, logger)
	defer pool.Close()

	redisClient := mustInitRedis(ctx, cfg, logger)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	queueOpt := asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	}
	queueClient := asynq.NewClient(queueOpt)
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close queue client")
		}
	}()

	newUpstreamClient := func(target string) *resilience.HTTPClient {
		breaker := resilience.NewBreaker(cfg.CircuitMinRequests, cfg.CircuitFailureRate, cfg.CircuitOpenFor).
			WithTarget(target).
			WithLogger(logger)
		return &resilience.HTTPClient{
			Client: &http.Client{
				Transport: otelhttp.NewTransport(http.DefaultTransport),
				Timeout:   cfg.UpstreamTimeout,
			},
			Breaker:     breaker,
			Target:      target,
			BaseBackoff: cfg.RetryBase,
			MaxAttempts: cfg.RetryMaxAttempts,
			Jitter:      cfg.RetryJitter,
			Timeout:     cfg.UpstreamTimeout,
		}
	}

	providers := map[string]social.Provider{
		"cafe": &social.Cafe{
			BaseURL: cfg.CafeAPIBaseURL,
			Token:   cfg.SocialAPIToken,
			ClubID:  cfg.CafeClubID,
			MenuID:  cfg.CafeMenuID,
			HTTP:    newUpstreamClient("cafe"),
		},
		"band": &social.Band{
			BaseURL: cfg.BandAPIBaseURL,
			Token:   cfg.SocialAPIToken,
			HTTP:    newUpstreamClient("band"),
		},
	}

	publishWorker := &post.PublishWorker{
		Store:             post.NewStore(pool),
		Providers:         providers,
		Queue:             queueClient,
		WritebackMaxRetry: cfg.PublishMaxRetry,
		Logger:            logger,
	}

	writebackWorker := &sheet.WritebackWorker{
		Service: &sheet.Service{
			Client: &sheet.Client{
				BaseURL:   cfg.SheetAPIBaseURL,
				Token:     cfg.SheetAPIToken,
				SheetID:   cfg.SheetID,
				HTTP:      newUpstreamClient("sheet"),
				Redis:     redisClient,
				HeaderTTL: cfg.SheetHeaderTTL,
			},
			StatusColumn: cfg.SheetStatusColumn,
		},
		Logger: logger,
	}

	srv := asynq.NewServer(queueOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      asynqLogger{logger},
	})

	mux := asynq.NewServeMux()
	mux.Handle(jobs.TypePublishPost, publishWorker)
	mux.Handle(jobs.TypeSheetWriteback, writebackWorker)

	logger.Info().Int("concurrency", cfg.WorkerConcurrency).Msg("worker starting")
	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}

	<-ctx.Done()
	logger.Info().Msg("worker shutting down")
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

func mustInitDatabase(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *pgxpool.Pool {
	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "promoboard-worker"
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}
	return pool
}

func mustInitRedis(ctx context.Context, cfg *config.Config, logger zerolog.Logger) *redis.Client {
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}
	return redisClient
}

type asynqLogger struct {
	l zerolog.Logger
}

func (a asynqLogger) Debug(args ...any) { a.l.Debug().Msgf("%v", args) }
func (a asynqLogger) Info(args ...any)  { a.l.Info().Msgf("%v", args) }
func (a asynqLogger) Warn(args ...any)  { a.l.Warn().Msgf("%v", args) }
func (a asynqLogger) Error(args ...any) { a.l.Error().Msgf("%v", args) }
func (a asynqLogger) Fatal(args ...any) { a.l.Fatal().Msgf("%v", args) }

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}
