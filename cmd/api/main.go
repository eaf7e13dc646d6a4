package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/plumline/promoboard/internal/auth"
	"github.com/plumline/promoboard/internal/common"
	"github.com/plumline/promoboard/internal/config"
	"github.com/plumline/promoboard/internal/health"
	"github.com/plumline/promoboard/internal/obs"
	"github.com/plumline/promoboard/internal/post"
	"github.com/plumline/promoboard/internal/pricing"
	"github.com/plumline/promoboard/internal/product"
	"github.com/plumline/promoboard/internal/ratelimit"
	"github.com/plumline/promoboard/internal/resilience"
	"github.com/plumline/promoboard/internal/reviews"
	"github.com/plumline/promoboard/internal/sheet"
	"github.com/plumline/promoboard/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "promoboard")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		sampling := envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0)
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "promoboard-api",
			Version:       envOrDefault("OBS_SERVICE_VERSION", ""),
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: sampling,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				ctx := context.Background()
				if err := shutdown(ctx); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "promoboard-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	if err := migrations.Run(cfg.DatabaseURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metricsEnabled {
		if err := redisotel.InstrumentMetrics(redisClient); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	queueClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer func() {
		if err := queueClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close queue client")
		}
	}()

	authService, err := auth.NewService(auth.Config{
		Secret:               cfg.JWTSecret,
		Issuer:               cfg.JWTIssuer,
		Audience:             cfg.JWTAudience,
		AccessTokenTTL:       cfg.AccessTokenTTL,
		OperatorEmail:        cfg.OperatorEmail,
		OperatorPasswordHash: cfg.OperatorPasswordHash,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

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

	var productProvider product.Provider
	if cfg.ProductAPIBaseURL == "" {
		logger.Warn().Msg("PRODUCT_API_BASE_URL not set, using mock product provider")
		productProvider = product.Mock{}
	} else {
		productProvider = &product.Client{
			BaseURL: cfg.ProductAPIBaseURL,
			Token:   cfg.ProductAPIToken,
			HTTP:    newUpstreamClient("product"),
		}
	}
	productProvider = &product.Cache{
		Next:   productProvider,
		Client: redisClient,
		TTL:    cfg.ProductCacheTTL,
	}

	var reviewProvider reviews.Provider
	if cfg.ReviewAPIBaseURL == "" {
		logger.Warn().Msg("REVIEW_API_BASE_URL not set, using mock review provider")
		reviewProvider = reviews.Mock{}
	} else {
		reviewProvider = &reviews.Client{
			BaseURL: cfg.ReviewAPIBaseURL,
			Token:   cfg.ReviewAPIToken,
			HTTP:    newUpstreamClient("reviews"),
		}
	}

	sheetService := &sheet.Service{
		Client: &sheet.Client{
			BaseURL:   cfg.SheetAPIBaseURL,
			Token:     cfg.SheetAPIToken,
			SheetID:   cfg.SheetID,
			HTTP:      newUpstreamClient("sheet"),
			Redis:     redisClient,
			HeaderTTL: cfg.SheetHeaderTTL,
		},
		StatusColumn: cfg.SheetStatusColumn,
	}
	sheetHandler := sheet.Handler{Svc: sheetService}

	postService := &post.Service{
		Store:           post.NewStore(pool),
		Products:        productProvider,
		Reviews:         reviewProvider,
		Queue:           queueClient,
		Validate:        validator.New(),
		CoinMode:        pricing.CoinMode(cfg.PricingCoinMode),
		Rounding:        pricing.ParseRounding(cfg.PricingCoinRounding),
		Footer:          cfg.PostFooter,
		PublishMaxRetry: cfg.PublishMaxRetry,
		Logger:          logger,
	}
	postHandler := post.Handler{Svc: postService}

	limiterStore, err := limiterredis.NewStoreWithOptions(redisClient, limiter.StoreOptions{
		Prefix: "promoboard:ratelimit",
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter store")
	}
	rateLimiter := ratelimit.Handler{
		Limiter: ratelimit.New(limiterStore, limiter.Rate{
			Period: cfg.RateLimitWindow,
			Limit:  int64(cfg.RateLimitMax),
		}),
		OnError: func(err error) {
			logger.Error().Err(err).Msg("rate limiter store error")
		},
	}

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if tracingEnabled {
		r.Use(obs.TracingMiddleware)
	}
	if metricsEnabled && httpMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      readinessChecker{db: pool, redis: redisClient},
		DBTimeout:    envDurationMillis("HEALTH_READY_DB_TIMEOUT_MS", 500),
		RedisTimeout: envDurationMillis("HEALTH_READY_REDIS_TIMEOUT_MS", 300),
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Post("/auth/login", authHandler.Login)

		v.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)
			protected.Use(rateLimiter.Middleware)

			protected.Post("/posts/preview", postHandler.Preview)
			protected.With(idem.Middleware).Post("/posts", postHandler.Publish)
			protected.Get("/posts", postHandler.List)
			protected.Get("/posts/{id}", postHandler.Get)

			protected.Get("/sheet/rows", sheetHandler.Pending)
			protected.Post("/sheet/rows/{row}/claim", sheetHandler.Claim)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}
