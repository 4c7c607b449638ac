package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/catalog"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/events"
	"github.com/noah-isme/backend-resto/internal/health"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/pricing"
	"github.com/noah-isme/backend-resto/internal/queue"
	"github.com/noah-isme/backend-resto/internal/ratelimit"
	"github.com/noah-isme/backend-resto/internal/store"
)

// deps adapts the storage pool and Redis client to the readiness checker.
type deps struct {
	store *store.Store
	redis *redis.Client
}

func (d deps) PingDB(ctx context.Context, timeout time.Duration) error {
	return d.store.PingDB(ctx, timeout)
}

func (d deps) PingRedis(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return d.redis.Ping(ctx).Err()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := obs.NewLogger("json", "info")
		boot.Fatal().Err(err).Msg("load config")
	}

	log := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := obs.InitTracer(ctx, obs.TracingConfig{
		ServiceName:   "resto-api",
		Endpoint:      cfg.OTELExporterEndpoint,
		SamplingRatio: cfg.TracingSampleRatio,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		log.Warn().Err(err).Msg("tracing disabled")
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownTracer(shutdownCtx)
		}()
	}

	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("parse database url")
	}
	poolCfg.ConnConfig.Tracer = obs.PGXTracer{}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("parse redis url")
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := redisotel.InstrumentTracing(rdb); err != nil {
		log.Warn().Err(err).Msg("instrument redis tracing")
	}

	st := store.NewStore(pool)

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.HTTPMetricsBuckets), nil)
	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	bus := &events.Bus{
		Store:     st.Queries,
		Notifiers: []events.Notifier{events.LogNotifier{Log: log}},
	}

	enq := queue.CartRepriceEnqueuer{
		E:           queue.Enqueuer{R: rdb, Prefix: cfg.QueueRedisPrefix},
		MaxAttempts: cfg.QueueMaxAttempts,
	}
	cascade := &pricing.Cascade{
		Carts:   st.Queries,
		Queue:   enq,
		Events:  bus,
		Log:     log,
		Reprice: cfg.PricingRepriceOnChange,
	}

	validate := validator.New()

	catalogSvc := &catalog.Service{
		Q:        st.Queries,
		Cache:    catalog.NewCache(rdb, cfg.CatalogCacheTTL),
		Cascade:  cascade,
		Bus:      bus,
		Validate: validate,
		Log:      log,
	}
	cartSvc := &cart.Service{
		Q:        st.Queries,
		Bus:      bus,
		Validate: validate,
		Log:      log,
	}

	healthHandler := health.Handler{
		Checker:      deps{store: st, redis: rdb},
		DBTimeout:    cfg.HealthDBTimeout,
		RedisTimeout: cfg.HealthRedisTimeout,
	}

	limiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: rdb, Prefix: cfg.QueueRedisPrefix + ":rl:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return r.RemoteAddr },
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) { log.Warn().Err(err).Msg("rate limiter") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: log}.Middleware)

	r.Get("/healthz", healthHandler.Live)
	r.Get("/readyz", healthHandler.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(limiter.Middleware)
		catalog.Handler{Svc: catalogSvc, DefaultLimit: cfg.CatalogDefaultLimit, MaxLimit: cfg.CatalogMaxLimit}.RegisterRoutes(r)
		cart.Handler{Svc: cartSvc, DefaultLimit: cfg.CatalogDefaultLimit, MaxLimit: cfg.CatalogMaxLimit}.RegisterRoutes(r)
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown")
	}
}
