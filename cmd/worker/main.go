package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/backend-resto/internal/cart"
	"github.com/noah-isme/backend-resto/internal/common"
	"github.com/noah-isme/backend-resto/internal/config"
	"github.com/noah-isme/backend-resto/internal/lock"
	"github.com/noah-isme/backend-resto/internal/obs"
	"github.com/noah-isme/backend-resto/internal/queue"
	"github.com/noah-isme/backend-resto/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := obs.NewLogger("json", "info")
		boot.Fatal().Err(err).Msg("load config")
	}
	log := obs.NewLogger(cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
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

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	st := store.NewStore(pool)
	cartSvc := &cart.Service{
		Q:        st.Queries,
		Validate: validator.New(),
		Log:      log,
	}
	cartLock := lock.Mutex{R: rdb, TTL: 30 * time.Second}

	worker := queue.Worker{
		R:           rdb,
		Prefix:      cfg.QueueRedisPrefix,
		Kind:        queue.KindCartReprice,
		Concurrency: cfg.WorkerConcurrency,
		Handler: func(ctx context.Context, task queue.Task) error {
			var payload queue.CartRepricePayload
			if err := json.Unmarshal(task.Payload, &payload); err != nil {
				log.Error().Err(err).Msg("decode reprice payload")
				return nil
			}
			key := cfg.QueueRedisPrefix + ":lock:cart:" + payload.CartGUID.String()
			return cartLock.Do(ctx, key, func(ctx context.Context) error {
				_, err := cartSvc.RefreshCart(ctx, payload.CartGUID.String())
				if err != nil {
					// Carts deleted between fanout and processing are done.
					if appErr, ok := common.AsAppError(err); ok && appErr.Code == "NOT_FOUND" {
						return nil
					}
				}
				return err
			})
		},
	}

	log.Info().
		Str("kind", queue.KindCartReprice).
		Int("concurrency", cfg.WorkerConcurrency).
		Msg("worker started")
	if err := worker.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("worker stopped")
	}
	log.Info().Msg("worker shut down")
}
