package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"partsflow/internal/config"
	corenumerator "partsflow/internal/core/numerator"
	"partsflow/internal/core/tx"
	"partsflow/internal/domain"
	"partsflow/internal/domain/catalogs/taxrate"
	"partsflow/internal/infrastructure/cache"
	"partsflow/internal/infrastructure/numerator"
	"partsflow/internal/infrastructure/storage/memory"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/pkg/logger"
)

// Runtime is the application wired over the configured storage backend.
// Postgres-only parts are nil when running on the memory backend.
type Runtime struct {
	Config   *config.Config
	Repos    Repositories
	Services *Services

	Pool        *postgres.Pool
	TxManager   *postgres.TxManager
	Codec       *postgres.PayloadCodec
	Idempotency *postgres.IdempotencyStore
	Listener    *cache.Listener
	Redis       *redis.Client
	ReportCache *cache.ReportCache

	closers []func()
}

// NewRuntime connects to storage and builds the services.
func NewRuntime(ctx context.Context, cfg *config.Config, applicationName string) (*Runtime, error) {
	rt := &Runtime{Config: cfg}

	if cfg.RedisAddr != "" {
		rt.Redis = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		rt.onClose(func() { _ = rt.Redis.Close() })

		if err := rt.Redis.Ping(ctx).Err(); err != nil {
			rt.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		rt.ReportCache = cache.NewReportCache(rt.Redis, cfg.ReportCacheTTL)
	}

	var err error
	switch cfg.StorageDriver {
	case config.DriverMemory:
		rt.openMemory()
	default:
		err = rt.openPostgres(ctx, applicationName)
	}
	if err != nil {
		rt.Close()
		return nil, err
	}
	return rt, nil
}

func (rt *Runtime) openMemory() {
	store := memory.New()
	rt.Repos = MemoryRepositories(store)
	rt.Services = NewServices(rt.Repos, rt.options(
		memory.NewTxManager(store),
		corenumerator.NewSequenceGenerator(),
		store.EventLog(),
		nil,
	))
	logger.Default().Warn("using in-memory storage; data is lost on exit")
}

func (rt *Runtime) openPostgres(ctx context.Context, applicationName string) error {
	cfg := rt.Config

	pool, err := postgres.NewPool(ctx, cfg.PoolConfig(applicationName))
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	rt.Pool = pool
	rt.onClose(pool.Close)

	rt.TxManager = postgres.NewTxManager(pool)
	rt.TxManager.SetMaxRetries(cfg.TxMaxRetries)

	rt.Codec, err = postgres.NewPayloadCodec(cfg.OutboxCompressAbove)
	if err != nil {
		return fmt.Errorf("outbox codec: %w", err)
	}

	rt.Idempotency = postgres.NewIdempotencyStore(rt.TxManager, cfg.IdempotencyTTL)
	rt.Repos = PostgresRepositories(rt.TxManager)

	rt.Listener = cache.NewListener(pool.Pool)
	rt.onClose(rt.Listener.Stop)

	taxRates := cache.NewTaxRateCache(rt.Repos.TaxRates, cfg.TaxRateTTL)
	taxRates.Listen(rt.Listener)

	rt.Services = NewServices(rt.Repos, rt.options(
		rt.TxManager,
		numerator.New(rt.TxManager, pool),
		postgres.NewOutboxPublisher(rt.TxManager, rt.Codec),
		taxRates,
	))
	return nil
}

func (rt *Runtime) options(txm tx.Manager, gen corenumerator.Generator, events domain.EventPublisher, rates taxrate.DefaultRateProvider) Options {
	opts := Options{
		TxManager:         txm,
		Numerator:         gen,
		Events:            events,
		ReceivingLocation: rt.Config.ReturnLocationCode,
	}
	if rates != nil {
		opts.TaxRates = rates
	}
	if rt.ReportCache != nil {
		opts.ReportCache = rt.ReportCache
	}
	return opts
}

// StartListener begins receiving database notifications.
func (rt *Runtime) StartListener(ctx context.Context) {
	if rt.Listener != nil {
		rt.Listener.Start(ctx)
	}
}

func (rt *Runtime) onClose(fn func()) {
	rt.closers = append(rt.closers, fn)
}

// Close releases every connection in reverse order of opening.
func (rt *Runtime) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
	rt.closers = nil
}
