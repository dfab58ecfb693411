// Package main is the entry point for the partsflow API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"partsflow/internal/app"
	"partsflow/internal/config"
	"partsflow/internal/domain/auth"
	v1 "partsflow/internal/infrastructure/http/v1"
	"partsflow/internal/infrastructure/http/v1/handlers"
	"partsflow/internal/infrastructure/http/v1/middleware"
	"partsflow/internal/infrastructure/storage/postgres"
	"partsflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LoggerConfig())
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Infow("starting partsflow server", "env", cfg.AppEnv, "storage", cfg.StorageDriver)

	rt, err := app.NewRuntime(ctx, cfg, "partsflow-api")
	if err != nil {
		log.Fatalw("failed to initialize runtime", "error", err)
	}
	defer rt.Close()

	rt.StartListener(ctx)
	if rt.Pool != nil {
		go postgres.WatchPoolStats(ctx, rt.Pool, cfg.PoolStatsPeriod)
	}

	routerCfg := v1.RouterConfig{
		Services:   rt.Services,
		Pool:       rt.Pool,
		Logger:     log,
		Production: cfg.IsProduction(),
	}
	if rt.Redis != nil {
		routerCfg.HealthChecks = append(routerCfg.HealthChecks, handlers.HealthCheck{
			Name:  "redis",
			Probe: func(ctx context.Context) error { return rt.Redis.Ping(ctx).Err() },
		})
	}
	if cfg.AuthEnabled() {
		jwtConfig := auth.DefaultJWTConfig(cfg.JWTSecret)
		jwtConfig.Issuer = cfg.JWTIssuer
		routerCfg.JWTValidator = auth.NewJWTService(jwtConfig)
	} else {
		log.Warn("JWT_SECRET not set; API authentication is disabled")
	}
	if cfg.IdempotencyEnabled && rt.Idempotency != nil {
		routerCfg.IdempotencyStore = middleware.IdempotencyStore(rt.Idempotency)
	}

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      v1.NewRouter(routerCfg),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.AppAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
