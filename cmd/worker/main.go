// Package main is the entry point for the partsflow background worker.
// It relays outbox events and runs periodic housekeeping.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"partsflow/internal/app"
	"partsflow/internal/config"
	appctx "partsflow/internal/core/context"
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

	if cfg.StorageDriver != config.DriverPostgres {
		log.Fatalw("worker requires postgres storage", "storage", cfg.StorageDriver)
	}

	ctx, stop := signal.NotifyContext(appctx.WithSystemUser(context.Background(), "worker"), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info("starting partsflow worker")

	rt, err := app.NewRuntime(ctx, cfg, "partsflow-worker")
	if err != nil {
		log.Fatalw("failed to initialize runtime", "error", err)
	}
	defer rt.Close()

	worker := NewWorker(rt, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return worker.RunRelay(gctx) })
	g.Go(func() error { return worker.RunHousekeeping(gctx) })
	g.Go(func() error { return worker.WatchPool(gctx) })

	rt.StartListener(gctx)

	if err := g.Wait(); err != nil {
		log.Errorw("worker stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("worker stopped")
}
