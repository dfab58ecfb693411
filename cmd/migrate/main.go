// Package main provides the database maintenance CLI.
// Usage: migrate up
//
//	migrate down
//	migrate status
//	migrate outbox
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/georgysavva/scany/v2/pgxscan"

	"partsflow/internal/config"
	"partsflow/internal/infrastructure/storage/postgres"
)

const migrationsDir = "db/migrations"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	if cfg.StorageDriver != config.DriverPostgres {
		fmt.Println("Error: migrations require STORAGE_DRIVER=postgres")
		os.Exit(1)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "up", "down", "status", "redo", "version":
		runGoose(cfg.DatabaseURL, os.Args[1:]...)
	case "outbox":
		outboxStatus(ctx, cfg)
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Partsflow database CLI

Usage:
  migrate <command>

Commands:
  up        Apply all pending migrations
  down      Roll back the latest migration
  status    Show migration status
  redo      Re-run the latest migration
  version   Print the current schema version
  outbox    Show outbox event counts by status
  help      Show this help

Environment Variables:
  DATABASE_URL   Connection string (required)

The goose binary must be on PATH.`)
}

func runGoose(dsn string, args ...string) {
	gooseArgs := append([]string{"-dir", migrationsDir, "postgres", dsn}, args...)
	cmd := exec.Command("goose", gooseArgs...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		fmt.Printf("✗ goose %s failed: %v\n", args[0], err)
		os.Exit(1)
	}
}

type outboxCount struct {
	Status postgres.OutboxStatus `db:"status"`
	Count  int64                 `db:"count"`
	Oldest *string               `db:"oldest"`
}

func outboxStatus(ctx context.Context, cfg *config.Config) {
	poolCfg := cfg.PoolConfig("partsflow-migrate")
	poolCfg.MinConns = 0
	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	var counts []outboxCount
	err = pgxscan.Select(ctx, pool.Pool, &counts, `
		SELECT status, COUNT(*) AS count, MIN(created_at)::text AS oldest
		FROM sys_outbox
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-12s %10s  %s\n", "STATUS", "COUNT", "OLDEST")
	for _, c := range counts {
		oldest := "-"
		if c.Oldest != nil {
			oldest = *c.Oldest
		}
		fmt.Printf("%-12s %10d  %s\n", c.Status, c.Count, oldest)
	}
}
