// Command sakila-migrate copies the Sakila reference data from PostgreSQL
// into Redis (city, country) and MongoDB (films, actors, categories, languages).
package main

import (
	"context"
	"log/slog"
	"os"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/migration"
	"example.com/sakila-migration/internal/notify"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		return 1
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	opts := []migration.Option{migration.WithLogger(logger)}
	if cfg.NATS.Enabled() {
		pub, err := notify.Connect(cfg.NATS, logger)
		if err != nil {
			logger.Warn("completion events disabled", "error", err)
		} else {
			defer pub.Close()
			opts = append(opts, migration.WithNotifier(pub))
		}
	}

	// SIGINT and SIGTERM are not trapped: they terminate the process mid-run.
	report := migration.NewOrchestrator(migration.DefaultConnectors(cfg), opts...).Run(context.Background())
	return exitCode(cfg.StrictExit, report)
}

// exitCode is 0 after every run unless strict is set and something failed.
func exitCode(strict bool, report *migration.Report) int {
	if strict && report.Failed() {
		return 1
	}
	return 0
}
