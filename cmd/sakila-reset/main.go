// Command sakila-reset removes everything sakila-migrate writes, so that the
// document collections can be populated again.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/migration"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := cfg.NewLogger(os.Stdout)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	result, err := migration.ResetDestinations(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("reset incomplete", "deleted_keys", result.KeysDeleted, "error", err)
		os.Exit(1)
	}
	logger.Info("reset completed", "deleted_keys", result.KeysDeleted, "dropped_collections", result.CollectionsDropped)
}
