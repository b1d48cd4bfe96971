package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/docstore"
	"example.com/sakila-migration/internal/kvstore"
	"example.com/sakila-migration/internal/models"
)

// KVClearer deletes keys by prefix.
type KVClearer interface {
	Clear(ctx context.Context, prefixes ...string) (int64, error)
}

// DocumentDropper drops whole collections.
type DocumentDropper interface {
	Drop(ctx context.Context, collections ...string) error
}

// ResetResult summarises a reset.
type ResetResult struct {
	KeysDeleted        int64    `json:"keys_deleted"`
	CollectionsDropped []string `json:"collections_dropped"`
}

// Reset removes everything a migration run writes: the city and country keys
// and the four document collections. A nil kv or docs skips that store. Both
// stores are attempted even if the first fails.
func Reset(ctx context.Context, kv KVClearer, docs DocumentDropper, logger *slog.Logger) (ResetResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		result ResetResult
		errs   []error
	)

	if kv != nil {
		n, err := kv.Clear(ctx, models.KVKeyPrefixes()...)
		result.KeysDeleted = n
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to clear KV store: %w", err))
			logger.Error("failed to clear KV store", "deleted", n, "error", err)
		} else {
			logger.Info("cleared KV store", "deleted", n, "prefixes", models.KVKeyPrefixes())
		}
	}

	if docs != nil {
		collections := models.DocumentCollections()
		if err := docs.Drop(ctx, collections...); err != nil {
			errs = append(errs, fmt.Errorf("failed to drop collections: %w", err))
			logger.Error("failed to drop collections", "error", err)
		} else {
			result.CollectionsDropped = collections
			logger.Info("dropped collections", "collections", collections)
		}
	}

	return result, errors.Join(errs...)
}

// ResetDestinations connects to both destinations in cfg and resets them. A
// destination that cannot be reached is reported and the other is still cleared.
func ResetDestinations(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ResetResult, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var (
		kv   KVClearer
		docs DocumentDropper
		errs []error
	)

	if store, err := kvstore.Open(ctx, cfg.Redis); err != nil {
		logger.Error("failed to connect to KV store", "error", err)
		errs = append(errs, models.NewConnectError(models.PhaseKV, err))
	} else {
		defer store.Close()
		kv = store
	}

	if store, err := docstore.Open(ctx, cfg.Mongo); err != nil {
		logger.Error("failed to connect to document store", "error", err)
		errs = append(errs, models.NewConnectError(models.PhaseDocuments, err))
	} else {
		defer store.Close(context.WithoutCancel(ctx))
		docs = store
	}

	result, err := Reset(ctx, kv, docs, logger)
	return result, errors.Join(append(errs, err)...)
}
