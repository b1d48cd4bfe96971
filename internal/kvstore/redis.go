// Package kvstore is the Redis destination of the KV phase.
package kvstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"example.com/sakila-migration/internal/config"
)

// scanBatch is the COUNT hint used when scanning keys during a reset.
const scanBatch = 500

// Store writes flat JSON values to Redis.
type Store struct {
	client *redis.Client
}

// New wraps an existing client.
func New(client *redis.Client) *Store {
	return &Store{client: client}
}

// NewFromConfig creates a client for cfg. No connection is made until the
// first command; callers are expected to Ping before writing.
func NewFromConfig(cfg config.RedisConfig) *Store {
	return New(redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}))
}

// Open creates a client for cfg and verifies the server answers PING.
func Open(ctx context.Context, cfg config.RedisConfig) (*Store, error) {
	s := NewFromConfig(cfg)
	if err := s.Ping(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// Ping is the liveness check performed before any write.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("failed to ping Redis at %s: %w", s.client.Options().Addr, err)
	}
	return nil
}

// Set stores value under key, overwriting any previous value. No expiration is set.
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("failed to set key %s: %w", key, err)
	}
	return nil
}

// Clear deletes every key starting with one of prefixes and returns how many
// were removed. It is a separate reset operation; migration never calls it.
func (s *Store) Clear(ctx context.Context, prefixes ...string) (int64, error) {
	var deleted int64
	for _, prefix := range prefixes {
		iter := s.client.Scan(ctx, 0, prefix+"*", scanBatch).Iterator()
		var batch []string
		for iter.Next(ctx) {
			batch = append(batch, iter.Val())
			if len(batch) == scanBatch {
				n, err := s.client.Del(ctx, batch...).Result()
				if err != nil {
					return deleted, fmt.Errorf("failed to delete keys with prefix %s: %w", prefix, err)
				}
				deleted += n
				batch = batch[:0]
			}
		}
		if err := iter.Err(); err != nil {
			return deleted, fmt.Errorf("failed to scan keys with prefix %s: %w", prefix, err)
		}
		if len(batch) > 0 {
			n, err := s.client.Del(ctx, batch...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys with prefix %s: %w", prefix, err)
			}
			deleted += n
		}
	}
	return deleted, nil
}

// Close releases the client's connections.
func (s *Store) Close() error {
	return s.client.Close()
}
