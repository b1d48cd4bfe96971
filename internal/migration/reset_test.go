package migration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/kvstore"
	"example.com/sakila-migration/internal/models"
)

type failingDropper struct{}

func (failingDropper) Drop(context.Context, ...string) error {
	return errors.New("not authorized on sakila_nosql")
}

func TestReset_AllowsCleanRerun(t *testing.T) {
	e := newEnv(t)
	o := NewOrchestrator(e.connectors(), WithLogger(discardLogger()))
	require.False(t, o.Run(context.Background()).Failed())
	e.redis.Set("session:42", "unrelated")

	kv := kvstore.NewFromConfig(config.RedisConfig{Addr: e.redis.Addr()})
	defer kv.Close()
	result, err := Reset(context.Background(), kv, e.docs, discardLogger())

	require.NoError(t, err)
	assert.Equal(t, int64(5), result.KeysDeleted)
	assert.Equal(t, models.DocumentCollections(), result.CollectionsDropped)
	assert.Equal(t, []string{"session:42"}, e.redis.Keys(), "only migrated prefixes are cleared")
	assert.Empty(t, e.docs.collections)

	rerun := o.Run(context.Background())
	assert.False(t, rerun.Failed(), "documents insert again after a reset")
}

func TestReset_ContinuesAfterFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Set("city:1", "{}")
	kv := kvstore.NewFromConfig(config.RedisConfig{Addr: mr.Addr()})
	defer kv.Close()

	result, err := Reset(context.Background(), kv, failingDropper{}, nil)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to drop collections")
	assert.Equal(t, int64(1), result.KeysDeleted)
	assert.Empty(t, result.CollectionsDropped)
}

func TestReset_SkipsNilStores(t *testing.T) {
	result, err := Reset(context.Background(), nil, nil, discardLogger())
	require.NoError(t, err)
	assert.Zero(t, result.KeysDeleted)
}

func TestResetDestinations_DocumentStoreUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.Set("country:1", "{}")
	cfg := &config.Config{
		Redis: config.RedisConfig{Addr: mr.Addr()},
		Mongo: config.MongoConfig{
			URI:            "mongodb://127.0.0.1:1",
			Database:       "sakila_nosql",
			ConnectTimeout: 200 * time.Millisecond,
		},
	}

	result, err := ResetDestinations(context.Background(), cfg, discardLogger())

	require.Error(t, err)
	assert.Equal(t, models.ErrorCodeConnect, models.CodeOf(err))
	assert.Equal(t, int64(1), result.KeysDeleted, "reachable store is still cleared")
	assert.Empty(t, mr.Keys())
}
