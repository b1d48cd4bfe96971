package migration

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/alicebob/miniredis/v2"
	_ "github.com/mattn/go-sqlite3" // SQLite driver for in-memory testing
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/kvstore"
	"example.com/sakila-migration/internal/models"
)

// setupSakila creates an in-memory SQLite database holding a small Sakila sample.
func setupSakila(t *testing.T, extra ...string) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err, "Failed to open in-memory SQLite database")
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	stmts := []string{
		`CREATE TABLE country (country_id INTEGER PRIMARY KEY, country TEXT NOT NULL)`,
		`CREATE TABLE city (city_id INTEGER PRIMARY KEY, city TEXT NOT NULL, country_id INTEGER NOT NULL)`,
		`CREATE TABLE film (film_id INTEGER PRIMARY KEY, title TEXT NOT NULL, description TEXT, release_year INTEGER, language_id INTEGER NOT NULL)`,
		`CREATE TABLE actor (actor_id INTEGER PRIMARY KEY, first_name TEXT, last_name TEXT)`,
		`CREATE TABLE category (category_id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`CREATE TABLE language (language_id INTEGER PRIMARY KEY, name TEXT NOT NULL)`,
		`INSERT INTO country VALUES (1, 'Afghanistan'), (2, 'Algeria')`,
		`INSERT INTO city VALUES (1, 'Kabul', 1), (2, 'Batna', 2), (3, 'Bchar', 2)`,
		`INSERT INTO film VALUES (1, 'ACADEMY DINOSAUR', 'A Epic Drama', 2006, 1), (2, 'ACE GOLDFINGER', NULL, NULL, 1)`,
		`INSERT INTO actor VALUES (1, 'Penelope', 'Guiness'), (5, 'Bob', 'Fawcett')`,
		`INSERT INTO category VALUES (1, 'Action'), (2, 'Animation'), (3, 'Children')`,
		`INSERT INTO language VALUES (1, 'English'), (2, 'Italian')`,
	}
	for _, stmt := range append(stmts, extra...) {
		_, err := db.Exec(stmt)
		require.NoError(t, err, "Failed to execute %q", stmt)
	}
	return db
}

// countingConn hands out the shared test database and counts Close calls
// without closing it, so several runs can use the same data.
type countingConn struct {
	*sql.DB
	closes int
}

func (c *countingConn) Close() error {
	c.closes++
	return nil
}

// memoryDocs is an in-memory document store with insert-only semantics.
type memoryDocs struct {
	collections map[string][]bson.D
	ids         map[string]map[any]bool
	failAfter   int
	inserts     int
	closes      int
}

func newMemoryDocs() *memoryDocs {
	return &memoryDocs{
		collections: make(map[string][]bson.D),
		ids:         make(map[string]map[any]bool),
	}
}

func (m *memoryDocs) Insert(_ context.Context, collection string, doc bson.D) error {
	if m.failAfter > 0 && m.inserts >= m.failAfter {
		return errors.New("write concern timeout")
	}
	id := doc[0].Value
	if m.ids[collection] == nil {
		m.ids[collection] = make(map[any]bool)
	}
	if m.ids[collection][id] {
		return fmt.Errorf("%w: %s _id=%v", models.ErrDuplicateID, collection, id)
	}
	m.ids[collection][id] = true
	m.collections[collection] = append(m.collections[collection], doc)
	m.inserts++
	return nil
}

func (m *memoryDocs) Drop(_ context.Context, collections ...string) error {
	for _, c := range collections {
		delete(m.collections, c)
		delete(m.ids, c)
	}
	return nil
}

func (m *memoryDocs) Close(context.Context) error {
	m.closes++
	return nil
}

type recordingNotifier struct {
	events []any
	err    error
}

func (n *recordingNotifier) Publish(_ context.Context, event any) error {
	n.events = append(n.events, event)
	return n.err
}

type env struct {
	db    *sql.DB
	src   *countingConn
	redis *miniredis.Miniredis
	docs  *memoryDocs
}

func newEnv(t *testing.T, extra ...string) *env {
	t.Helper()
	db := setupSakila(t, extra...)
	return &env{
		db:    db,
		src:   &countingConn{DB: db},
		redis: miniredis.RunT(t),
		docs:  newMemoryDocs(),
	}
}

func (e *env) connectors() Connectors {
	return Connectors{
		Source: func(context.Context) (SourceConn, error) { return e.src, nil },
		KV: func(context.Context) (KVSink, error) {
			return kvstore.NewFromConfig(config.RedisConfig{Addr: e.redis.Addr()}), nil
		},
		Documents: func(context.Context) (DocumentSink, error) { return e.docs, nil },
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func taskOutcome(t *testing.T, r *Report, phase, entity string) Outcome {
	t.Helper()
	p, ok := r.Phase(phase)
	require.True(t, ok, "phase %s missing from report", phase)
	for _, o := range p.Tasks {
		if o.Entity == entity {
			return o
		}
	}
	require.FailNow(t, "task missing from report", "phase %s entity %s", phase, entity)
	return Outcome{}
}

type callbackNotifier struct {
	fn func()
}

func (n *callbackNotifier) Publish(context.Context, any) error {
	n.fn()
	return nil
}
