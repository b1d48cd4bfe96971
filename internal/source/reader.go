// Package source reads fixed projections out of the relational Sakila database.
package source

import (
	"context"
	"database/sql"
	"fmt"
	"iter"

	_ "github.com/lib/pq" // PostgreSQL driver

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/models"
)

// Querier is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Open connects to PostgreSQL and verifies the connection with a ping.
// The pool is capped at a single connection; the migration reads strictly sequentially.
func Open(ctx context.Context, cfg config.PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL at %s:%d/%s: %w", cfg.Host, cfg.Port, cfg.DBName, err)
	}
	return db, nil
}

// Reader executes Queries against an open source connection.
type Reader struct {
	db Querier
}

// NewReader creates a Reader over db.
func NewReader(db Querier) *Reader {
	return &Reader{db: db}
}

// Read returns the rows of q as a forward-only sequence. The query is issued
// when iteration starts. The sequence can be ranged over once; a second range
// yields ErrSequenceConsumed. Any failure ends the sequence with a
// SourceReadError (or SchemaMismatch when the result columns differ from the
// declaration); rows yielded before it remain valid.
func (r *Reader) Read(ctx context.Context, q Query) iter.Seq2[*Row, error] {
	consumed := false
	return func(yield func(*Row, error) bool) {
		if consumed {
			yield(nil, models.NewSourceReadError(q.Entity, models.ErrSequenceConsumed))
			return
		}
		consumed = true

		rows, err := r.db.QueryContext(ctx, q.SQL)
		if err != nil {
			yield(nil, models.NewSourceReadError(q.Entity, fmt.Errorf("failed to execute query: %w", err)))
			return
		}
		defer rows.Close()

		if err := checkColumns(q, rows); err != nil {
			yield(nil, err)
			return
		}

		for rows.Next() {
			row := newRow(q)
			if err := rows.Scan(row.targets()...); err != nil {
				yield(nil, models.NewSourceReadError(q.Entity, fmt.Errorf("failed to scan row: %w", err)))
				return
			}
			if !yield(row, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, models.NewSourceReadError(q.Entity, fmt.Errorf("error iterating rows: %w", err)))
		}
	}
}

// checkColumns verifies the result set has exactly the declared columns, in order.
func checkColumns(q Query, rows *sql.Rows) error {
	columns, err := rows.Columns()
	if err != nil {
		return models.NewSourceReadError(q.Entity, fmt.Errorf("failed to get columns: %w", err))
	}
	if len(columns) != len(q.Columns) {
		return models.NewSchemaMismatchError(q.Entity, fmt.Sprint(columns),
			fmt.Sprintf("returned %d columns, query declares %d", len(columns), len(q.Columns)))
	}
	for i, name := range columns {
		if name != q.Columns[i].Name {
			return models.NewSchemaMismatchError(q.Entity, name,
				fmt.Sprintf("returned at position %d where %q is declared", i, q.Columns[i].Name))
		}
	}
	return nil
}
