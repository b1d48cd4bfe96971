package source

import (
	"database/sql"
	"fmt"

	"example.com/sakila-migration/internal/models"
)

// Row is one scanned result row. Only the columns declared by its Query can
// be read; anything else is a SchemaMismatch.
type Row struct {
	query  Query
	values []any
}

func newRow(q Query) *Row {
	values := make([]any, len(q.Columns))
	for i, c := range q.Columns {
		switch c.Type {
		case ColumnInt:
			values[i] = &sql.NullInt64{}
		default:
			values[i] = &sql.NullString{}
		}
	}
	return &Row{query: q, values: values}
}

// NewRow builds a Row for q from already-decoded values, one per declared
// column in order. Integers may be int or int64, text must be string, and nil
// stands for NULL.
func NewRow(q Query, values ...any) (*Row, error) {
	if len(values) != len(q.Columns) {
		return nil, models.NewSchemaMismatchError(q.Entity, fmt.Sprint(values),
			fmt.Sprintf("has %d values, query declares %d columns", len(values), len(q.Columns)))
	}
	row := newRow(q)
	for i, v := range values {
		if v == nil {
			continue
		}
		switch target := row.values[i].(type) {
		case *sql.NullInt64:
			switch n := v.(type) {
			case int:
				*target = sql.NullInt64{Int64: int64(n), Valid: true}
			case int64:
				*target = sql.NullInt64{Int64: n, Valid: true}
			default:
				return nil, models.NewSchemaMismatchError(q.Entity, q.Columns[i].Name, fmt.Sprintf("expects int, got %T", v))
			}
		case *sql.NullString:
			s, ok := v.(string)
			if !ok {
				return nil, models.NewSchemaMismatchError(q.Entity, q.Columns[i].Name, fmt.Sprintf("expects text, got %T", v))
			}
			*target = sql.NullString{String: s, Valid: true}
		}
	}
	return row, nil
}

func (r *Row) targets() []any { return r.values }

// Entity returns the entity the row was read for.
func (r *Row) Entity() string { return r.query.Entity }

// Int returns a non-null integer column.
func (r *Row) Int(name string) (int64, error) {
	v, err := r.OptionalInt(name)
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, fmt.Errorf("%w: %s.%s", models.ErrNullValue, r.query.Entity, name)
	}
	return *v, nil
}

// OptionalInt returns an integer column, nil when it is NULL.
func (r *Row) OptionalInt(name string) (*int64, error) {
	v, err := r.lookup(name, ColumnInt)
	if err != nil {
		return nil, err
	}
	n := v.(*sql.NullInt64)
	if !n.Valid {
		return nil, nil
	}
	i := n.Int64
	return &i, nil
}

// Text returns a non-null text column.
func (r *Row) Text(name string) (string, error) {
	v, err := r.OptionalText(name)
	if err != nil {
		return "", err
	}
	if v == nil {
		return "", fmt.Errorf("%w: %s.%s", models.ErrNullValue, r.query.Entity, name)
	}
	return *v, nil
}

// OptionalText returns a text column, nil when it is NULL.
func (r *Row) OptionalText(name string) (*string, error) {
	v, err := r.lookup(name, ColumnText)
	if err != nil {
		return nil, err
	}
	s := v.(*sql.NullString)
	if !s.Valid {
		return nil, nil
	}
	str := s.String
	return &str, nil
}

func (r *Row) lookup(name string, want ColumnType) (any, error) {
	i, col, ok := r.query.column(name)
	if !ok {
		return nil, models.NewSchemaMismatchError(r.query.Entity, name, "is not declared")
	}
	if col.Type != want {
		return nil, models.NewSchemaMismatchError(r.query.Entity, name,
			fmt.Sprintf("is declared as %s, read as %s", col.Type, want))
	}
	return r.values[i], nil
}
