package migration

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"example.com/sakila-migration/internal/mapping"
	"example.com/sakila-migration/internal/models"
	"example.com/sakila-migration/internal/source"
)

// DestinationKV labels records written to the key-value store.
const DestinationKV = "kv"

// KVWriter is the write side of the key-value store.
type KVWriter interface {
	Set(ctx context.Context, key, value string) error
}

// DocumentWriter is the write side of the document store.
type DocumentWriter interface {
	Insert(ctx context.Context, collection string, doc bson.D) error
}

// EntityTask migrates one entity type end to end.
type EntityTask interface {
	Entity() string
	Destination() string
	Run(ctx context.Context, reader *source.Reader) Outcome
}

// Task is the single executor behind every entity: read Query, Map each row,
// Write the result. V is the destination representation.
type Task[V any] struct {
	entity      string
	destination string
	query       source.Query
	mapRow      func(*source.Row) (V, error)
	write       func(context.Context, V) error
}

// NewTask builds a task for query whose rows are converted by mapRow and stored by write.
func NewTask[V any](destination string, query source.Query, mapRow func(*source.Row) (V, error), write func(context.Context, V) error) *Task[V] {
	return &Task[V]{
		entity:      query.Entity,
		destination: destination,
		query:       query,
		mapRow:      mapRow,
		write:       write,
	}
}

func (t *Task[V]) Entity() string      { return t.entity }
func (t *Task[V]) Destination() string { return t.destination }

// Run consumes the query once. Migrated counts successful writes only. The
// first read, mapping or write error stops the task and is returned in the
// Outcome; it never propagates further.
func (t *Task[V]) Run(ctx context.Context, reader *source.Reader) Outcome {
	out := Outcome{Entity: t.entity, Destination: t.destination}
	for row, err := range reader.Read(ctx, t.query) {
		if err != nil {
			out.Err = err
			break
		}
		v, err := t.mapRow(row)
		if err != nil {
			if models.CodeOf(err) == "" {
				err = models.NewMappingError(t.entity, err)
			}
			out.Err = err
			break
		}
		if err := t.write(ctx, v); err != nil {
			out.Err = models.NewSinkWriteError(t.entity, err)
			break
		}
		out.Migrated++
	}
	return out
}

// KVTasks is the KV phase table, in execution order.
func KVTasks(kv KVWriter) []EntityTask {
	write := func(ctx context.Context, rec mapping.KVRecord) error {
		return kv.Set(ctx, rec.Key, rec.Value)
	}
	return []EntityTask{
		NewTask(DestinationKV, source.CityQuery, mapping.City, write),
		NewTask(DestinationKV, source.CountryQuery, mapping.Country, write),
	}
}

// DocumentTasks is the document phase table, in execution order.
func DocumentTasks(docs DocumentWriter) []EntityTask {
	into := func(collection string) func(context.Context, bson.D) error {
		return func(ctx context.Context, doc bson.D) error {
			return docs.Insert(ctx, collection, doc)
		}
	}
	return []EntityTask{
		NewTask(models.CollectionFilms, source.FilmQuery, mapping.Film, into(models.CollectionFilms)),
		NewTask(models.CollectionActors, source.ActorQuery, mapping.Actor, into(models.CollectionActors)),
		NewTask(models.CollectionCategories, source.CategoryQuery, mapping.Category, into(models.CollectionCategories)),
		NewTask(models.CollectionLanguages, source.LanguageQuery, mapping.Language, into(models.CollectionLanguages)),
	}
}
