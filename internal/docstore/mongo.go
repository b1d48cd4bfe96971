// Package docstore is the MongoDB destination of the document phase.
package docstore

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"example.com/sakila-migration/internal/config"
	"example.com/sakila-migration/internal/models"
)

// Store inserts documents into the collections of one database.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// New wraps a connected client and writes into database.
func New(client *mongo.Client, database string) *Store {
	return &Store{client: client, db: client.Database(database)}
}

// Open connects to cfg.URI and pings the primary before returning.
func Open(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.URI).SetConnectTimeout(cfg.ConnectTimeout).SetServerSelectionTimeout(cfg.ConnectTimeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB at %s: %w", cfg.URI, err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.WithoutCancel(ctx))
		return nil, fmt.Errorf("failed to ping MongoDB at %s: %w", cfg.URI, err)
	}
	return New(client, cfg.Database), nil
}

// Database returns the name of the destination database.
func (s *Store) Database() string { return s.db.Name() }

// Insert adds doc to collection. It never replaces: a document whose _id is
// already present fails with ErrDuplicateID.
func (s *Store) Insert(ctx context.Context, collection string, doc bson.D) error {
	if _, err := s.db.Collection(collection).InsertOne(ctx, doc); err != nil {
		return classifyInsertError(collection, doc, err)
	}
	return nil
}

// Drop removes collections entirely. It is a separate reset operation;
// migration never calls it.
func (s *Store) Drop(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		if err := s.db.Collection(name).Drop(ctx); err != nil {
			return fmt.Errorf("failed to drop collection %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("failed to disconnect from MongoDB: %w", err)
	}
	return nil
}

func classifyInsertError(collection string, doc bson.D, err error) error {
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("failed to insert into %s (%s=%v): %w: %w", collection, models.DocumentIDField, documentID(doc), models.ErrDuplicateID, err)
	}
	return fmt.Errorf("failed to insert into %s: %w", collection, err)
}

func documentID(doc bson.D) any {
	for _, e := range doc {
		if e.Key == models.DocumentIDField {
			return e.Value
		}
	}
	return nil
}
