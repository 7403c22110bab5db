// Package mongodb stores leads in a MongoDB collection.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	landing "github.com/phbpx/landing"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Connect opens a client and checks the server answers.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}

	return client, nil
}

type leadDocument struct {
	landing.Lead `bson:",inline"`
	CreatedAt    time.Time `bson:"created_at"`
}

type LeadStore struct {
	col *mongo.Collection
}

func NewLeadStore(col *mongo.Collection) *LeadStore {
	return &LeadStore{col: col}
}

// Insert writes lead as a one-document batch. Write errors reported by the
// server are wrapped with landing.ErrWriteRejected.
func (s *LeadStore) Insert(ctx context.Context, lead landing.Lead) error {
	doc := leadDocument{Lead: lead, CreatedAt: time.Now().UTC()}

	if _, err := s.col.InsertMany(ctx, []interface{}{doc}); err != nil {
		if isRejection(err) {
			return fmt.Errorf("insert lead: %v: %w", err, landing.ErrWriteRejected)
		}
		return fmt.Errorf("insert lead: %w", err)
	}
	return nil
}

func isRejection(err error) bool {
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		return true
	}
	var ce mongo.CommandError
	return errors.As(err, &ce)
}
