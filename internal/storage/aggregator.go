package storage

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoAggregator runs read-only counts and aggregation pipelines against
// named collections.
type MongoAggregator struct {
	db *mongo.Database
}

func NewMongoAggregator(db *mongo.Database) *MongoAggregator {
	return &MongoAggregator{db: db}
}

// Count returns the number of documents matching filter.
func (a *MongoAggregator) Count(ctx context.Context, collection string, filter interface{}) (int64, error) {
	n, err := a.db.Collection(collection).CountDocuments(ctx, filter)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// Aggregate executes pipeline and decodes every result document into out,
// which must be a pointer to a slice.
func (a *MongoAggregator) Aggregate(ctx context.Context, collection string, pipeline mongo.Pipeline, out interface{}) error {
	cur, err := a.db.Collection(collection).Aggregate(ctx, pipeline)
	if err != nil {
		return fmt.Errorf("aggregate %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s aggregation: %w", collection, err)
	}
	return nil
}

// Ping checks that the primary behind the analytics database answers.
func (a *MongoAggregator) Ping(ctx context.Context) error {
	return a.db.Client().Ping(ctx, readpref.Primary())
}
