package payload

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/vuer-ai/zaku-go/pkg/config"
	"github.com/vuer-ai/zaku-go/pkg/types"
)

// MongoStore implements Store on MongoDB, one collection per queue.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewMongoStore connects and selects the configured database. The
// connection is lazy; call Ping or WaitReady to verify reachability.
func NewMongoStore(ctx context.Context, cfg config.Mongo) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.ConnString()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	return &MongoStore{client: client, db: client.Database(cfg.Database)}, nil
}

// Put inserts the payload document. A duplicate ID overwrites the
// previous document, so retried adds stay idempotent.
func (s *MongoStore) Put(ctx context.Context, collection, docID string, payload []byte) error {
	doc := types.PayloadDoc{ID: docID, Payload: payload, CreatedAt: types.NowTS()}
	coll := s.db.Collection(collection)
	op := func() error {
		_, err := coll.InsertOne(ctx, doc)
		if mongo.IsDuplicateKeyError(err) {
			_, err = coll.ReplaceOne(ctx, bson.M{"_id": docID}, doc)
		}
		if err != nil {
			return fmt.Errorf("failed to store payload %s/%s: %w", collection, docID, err)
		}
		return nil
	}
	return backoff.Retry(op, backoff.WithContext(retryPolicy(), ctx))
}

// Fetch returns the payload bytes, or types.ErrNotFound when the
// document does not exist.
func (s *MongoStore) Fetch(ctx context.Context, collection, docID string) ([]byte, error) {
	var doc types.PayloadDoc
	err := s.db.Collection(collection).FindOne(ctx, bson.M{"_id": docID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, types.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payload %s/%s: %w", collection, docID, err)
	}
	return doc.Payload, nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, docID string) error {
	_, err := s.db.Collection(collection).DeleteOne(ctx, bson.M{"_id": docID})
	if err != nil {
		return fmt.Errorf("failed to delete payload %s/%s: %w", collection, docID, err)
	}
	return nil
}

// BulkDelete removes a batch of documents in one round trip. The
// expiration watcher calls this once per collection per flush.
func (s *MongoStore) BulkDelete(ctx context.Context, collection string, docIDs []string) (int64, error) {
	if len(docIDs) == 0 {
		return 0, nil
	}
	res, err := s.db.Collection(collection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": docIDs}})
	if err != nil {
		return 0, fmt.Errorf("failed to bulk delete from %s: %w", collection, err)
	}
	return res.DeletedCount, nil
}

func (s *MongoStore) DropCollection(ctx context.Context, collection string) error {
	if err := s.db.Collection(collection).Drop(ctx); err != nil {
		return fmt.Errorf("failed to drop collection %s: %w", collection, err)
	}
	return nil
}

func (s *MongoStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// WaitReady pings with exponential backoff. The payload store is a
// soft dependency at startup; callers log and degrade instead of
// exiting when this fails.
func (s *MongoStore) WaitReady(ctx context.Context) error {
	return backoff.Retry(func() error {
		return s.Ping(ctx)
	}, backoff.WithContext(retryPolicy(), ctx))
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// retryPolicy is the store-wide retry schedule: 3 attempts, 100ms
// initial interval, doubling.
func retryPolicy() backoff.BackOff {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 100 * time.Millisecond
	policy.Multiplier = 2
	policy.RandomizationFactor = 0
	return backoff.WithMaxRetries(policy, 2)
}
