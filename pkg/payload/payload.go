package payload

import (
	"context"
)

// Store is the payload store: large job and topic-message bodies,
// addressed by collection and document ID. Collections use the
// underscore form ({prefix}_{queue}, {prefix}_{queue}_topics) so the
// expiration watcher can address them from expired marker keys.
//
// Implemented by MongoStore (production), RedisStore (payloads
// co-located with the metadata index) and MemoryStore (embedded mode
// and tests).
type Store interface {
	Put(ctx context.Context, collection, docID string, payload []byte) error
	Fetch(ctx context.Context, collection, docID string) ([]byte, error)
	Delete(ctx context.Context, collection, docID string) error
	// BulkDelete removes a batch of documents from one collection and
	// reports how many existed.
	BulkDelete(ctx context.Context, collection string, docIDs []string) (int64, error)
	DropCollection(ctx context.Context, collection string) error

	Ping(ctx context.Context) error
	Close() error
}
