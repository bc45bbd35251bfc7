package payload

import (
	"context"
	"sync"

	"github.com/vuer-ai/zaku-go/pkg/types"
)

// MemoryStore is an in-process Store used by embedded mode and tests.
type MemoryStore struct {
	mu          sync.Mutex
	collections map[string]map[string][]byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string]map[string][]byte)}
}

func (s *MemoryStore) Put(_ context.Context, collection, docID string, payload []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll, ok := s.collections[collection]
	if !ok {
		coll = make(map[string][]byte)
		s.collections[collection] = coll
	}
	coll[docID] = append([]byte(nil), payload...)
	return nil
}

func (s *MemoryStore) Fetch(_ context.Context, collection, docID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b, ok := s.collections[collection][docID]; ok {
		return append([]byte(nil), b...), nil
	}
	return nil, types.ErrNotFound
}

func (s *MemoryStore) Delete(_ context.Context, collection, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections[collection], docID)
	return nil
}

func (s *MemoryStore) BulkDelete(_ context.Context, collection string, docIDs []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	coll := s.collections[collection]
	var n int64
	for _, id := range docIDs {
		if _, ok := coll[id]; ok {
			delete(coll, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) DropCollection(_ context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, collection)
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }
