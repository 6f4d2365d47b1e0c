package vecstore

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryStore is an in-process backend used by tests and single-node dev
// setups. It mirrors the tenant/collection semantics of the real backends,
// including upsert-by-id.
type MemoryStore struct {
	mu      sync.RWMutex
	tenants map[string]map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{tenants: make(map[string]map[string]Record)}
}

func (s *MemoryStore) Collection(tenantID string) Collection {
	return &memoryCollection{store: s, tenantID: tenantID}
}

func (s *MemoryStore) Close() error {
	return nil
}

// Count reports the number of records in a tenant's collection.
func (s *MemoryStore) Count(tenantID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tenants[tenantID])
}

type memoryCollection struct {
	store    *MemoryStore
	tenantID string
}

func (c *memoryCollection) Add(ctx context.Context, records []Record) error {
	_ = ctx
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	collection := c.store.tenants[c.tenantID]
	if collection == nil {
		collection = make(map[string]Record)
		c.store.tenants[c.tenantID] = collection
	}
	for _, record := range records {
		collection[record.ID] = record
	}
	return nil
}

func (c *memoryCollection) DeleteBySource(ctx context.Context, emailRefID string) bool {
	_ = ctx
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	collection := c.store.tenants[c.tenantID]
	for id, record := range collection {
		if record.EmailRefID == emailRefID {
			delete(collection, id)
		}
	}
	return true
}

func (c *memoryCollection) Search(ctx context.Context, vector []float32, limit int) SearchOutcome {
	_ = ctx
	c.store.mu.RLock()
	defer c.store.mu.RUnlock()
	collection := c.store.tenants[c.tenantID]
	if len(collection) == 0 {
		return SearchOutcome{}
	}
	type scored struct {
		record Record
		score  float32
	}
	matches := make([]scored, 0, len(collection))
	for _, record := range collection {
		matches = append(matches, scored{record: record, score: cosineSimilarity(vector, record.Embedding)})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})
	if limit > len(matches) {
		limit = len(matches)
	}
	records := make([]Record, 0, limit)
	for i := 0; i < limit; i++ {
		records = append(records, matches[i].record)
	}
	return SearchOutcome{Records: records}
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
