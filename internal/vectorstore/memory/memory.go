// Package memory is a brute-force in-memory vector store. It backs tests
// and single-process development setups where no index server is running.
package memory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"topic-rag/internal/models"
)

type Store struct {
	mu          sync.RWMutex
	collections map[string]map[string]models.Record
}

func New() *Store {
	return &Store{collections: make(map[string]map[string]models.Record)}
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.collections[name]
	return ok, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.collections[name]; !ok {
		s.collections[name] = make(map[string]models.Record)
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.collections, name)
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, records []models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return fmt.Errorf("collection %q: %w", collection, models.ErrNotFound)
	}
	for _, rec := range records {
		c[rec.ID] = rec
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, models.ErrNotFound)
	}
	rec, ok := c[id]
	if !ok {
		return nil, fmt.Errorf("record %q: %w", id, models.ErrNotFound)
	}
	return &rec, nil
}

func (s *Store) DeleteByID(ctx context.Context, collection string, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	for _, id := range ids {
		delete(c, id)
	}
	return nil
}

func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil
	}
	for id, rec := range c {
		if matches(rec.Payload, filter) {
			delete(c, id)
		}
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) ([]models.Payload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("collection %q: %w", collection, models.ErrNotFound)
	}
	if topK <= 0 {
		topK = 5
	}

	type scored struct {
		payload models.Payload
		score   float64
	}
	var candidates []scored
	for _, rec := range c {
		if !matches(rec.Payload, filter) {
			continue
		}
		candidates = append(candidates, scored{rec.Payload, cosine(vector, rec.Vector)})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})
	if topK > len(candidates) {
		topK = len(candidates)
	}
	payloads := make([]models.Payload, 0, topK)
	for _, c := range candidates[:topK] {
		payloads = append(payloads, c.payload)
	}
	return payloads, nil
}

func (s *Store) Close() error { return nil }

func matches(p models.Payload, filter map[string]string) bool {
	for key, want := range filter {
		if p.Field(key) != want {
			return false
		}
	}
	return true
}

// cosine returns 0 for zero-length or zero-norm vectors so that
// existence probes with an all-zero query rank everything equally.
func cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
