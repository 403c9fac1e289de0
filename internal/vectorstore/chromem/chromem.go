// Package chromem backs the vector store contract with an embedded
// chromem-go database persisted under a local directory. It needs no
// running index server.
package chromem

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"github.com/philippgille/chromem-go"

	"topic-rag/internal/models"
)

const compress = false

type Store struct {
	db *chromem.DB
}

func New(path string) (*Store, error) {
	db, err := chromem.NewPersistentDB(path, compress)
	if err != nil {
		return nil, fmt.Errorf("failed to create database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	return s.db.GetCollection(name, nil) != nil, nil
}

func (s *Store) CreateCollection(ctx context.Context, name string) error {
	if _, err := s.db.GetOrCreateCollection(name, nil, nil); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	return nil
}

func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	if s.db.GetCollection(name, nil) == nil {
		return nil
	}
	if err := s.db.DeleteCollection(name); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	return nil
}

func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	collections := s.db.ListCollections()
	names := make([]string, 0, len(collections))
	for name := range collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *Store) Upsert(ctx context.Context, collection string, records []models.Record) error {
	if len(records) == 0 {
		return nil
	}
	c, err := s.db.GetOrCreateCollection(collection, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}
	docs := make([]chromem.Document, len(records))
	for i, rec := range records {
		docs[i] = chromem.Document{
			ID:        rec.ID,
			Content:   rec.Payload.Content,
			Metadata:  metadataOf(rec.Payload),
			Embedding: rec.Vector,
		}
	}
	if err := c.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection, id string) (*models.Record, error) {
	c := s.db.GetCollection(collection, nil)
	if c == nil {
		return nil, fmt.Errorf("collection %q: %w", collection, models.ErrNotFound)
	}
	doc, err := c.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", id, models.ErrNotFound)
	}
	return &models.Record{
		ID:      doc.ID,
		Vector:  doc.Embedding,
		Payload: payloadOf(doc.Content, doc.Metadata),
	}, nil
}

func (s *Store) DeleteByID(ctx context.Context, collection string, ids ...string) error {
	c := s.db.GetCollection(collection, nil)
	if c == nil || len(ids) == 0 {
		return nil
	}
	if err := c.Delete(ctx, nil, nil, ids...); err != nil {
		return fmt.Errorf("failed to delete by id: %w", err)
	}
	return nil
}

func (s *Store) DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error {
	c := s.db.GetCollection(collection, nil)
	if c == nil {
		return nil
	}
	if c.Count() == 0 {
		return nil
	}
	if err := c.Delete(ctx, filter, nil); err != nil {
		return fmt.Errorf("failed to delete by filter: %w", err)
	}
	return nil
}

func (s *Store) Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) ([]models.Payload, error) {
	c := s.db.GetCollection(collection, nil)
	if c == nil {
		return nil, fmt.Errorf("collection %q: %w", collection, models.ErrNotFound)
	}
	if topK <= 0 {
		topK = 5
	}
	// chromem rejects result counts above the collection size.
	if n := c.Count(); topK > n {
		topK = n
	}
	if topK == 0 {
		return nil, nil
	}
	// chromem cannot rank against a zero vector; existence probes get an
	// arbitrary unit vector because the filter alone gates the match.
	if isZero(vector) {
		vector = basisVector(len(vector))
	}
	results, err := c.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       topK,
		Where:          filter,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query by similarity: %w", err)
	}
	payloads := make([]models.Payload, 0, len(results))
	for _, res := range results {
		payloads = append(payloads, payloadOf(res.Content, res.Metadata))
	}
	return payloads, nil
}

func (s *Store) Close() error { return nil }

func metadataOf(p models.Payload) map[string]string {
	meta := make(map[string]string, 3)
	if p.Source != "" {
		meta["source"] = p.Source
	}
	if p.FilePath != "" {
		meta["file_path"] = p.FilePath
	}
	if p.Type != "" {
		meta["type"] = p.Type
	}
	return meta
}

func payloadOf(content string, meta map[string]string) models.Payload {
	return models.Payload{
		Content:  content,
		Source:   meta["source"],
		FilePath: meta["file_path"],
		Type:     meta["type"],
	}
}

func isZero(vector []float32) bool {
	for _, v := range vector {
		if v != 0 {
			return false
		}
	}
	return true
}

func basisVector(dim int) []float32 {
	if dim == 0 {
		dim = 1
	}
	v := make([]float32, dim)
	v[0] = 1
	return v
}
