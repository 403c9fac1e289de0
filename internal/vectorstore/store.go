package vectorstore

import (
	"context"

	"topic-rag/internal/models"
)

// Store is the uniform contract over vector index backends. A collection
// is a namespace of records; one collection exists per topic, plus the
// reserved catalog collection.
//
// Filters are hard AND constraints on payload fields, never a re-ranking
// signal: a filtered query or delete only touches records whose payload
// matches every filter field exactly. A filtered query with an all-zero
// query vector is a valid existence probe; the filter alone gates the
// match and the similarity ordering is unspecified.
type Store interface {
	// CollectionExists reports whether the named collection exists.
	CollectionExists(ctx context.Context, name string) (bool, error)
	// CreateCollection creates the named collection. Creating an existing
	// collection is a no-op.
	CreateCollection(ctx context.Context, name string) error
	// DeleteCollection removes the collection and all its records.
	// Deleting a missing collection is a no-op.
	DeleteCollection(ctx context.Context, name string) error
	// ListCollections returns all collection names, the catalog included.
	ListCollections(ctx context.Context) ([]string, error)

	// Upsert inserts or overwrites records, idempotent by id within the
	// collection.
	Upsert(ctx context.Context, collection string, records []models.Record) error
	// Get fetches a record by id. Returns models.ErrNotFound when absent.
	Get(ctx context.Context, collection, id string) (*models.Record, error)
	// DeleteByID removes records by id. Missing ids are skipped.
	DeleteByID(ctx context.Context, collection string, ids ...string) error
	// DeleteByFilter removes all records matching the filter; a no-op when
	// none match.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error
	// Query returns up to topK payloads ranked by cosine similarity,
	// restricted to records matching filter if non-empty.
	Query(ctx context.Context, collection string, vector []float32, topK int, filter map[string]string) ([]models.Payload, error)

	// Close releases backend resources.
	Close() error
}
