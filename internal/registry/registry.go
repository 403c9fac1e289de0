// Package registry manages the topic catalog: one vector collection per
// topic plus a record in the reserved table-of-contents collection
// carrying the topic description. The catalog doubles as the source of
// descriptions shown to the topic-selection model.
package registry

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"

	"github.com/rs/zerolog/log"

	"topic-rag/internal/models"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore"
)

// Topic names become collection names and directory names, so only a
// conservative character set is allowed.
var nameRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// Embedder turns a topic description into its catalog vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Registry struct {
	store    vectorstore.Store
	embedder Embedder
	files    *storage.Store
}

func New(store vectorstore.Store, embedder Embedder, files *storage.Store) *Registry {
	return &Registry{store: store, embedder: embedder, files: files}
}

// EnsureCatalog creates the table-of-contents collection if missing.
// Safe to call on every startup.
func (r *Registry) EnsureCatalog(ctx context.Context) error {
	if err := r.store.CreateCollection(ctx, models.CatalogCollection); err != nil {
		return fmt.Errorf("failed to ensure catalog collection: %w", err)
	}
	return nil
}

// List returns all topic names in sorted order, the catalog excluded.
func (r *Registry) List(ctx context.Context) ([]string, error) {
	names, err := r.store.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	topics := make([]string, 0, len(names))
	for _, name := range names {
		if name == models.CatalogCollection {
			continue
		}
		topics = append(topics, name)
	}
	sort.Strings(topics)
	return topics, nil
}

// Exists reports whether a topic collection exists. The catalog is not a
// topic.
func (r *Registry) Exists(ctx context.Context, topic string) (bool, error) {
	if topic == models.CatalogCollection {
		return false, nil
	}
	return r.store.CollectionExists(ctx, topic)
}

// Create registers a new topic: its vector collection, its upload
// directory and its catalog entry. The name must match ^[a-z0-9-]+$ and
// must not collide with an existing topic or the catalog.
func (r *Registry) Create(ctx context.Context, topic, description string) error {
	if !nameRe.MatchString(topic) || topic == models.CatalogCollection {
		return fmt.Errorf("topic %q: %w", topic, models.ErrInvalidName)
	}
	exists, err := r.store.CollectionExists(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to check topic: %w", err)
	}
	if exists {
		return fmt.Errorf("topic %q: %w", topic, models.ErrAlreadyExists)
	}

	if err := r.store.CreateCollection(ctx, topic); err != nil {
		return fmt.Errorf("failed to create topic collection: %w", err)
	}
	if err := r.files.CreateTopicDir(topic); err != nil {
		return err
	}
	if err := r.upsertCatalog(ctx, topic, description); err != nil {
		return err
	}
	log.Info().Str("topic", topic).Msg("topic created")
	return nil
}

// UpdateDescription overwrites the catalog entry of an existing topic.
func (r *Registry) UpdateDescription(ctx context.Context, topic, description string) error {
	exists, err := r.Exists(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to check topic: %w", err)
	}
	if !exists {
		return fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
	}
	return r.upsertCatalog(ctx, topic, description)
}

// Description returns the stored topic description, or a placeholder
// when the catalog holds none.
func (r *Registry) Description(ctx context.Context, topic string) (string, error) {
	rec, err := r.store.Get(ctx, models.CatalogCollection, topic)
	if errors.Is(err, models.ErrNotFound) {
		return models.NoDescription, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read catalog: %w", err)
	}
	if rec.Payload.Content == "" {
		return models.NoDescription, nil
	}
	return rec.Payload.Content, nil
}

// Descriptions returns topic name to description for every registered
// topic.
func (r *Registry) Descriptions(ctx context.Context) (map[string]string, error) {
	topics, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(topics))
	for _, topic := range topics {
		desc, err := r.Description(ctx, topic)
		if err != nil {
			return nil, err
		}
		out[topic] = desc
	}
	return out, nil
}

// Delete removes a topic entirely: collection first, then the upload
// directory, then the catalog entry. Order matters so a partial failure
// never leaves a listed topic without a collection. Every step is
// idempotent, and a topic counts as present while either its collection
// or its catalog record remains, so a delete that failed partway is
// fixed by retrying the whole delete.
func (r *Registry) Delete(ctx context.Context, topic string) error {
	if topic == models.CatalogCollection {
		return fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
	}
	exists, err := r.store.CollectionExists(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to check topic: %w", err)
	}
	if !exists {
		_, err := r.store.Get(ctx, models.CatalogCollection, topic)
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to read catalog: %w", err)
		}
	}
	if err := r.store.DeleteCollection(ctx, topic); err != nil {
		return fmt.Errorf("failed to delete topic collection: %w", err)
	}
	if err := r.files.DeleteTopicDir(topic); err != nil {
		return fmt.Errorf("failed to delete topic directory: %w", err)
	}
	if err := r.store.DeleteByID(ctx, models.CatalogCollection, topic); err != nil {
		return fmt.Errorf("failed to delete catalog entry: %w", err)
	}
	log.Info().Str("topic", topic).Msg("topic deleted")
	return nil
}

func (r *Registry) upsertCatalog(ctx context.Context, topic, description string) error {
	vector, err := r.embedder.Embed(ctx, description)
	if err != nil {
		return fmt.Errorf("failed to embed description: %w", err)
	}
	rec := models.Record{
		ID:      topic,
		Vector:  vector,
		Payload: models.Payload{Content: description},
	}
	if err := r.store.Upsert(ctx, models.CatalogCollection, []models.Record{rec}); err != nil {
		return fmt.Errorf("failed to write catalog entry: %w", err)
	}
	return nil
}
