package registry

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topic-rag/internal/models"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore/memory"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

func newTestRegistry(t *testing.T) *Registry {
	t.Helper()
	r, _, _ := newTestRegistryParts(t)
	return r
}

func newTestRegistryParts(t *testing.T) (*Registry, *memory.Store, *storage.Store) {
	t.Helper()
	files, err := storage.New(t.TempDir())
	require.NoError(t, err)
	store := memory.New()
	r := New(store, stubEmbedder{}, files)
	require.NoError(t, r.EnsureCatalog(context.Background()))
	return r, store, files
}

func TestCreateAndList(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	require.NoError(t, r.Create(ctx, "golang", "Go language documentation"))
	require.NoError(t, r.Create(ctx, "kubernetes", "cluster runbooks"))

	topics, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"golang", "kubernetes"}, topics)
}

func TestCatalogNeverListedAsTopic(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	topics, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)

	exists, err := r.Exists(ctx, models.CatalogCollection)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreateRejectsInvalidNames(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	for _, name := range []string{"", "Has Space", "UPPER", "dots.topic", "path/name", models.CatalogCollection} {
		err := r.Create(ctx, name, "desc")
		assert.ErrorIs(t, err, models.ErrInvalidName, "name %q", name)
	}
}

func TestCreateRejectsDuplicates(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	require.NoError(t, r.Create(ctx, "golang", "first"))
	err := r.Create(ctx, "golang", "second")
	assert.ErrorIs(t, err, models.ErrAlreadyExists)
}

func TestDescriptionRoundTrip(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	require.NoError(t, r.Create(ctx, "golang", "Go language documentation"))

	desc, err := r.Description(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, "Go language documentation", desc)

	require.NoError(t, r.UpdateDescription(ctx, "golang", "updated"))
	desc, err = r.Description(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, "updated", desc)
}

func TestDescriptionPlaceholderWhenMissing(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	desc, err := r.Description(ctx, "never-created")
	require.NoError(t, err)
	assert.Equal(t, models.NoDescription, desc)
}

func TestUpdateDescriptionUnknownTopic(t *testing.T) {
	r := newTestRegistry(t)
	err := r.UpdateDescription(context.Background(), "nope", "desc")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	require.NoError(t, r.Create(ctx, "golang", "desc"))
	require.NoError(t, r.Delete(ctx, "golang"))

	topics, err := r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, topics)

	desc, err := r.Description(ctx, "golang")
	require.NoError(t, err)
	assert.Equal(t, models.NoDescription, desc)

	err = r.Delete(ctx, "golang")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteRetryAfterPartialFailure(t *testing.T) {
	ctx := context.Background()
	r, store, files := newTestRegistryParts(t)

	require.NoError(t, r.Create(ctx, "manuals", "machine manuals"))

	// A delete that failed after removing the collection leaves the
	// topic directory and catalog record behind.
	require.NoError(t, store.DeleteCollection(ctx, "manuals"))
	_, err := os.Stat(files.TopicDir("manuals"))
	require.NoError(t, err)
	_, err = store.Get(ctx, models.CatalogCollection, "manuals")
	require.NoError(t, err)

	// Retrying the whole delete cleans up the leftovers.
	require.NoError(t, r.Delete(ctx, "manuals"))
	_, err = os.Stat(files.TopicDir("manuals"))
	assert.True(t, os.IsNotExist(err))
	_, err = store.Get(ctx, models.CatalogCollection, "manuals")
	assert.ErrorIs(t, err, models.ErrNotFound)

	err = r.Delete(ctx, "manuals")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDeleteCatalogIsNotATopic(t *testing.T) {
	r := newTestRegistry(t)
	err := r.Delete(context.Background(), models.CatalogCollection)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestDescriptions(t *testing.T) {
	ctx := context.Background()
	r := newTestRegistry(t)

	require.NoError(t, r.Create(ctx, "a", "alpha"))
	require.NoError(t, r.Create(ctx, "b", "beta"))

	descs, err := r.Descriptions(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "alpha", "b": "beta"}, descs)
}
