package corpus

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topic-rag/internal/ingest"
	"topic-rag/internal/models"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore/memory"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{float32(len(text)), 1}, nil
}

type stubVision struct{}

func (stubVision) DescribeImage(ctx context.Context, imagePath string) (string, error) {
	return "an image", nil
}

func newTestCorpus(t *testing.T) (*Corpus, *memory.Store, *storage.Store) {
	t.Helper()
	files, err := storage.New(t.TempDir())
	require.NoError(t, err)
	store := memory.New()
	pipeline := ingest.NewPipeline(store, stubEmbedder{}, files, stubVision{}, 10, 3)
	return New(store, files, pipeline, 2), store, files
}

func TestRegisterUploadAndList(t *testing.T) {
	ctx := context.Background()
	c, store, files := newTestCorpus(t)
	require.NoError(t, store.CreateCollection(ctx, "docs"))

	docDir, err := c.RegisterUpload(ctx, "docs", "guide.txt", strings.NewReader("hello world"))
	require.NoError(t, err)
	assert.Equal(t, files.DocumentDir("docs", "guide.txt"), docDir)

	infos, err := c.ListFiles(ctx, "docs")
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "guide.txt", infos[0].Name)
	assert.False(t, infos[0].Embedded)
}

func TestRegisterUploadUnknownTopic(t *testing.T) {
	c, _, _ := newTestCorpus(t)
	_, err := c.RegisterUpload(context.Background(), "nope", "guide.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestRegisterUploadRejectsUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCorpus(t)
	require.NoError(t, store.CreateCollection(ctx, "docs"))

	_, err := c.RegisterUpload(ctx, "docs", "malware.exe", strings.NewReader("x"))
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestEmbeddedStatusFlips(t *testing.T) {
	ctx := context.Background()
	c, store, _ := newTestCorpus(t)
	require.NoError(t, store.CreateCollection(ctx, "docs"))
	_, err := c.RegisterUpload(ctx, "docs", "guide.txt", strings.NewReader("alpha beta gamma"))
	require.NoError(t, err)

	embedded, err := c.IsEmbedded(ctx, "docs", "guide.txt")
	require.NoError(t, err)
	assert.False(t, embedded)

	require.NoError(t, store.Upsert(ctx, "docs", []models.Record{{
		ID:      "guide.txt-text-0",
		Vector:  []float32{1, 0},
		Payload: models.Payload{Content: "alpha beta gamma", Source: "guide.txt", Type: models.TypeText},
	}}))

	embedded, err = c.IsEmbedded(ctx, "docs", "guide.txt")
	require.NoError(t, err)
	assert.True(t, embedded)

	require.NoError(t, c.Unembed(ctx, "docs", "guide.txt"))
	embedded, err = c.IsEmbedded(ctx, "docs", "guide.txt")
	require.NoError(t, err)
	assert.False(t, embedded)
}

func TestDeleteFiles(t *testing.T) {
	ctx := context.Background()
	c, store, files := newTestCorpus(t)
	require.NoError(t, store.CreateCollection(ctx, "docs"))
	_, err := c.RegisterUpload(ctx, "docs", "guide.txt", strings.NewReader("alpha beta"))
	require.NoError(t, err)
	require.NoError(t, store.Upsert(ctx, "docs", []models.Record{{
		ID:      "guide.txt-text-0",
		Vector:  []float32{1, 0},
		Payload: models.Payload{Content: "alpha beta", Source: "guide.txt", Type: models.TypeText},
	}}))

	require.NoError(t, c.DeleteFiles(ctx, "docs", []string{"guide.txt"}))

	infos, err := c.ListFiles(ctx, "docs")
	require.NoError(t, err)
	assert.Empty(t, infos)

	embedded, err := c.IsEmbedded(ctx, "docs", "guide.txt")
	require.NoError(t, err)
	assert.False(t, embedded)

	_, err = os.Stat(files.DocumentDir("docs", "guide.txt"))
	assert.True(t, os.IsNotExist(err))

	// Deleting an already absent file is a no-op.
	require.NoError(t, c.DeleteFiles(ctx, "docs", []string{"guide.txt"}))
}

// failingDeleteStore errors on DeleteByFilter for one source.
type failingDeleteStore struct {
	*memory.Store
	failSource string
}

func (s *failingDeleteStore) DeleteByFilter(ctx context.Context, collection string, filter map[string]string) error {
	if filter["source"] == s.failSource {
		return errors.New("index unreachable")
	}
	return s.Store.DeleteByFilter(ctx, collection, filter)
}

func TestDeleteFilesContinuesPastFailures(t *testing.T) {
	ctx := context.Background()
	files, err := storage.New(t.TempDir())
	require.NoError(t, err)
	store := &failingDeleteStore{Store: memory.New(), failSource: "bad.txt"}
	pipeline := ingest.NewPipeline(store, stubEmbedder{}, files, stubVision{}, 10, 3)
	c := New(store, files, pipeline, 2)

	require.NoError(t, store.CreateCollection(ctx, "docs"))
	for _, name := range []string{"bad.txt", "good.txt"} {
		_, err := c.RegisterUpload(ctx, "docs", name, strings.NewReader("some text"))
		require.NoError(t, err)
	}

	err = c.DeleteFiles(ctx, "docs", []string{"bad.txt", "good.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// The failing file aborts nothing else in the batch.
	_, err = os.Stat(files.DocumentDir("docs", "good.txt"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(files.DocumentDir("docs", "bad.txt"))
	assert.NoError(t, err)
}
