package storage

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)
	return s
}

func TestNewCreatesRoot(t *testing.T) {
	s := newTestStore(t)
	info, err := os.Stat(s.Root())
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "uploads", s.Base())
}

func TestSaveDocumentLayout(t *testing.T) {
	s := newTestStore(t)
	docDir, err := s.SaveDocument("docs", "guide.txt", strings.NewReader("hello"))
	require.NoError(t, err)
	assert.Equal(t, s.DocumentDir("docs", "guide.txt"), docDir)

	data, err := os.ReadFile(s.DocumentPath("docs", "guide.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// The document lives in a directory named after itself.
	assert.Equal(t,
		filepath.Join(s.Root(), "docs", "guide.txt", "guide.txt"),
		s.DocumentPath("docs", "guide.txt"))
}

func TestListDocuments(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveDocument("docs", "b.txt", strings.NewReader("b"))
	require.NoError(t, err)
	_, err = s.SaveDocument("docs", "a.txt", strings.NewReader("a"))
	require.NoError(t, err)

	names, err := s.ListDocuments("docs")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, names)
}

func TestListDocumentsMissingTopic(t *testing.T) {
	s := newTestStore(t)
	names, err := s.ListDocuments("never-created")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDeleteDocument(t *testing.T) {
	s := newTestStore(t)
	_, err := s.SaveDocument("docs", "guide.txt", strings.NewReader("hello"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteDocument("docs", "guide.txt"))
	_, err = os.Stat(s.DocumentDir("docs", "guide.txt"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, s.DeleteDocument("docs", "guide.txt"))
}

func TestDeleteTopicDir(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.CreateTopicDir("docs"))
	_, err := s.SaveDocument("docs", "guide.txt", strings.NewReader("hello"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteTopicDir("docs"))
	_, err = os.Stat(s.TopicDir("docs"))
	assert.True(t, os.IsNotExist(err))
}

func TestRelPath(t *testing.T) {
	s := newTestStore(t)
	rel := s.RelPath(s.DocumentPath("docs", "guide.txt"))
	assert.Equal(t, "docs/guide.txt/guide.txt", rel)

	rel = s.RelPath(filepath.Join(s.ImagesDir("docs", "deck.pptx"), "image1.png"))
	assert.Equal(t, "docs/deck.pptx/images/image1.png", rel)
}
