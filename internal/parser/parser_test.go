package parser

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"topic-rag/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("report.pdf"))
	assert.True(t, IsDocument("REPORT.PDF"))
	assert.True(t, IsDocument("notes.md"))
	assert.True(t, IsDocument("sheet.ods"))
	assert.False(t, IsDocument("photo.png"))
	assert.False(t, IsDocument("archive.zip"))
	assert.False(t, IsDocument("noextension"))
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("photo.png"))
	assert.True(t, IsImage("photo.JPG"))
	assert.True(t, IsImage("photo.jpeg"))
	assert.False(t, IsImage("photo.gif"))
	assert.False(t, IsImage("report.pdf"))
}

func TestExtractTextPlain(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.txt", "hello plain world")
	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Equal(t, "hello plain world", text)
}

func TestExtractTextMarkdownStripsMarkup(t *testing.T) {
	path := writeFile(t, t.TempDir(), "note.md",
		"# Title\n\nSome *emphasized* text with a [link](https://example.com).\n")
	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "emphasized")
	assert.Contains(t, text, "link")
	assert.NotContains(t, text, "#")
	assert.NotContains(t, text, "https://example.com")
	assert.NotContains(t, text, "*")
}

func TestExtractTextUnsupported(t *testing.T) {
	path := writeFile(t, t.TempDir(), "data.bin", "binary")
	_, err := ExtractText(path)
	assert.ErrorIs(t, err, models.ErrUnsupportedFormat)
}

func TestExtractTagText(t *testing.T) {
	xml := `<p><w:t>Hello</w:t></p><p><w:t xml:space="preserve">world</w:t></p><w:table/>`
	assert.Equal(t, "Hello world ", extractTagText(xml, "w:t"))
}

func TestExtractTagTextIgnoresPrefixCollisions(t *testing.T) {
	// <w:tbl> must not be mistaken for <w:t>.
	xml := `<w:tbl><w:t>inner</w:t></w:tbl>`
	assert.Equal(t, "inner ", extractTagText(xml, "w:t"))
}

func writePPTX(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "deck.pptx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := zip.NewWriter(f)
	slide, err := w.Create("ppt/slides/slide1.xml")
	require.NoError(t, err)
	_, err = slide.Write([]byte(`<p:sld><a:t>slide title</a:t><a:t>body text</a:t></p:sld>`))
	require.NoError(t, err)
	media, err := w.Create("ppt/media/image1.png")
	require.NoError(t, err)
	_, err = media.Write([]byte("fake png bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return path
}

func TestExtractTextPPTX(t *testing.T) {
	path := writePPTX(t, t.TempDir())
	text, err := ExtractText(path)
	require.NoError(t, err)
	assert.Contains(t, text, "slide title")
	assert.Contains(t, text, "body text")
}

func TestExtractImagesPPTX(t *testing.T) {
	dir := t.TempDir()
	path := writePPTX(t, dir)

	destDir := filepath.Join(dir, "images")
	saved, err := ExtractImages(path, destDir)
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, filepath.Join(destDir, "image1.png"), saved[0])

	data, err := os.ReadFile(saved[0])
	require.NoError(t, err)
	assert.Equal(t, "fake png bytes", string(data))
}

func TestExtractImagesUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "note.txt", "no media here")

	saved, err := ExtractImages(path, filepath.Join(dir, "images"))
	require.NoError(t, err)
	assert.Empty(t, saved)
}
