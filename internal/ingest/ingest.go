// Package ingest turns uploaded documents into indexed vector records:
// text is chunked and embedded, embedded and standalone images are
// described by the vision model and the descriptions embedded. Record
// ids are deterministic per source file so re-ingestion overwrites
// instead of duplicating.
package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"topic-rag/internal/models"
	"topic-rag/internal/parser"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore"
)

// Describer produces a natural-language description of an image file.
type Describer interface {
	DescribeImage(ctx context.Context, imagePath string) (string, error)
}

// Embedder turns chunk text into its vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Pipeline struct {
	store     vectorstore.Store
	embedder  Embedder
	files     *storage.Store
	vision    Describer
	chunkSize int
	overlap   int
}

func NewPipeline(store vectorstore.Store, embedder Embedder, files *storage.Store, vision Describer, chunkSize, overlap int) *Pipeline {
	return &Pipeline{
		store:     store,
		embedder:  embedder,
		files:     files,
		vision:    vision,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// EmbedFiles indexes the named uploaded files of a topic and returns the
// number of text chunks and image descriptions written. A file that
// fails is logged and skipped; the rest of the batch still goes through.
func (p *Pipeline) EmbedFiles(ctx context.Context, topic string, fileNames []string) (int, int, error) {
	exists, err := p.store.CollectionExists(ctx, topic)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to check topic collection: %w", err)
	}
	if !exists {
		return 0, 0, fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
	}

	var textCount, imageCount int
	for _, name := range fileNames {
		t, i, err := p.embedFile(ctx, topic, name)
		if err != nil {
			log.Error().Err(err).Str("topic", topic).Str("file", name).Msg("failed to embed file")
			continue
		}
		textCount += t
		imageCount += i
	}
	return textCount, imageCount, nil
}

func (p *Pipeline) embedFile(ctx context.Context, topic, fileName string) (int, int, error) {
	docPath := p.files.DocumentPath(topic, fileName)
	if _, err := os.Stat(docPath); err != nil {
		return 0, 0, fmt.Errorf("document %q: %w", fileName, models.ErrNotFound)
	}

	var records []models.Record
	var textCount, imageCount int

	if parser.IsDocument(fileName) {
		text, err := parser.ExtractText(docPath)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to extract text: %w", err)
		}
		for i, chunk := range ChunkText(text, p.chunkSize, p.overlap) {
			vector, err := p.embedder.Embed(ctx, chunk)
			if err != nil {
				return 0, 0, fmt.Errorf("failed to embed chunk %d: %w", i, err)
			}
			records = append(records, models.Record{
				ID:     fmt.Sprintf("%s-%s-%d", fileName, models.TypeText, i),
				Vector: vector,
				Payload: models.Payload{
					Content:  chunk,
					Source:   fileName,
					FilePath: p.files.RelPath(docPath),
					Type:     models.TypeText,
				},
			})
			textCount++
		}
	}

	imagePaths, err := p.collectImages(topic, fileName)
	if err != nil {
		return 0, 0, err
	}
	for i, imagePath := range imagePaths {
		description, err := p.vision.DescribeImage(ctx, imagePath)
		if err != nil {
			log.Warn().Err(err).Str("image", imagePath).Msg("failed to describe image")
			continue
		}
		vector, err := p.embedder.Embed(ctx, description)
		if err != nil {
			return 0, 0, fmt.Errorf("failed to embed image description: %w", err)
		}
		records = append(records, models.Record{
			ID:     fmt.Sprintf("%s-%s-%d", fileName, models.TypeImage, i),
			Vector: vector,
			Payload: models.Payload{
				Content:  description,
				Source:   fileName,
				FilePath: p.files.RelPath(imagePath),
				Type:     models.TypeImage,
			},
		})
		imageCount++
	}

	if len(records) > 0 {
		if err := p.store.Upsert(ctx, topic, records); err != nil {
			return 0, 0, fmt.Errorf("failed to upsert records: %w", err)
		}
	}
	log.Info().Str("topic", topic).Str("file", fileName).
		Int("text_chunks", textCount).Int("images", imageCount).Msg("file embedded")
	return textCount, imageCount, nil
}

// collectImages lists the images belonging to a document: a standalone
// image upload is its own image, a document's extracted media lives in
// its images/ directory.
func (p *Pipeline) collectImages(topic, fileName string) ([]string, error) {
	if parser.IsImage(fileName) {
		return []string{p.files.DocumentPath(topic, fileName)}, nil
	}
	entries, err := os.ReadDir(p.files.ImagesDir(topic, fileName))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if parser.IsImage(entry.Name()) {
			paths = append(paths, filepath.Join(p.files.ImagesDir(topic, fileName), entry.Name()))
		}
	}
	return paths, nil
}

// Unembed removes all indexed records of a file while leaving the
// uploaded file on disk. Unembedding a file with no records is a no-op.
func (p *Pipeline) Unembed(ctx context.Context, topic, fileName string) error {
	if err := p.store.DeleteByFilter(ctx, topic, map[string]string{"source": fileName}); err != nil {
		return fmt.Errorf("failed to unembed %q: %w", fileName, err)
	}
	return nil
}
