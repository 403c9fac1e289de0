// Package corpus manages the uploaded files of a topic: registration,
// listing with embedding status, and removal from both disk and index.
package corpus

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"

	"topic-rag/internal/ingest"
	"topic-rag/internal/models"
	"topic-rag/internal/parser"
	"topic-rag/internal/storage"
	"topic-rag/internal/vectorstore"
)

type Corpus struct {
	store    vectorstore.Store
	files    *storage.Store
	pipeline *ingest.Pipeline
	dim      int
}

func New(store vectorstore.Store, files *storage.Store, pipeline *ingest.Pipeline, dim int) *Corpus {
	return &Corpus{store: store, files: files, pipeline: pipeline, dim: dim}
}

// RegisterUpload stores an uploaded file under the topic and extracts
// any embedded media right away, so the document directory is complete
// before embedding is requested. The file is not indexed yet. Returns
// the document directory holding the file and its extracted media.
func (c *Corpus) RegisterUpload(ctx context.Context, topic, fileName string, r io.Reader) (string, error) {
	exists, err := c.store.CollectionExists(ctx, topic)
	if err != nil {
		return "", fmt.Errorf("failed to check topic: %w", err)
	}
	if !exists {
		return "", fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
	}
	if !parser.IsDocument(fileName) && !parser.IsImage(fileName) {
		return "", fmt.Errorf("%w: %s", models.ErrUnsupportedFormat, fileName)
	}

	docDir, err := c.files.SaveDocument(topic, fileName, r)
	if err != nil {
		return "", err
	}
	saved, err := parser.ExtractImages(
		c.files.DocumentPath(topic, fileName),
		c.files.ImagesDir(topic, fileName),
	)
	if err != nil {
		log.Warn().Err(err).Str("file", fileName).Msg("failed to extract embedded media")
	}
	log.Info().Str("topic", topic).Str("file", fileName).
		Int("extracted_images", len(saved)).Msg("file uploaded")
	return docDir, nil
}

// ListFiles returns the uploaded files of a topic with their embedding
// status.
func (c *Corpus) ListFiles(ctx context.Context, topic string) ([]models.FileInfo, error) {
	exists, err := c.store.CollectionExists(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("failed to check topic: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
	}

	names, err := c.files.ListDocuments(topic)
	if err != nil {
		return nil, err
	}
	infos := make([]models.FileInfo, 0, len(names))
	for _, name := range names {
		embedded, err := c.IsEmbedded(ctx, topic, name)
		if err != nil {
			return nil, err
		}
		infos = append(infos, models.FileInfo{Name: name, Embedded: embedded})
	}
	return infos, nil
}

// IsEmbedded probes the topic collection for any record of the file. The
// probe queries with a zero vector; the source filter alone decides the
// match.
func (c *Corpus) IsEmbedded(ctx context.Context, topic, fileName string) (bool, error) {
	payloads, err := c.store.Query(ctx, topic, make([]float32, c.dim), 1,
		map[string]string{"source": fileName})
	if err != nil {
		return false, fmt.Errorf("failed to probe index: %w", err)
	}
	return len(payloads) > 0, nil
}

// Unembed drops the indexed records of a file, keeping the file on disk.
func (c *Corpus) Unembed(ctx context.Context, topic, fileName string) error {
	return c.pipeline.Unembed(ctx, topic, fileName)
}

// DeleteFiles removes files from disk and their records from the index.
// Names that do not exist are skipped, so the operation is idempotent.
// A file that fails is logged and counted, the rest of the batch still
// goes through.
func (c *Corpus) DeleteFiles(ctx context.Context, topic string, fileNames []string) error {
	exists, err := c.store.CollectionExists(ctx, topic)
	if err != nil {
		return fmt.Errorf("failed to check topic: %w", err)
	}
	if !exists {
		return fmt.Errorf("topic %q: %w", topic, models.ErrNotFound)
	}

	var failed int
	for _, name := range fileNames {
		if err := c.deleteFile(ctx, topic, name); err != nil {
			log.Error().Err(err).Str("topic", topic).Str("file", name).Msg("failed to delete file")
			failed++
			continue
		}
		log.Info().Str("topic", topic).Str("file", name).Msg("file deleted")
	}
	if failed > 0 {
		return fmt.Errorf("failed to delete %d of %d files", failed, len(fileNames))
	}
	return nil
}

func (c *Corpus) deleteFile(ctx context.Context, topic, name string) error {
	if err := c.pipeline.Unembed(ctx, topic, name); err != nil {
		return err
	}
	if err := c.files.DeleteDocument(topic, name); err != nil {
		return fmt.Errorf("failed to delete %q: %w", name, err)
	}
	return nil
}
