// Package storage manages the upload root: one directory per topic, one
// directory per document holding the original file plus an images/
// subdirectory for media extracted from it.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const imagesDirName = "images"

type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload root: %w", err)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string { return s.root }

// Base is the last element of the upload root, used as the URL prefix of
// citation links.
func (s *Store) Base() string { return filepath.Base(s.root) }

func (s *Store) TopicDir(topic string) string {
	return filepath.Join(s.root, topic)
}

func (s *Store) CreateTopicDir(topic string) error {
	if err := os.MkdirAll(s.TopicDir(topic), 0o755); err != nil {
		return fmt.Errorf("failed to create topic directory: %w", err)
	}
	return nil
}

// DeleteTopicDir removes a topic directory recursively. Missing
// directories are a no-op.
func (s *Store) DeleteTopicDir(topic string) error {
	return os.RemoveAll(s.TopicDir(topic))
}

func (s *Store) DocumentDir(topic, fileName string) string {
	return filepath.Join(s.root, topic, fileName)
}

func (s *Store) DocumentPath(topic, fileName string) string {
	return filepath.Join(s.root, topic, fileName, fileName)
}

func (s *Store) ImagesDir(topic, fileName string) string {
	return filepath.Join(s.root, topic, fileName, imagesDirName)
}

// SaveDocument writes the uploaded payload under
// <root>/<topic>/<fileName>/<fileName> and returns the document directory.
func (s *Store) SaveDocument(topic, fileName string, r io.Reader) (string, error) {
	docDir := s.DocumentDir(topic, fileName)
	if err := os.MkdirAll(docDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create document directory: %w", err)
	}
	f, err := os.Create(s.DocumentPath(topic, fileName))
	if err != nil {
		return "", fmt.Errorf("failed to create document file: %w", err)
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", fmt.Errorf("failed to write document file: %w", err)
	}
	return docDir, nil
}

// ListDocuments returns the uploaded file names of a topic. A missing
// topic directory yields an empty list.
func (s *Store) ListDocuments(topic string) ([]string, error) {
	entries, err := os.ReadDir(s.TopicDir(topic))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list topic directory: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

// DeleteDocument removes a document directory recursively. Deleting a
// missing document is a no-op.
func (s *Store) DeleteDocument(topic, fileName string) error {
	return os.RemoveAll(s.DocumentDir(topic, fileName))
}

// RelPath returns p relative to the upload root with forward slashes, for
// storage in chunk records and use in citation links.
func (s *Store) RelPath(p string) string {
	rel, err := filepath.Rel(s.root, p)
	if err != nil {
		rel = p
	}
	return filepath.ToSlash(rel)
}
