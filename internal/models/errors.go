package models

import "errors"

var (
	// ErrInvalidName rejects topic names outside ^[a-z0-9-]+$.
	ErrInvalidName = errors.New("topic name must be lowercase alphanumeric or '-'")

	// ErrAlreadyExists rejects creation of a topic that already exists.
	ErrAlreadyExists = errors.New("topic already exists")

	// ErrNotFound marks an unknown topic, file or record referenced by an
	// operation that expects it to exist.
	ErrNotFound = errors.New("not found")

	// ErrUnsupportedFormat marks a file extension the extractor cannot handle.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrBackendUnavailable marks an unreachable vector index or model service.
	ErrBackendUnavailable = errors.New("backend unavailable")
)
