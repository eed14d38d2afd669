package pipeline

import "errors"

var (
	// ErrNilEmbedder is returned when a pipeline is created without an embedder.
	ErrNilEmbedder = errors.New("embedder is required")

	// ErrInvalidConfig is returned when a Config fails validation.
	ErrInvalidConfig = errors.New("invalid pipeline config")

	// ErrEmbeddingCount is returned when the service returns a different
	// number of vectors than texts it was given.
	ErrEmbeddingCount = errors.New("embedding count mismatch")
)
