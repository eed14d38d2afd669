package ai

import "context"

// Embedder generates vector embeddings from text.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedTexts generates vector embeddings for multiple text strings in one request.
	// The returned slice contains embeddings in the same order as the input texts.
	// The call fails as a whole: either every text is embedded or an error is returned.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}
