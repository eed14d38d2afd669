// Package mock provides test double implementations of AI service interfaces.
//
// MockEmbedder implements ai.Embedder for unit tests. It runs without an
// external service and produces deterministic vectors derived from a hash
// of each text.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	embedder := mock.NewMockEmbedder()
//	vectors, err := embedder.EmbedTexts(ctx, []string{"test"})
//
//	// Custom behavior injection
//	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
//	    return nil, errors.New("503 Service Unavailable")
//	}
//
//	// Inspect calls
//	count := embedder.CallCount()
//	batches := embedder.Batches()
package mock
