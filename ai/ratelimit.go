package ai

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/time/rate"
)

// RateLimitedEmbedder wraps an Embedder so requests are spaced to a fixed rate.
type RateLimitedEmbedder struct {
	embedder Embedder
	limiter  *rate.Limiter
}

var _ Embedder = (*RateLimitedEmbedder)(nil)

// NewRateLimitedEmbedder limits embedder to rps requests per second.
// A non-positive rps returns embedder unchanged.
func NewRateLimitedEmbedder(embedder Embedder, rps float64) Embedder {
	if rps <= 0 {
		return embedder
	}
	burst := int(math.Ceil(rps))
	return &RateLimitedEmbedder{
		embedder: embedder,
		limiter:  rate.NewLimiter(rate.Limit(rps), burst),
	}
}

// EmbedTexts waits for a request token, then delegates to the wrapped embedder.
func (r *RateLimitedEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return r.embedder.EmbedTexts(ctx, texts)
}
