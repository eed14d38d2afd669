package ai

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	c.calls++
	return make([][]float32, len(texts)), nil
}

func TestNewRateLimitedEmbedder_Disabled(t *testing.T) {
	inner := &countingEmbedder{}
	assert.Same(t, inner, NewRateLimitedEmbedder(inner, 0))
}

func TestRateLimitedEmbedder_Delegates(t *testing.T) {
	inner := &countingEmbedder{}
	limited := NewRateLimitedEmbedder(inner, 1000)

	out, err := limited.EmbedTexts(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedEmbedder_HonorsContext(t *testing.T) {
	inner := &countingEmbedder{}
	limited := NewRateLimitedEmbedder(inner, 0.5)

	// Burst of one: the first call passes, the second would wait two seconds.
	_, err := limited.EmbedTexts(context.Background(), []string{"a"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = limited.EmbedTexts(ctx, []string{"b"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter")
	assert.Equal(t, 1, inner.calls)
}
