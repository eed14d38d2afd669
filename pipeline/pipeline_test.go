package pipeline

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/logembed/ai/mock"
	"github.com/poiesic/logembed/batcher"
	"github.com/poiesic/logembed/chunker"
	"github.com/poiesic/logembed/core"
	"github.com/poiesic/logembed/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const marker = chunker.DefaultMarker

// testConfig counts one token per character so budgets are easy to reason about.
func testConfig(budget int) *Config {
	config := DefaultConfig()
	config.CharsPerToken = 1
	config.Budget = budget
	config.Concurrency = 3
	return config
}

func chunksOf(texts ...string) []*core.Chunk {
	chunks := make([]*core.Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = &core.Chunk{Key: i, SysName: "animal", Snapshot: "2025-03-01 10:00:00", Text: text}
	}
	return chunks
}

func blobsOf(blobs ...*core.LogBlob) iter.Seq2[*core.LogBlob, error] {
	return func(yield func(*core.LogBlob, error) bool) {
		for _, blob := range blobs {
			if !yield(blob, nil) {
				return
			}
		}
	}
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil)
	assert.ErrorIs(t, err, ErrNilEmbedder)

	config := DefaultConfig()
	config.Concurrency = 0
	_, err = New(mock.NewMockEmbedder(), config)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	config = DefaultConfig()
	config.Tokenizer = "no-such-encoding"
	_, err = New(mock.NewMockEmbedder(), config)
	assert.Error(t, err)

	p, err := New(mock.NewMockEmbedder(), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultConcurrency, p.runner.Concurrency())
}

func TestNew_TokenizerCost(t *testing.T) {
	if _, err := batcher.TiktokenCost(batcher.DefaultEncoding); err != nil {
		t.Skipf("tiktoken encoding unavailable: %v", err)
	}

	config := DefaultConfig()
	config.Tokenizer = batcher.DefaultEncoding
	p, err := New(mock.NewMockEmbedder(), config)
	require.NoError(t, err)
	assert.Equal(t, 2, p.cost(&core.Chunk{Text: "hello world"}))

	config = DefaultConfig()
	config.CharsPerToken = 4
	p, err = New(mock.NewMockEmbedder(), config)
	require.NoError(t, err)
	assert.Equal(t, 3, p.cost(&core.Chunk{Text: "hello world"}))
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{name: "empty marker", modify: func(c *Config) { c.Marker = "" }},
		{name: "zero budget", modify: func(c *Config) { c.Budget = 0 }},
		{name: "zero concurrency", modify: func(c *Config) { c.Concurrency = 0 }},
		{name: "zero chars per token", modify: func(c *Config) { c.CharsPerToken = 0 }},
		{name: "negative timeout", modify: func(c *Config) { c.JobTimeout = -1 }},
	}

	require.NoError(t, DefaultConfig().Validate())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			tt.modify(config)
			assert.ErrorIs(t, config.Validate(), ErrInvalidConfig)
		})
	}
}

func TestEmbed_AllSucceed(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p, err := New(embedder, testConfig(10))
	require.NoError(t, err)

	chunks := chunksOf("aaaa", "bbbb", "cccc", "dd")
	summary, err := p.Embed(context.Background(), chunks)
	require.NoError(t, err)

	assert.Equal(t, 4, summary.Chunks)
	assert.Equal(t, 2, summary.Batches)
	assert.Equal(t, 4, summary.Embedded)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 2, embedder.CallCount())

	for _, chunk := range chunks {
		assert.True(t, chunk.Embedded(), "chunk %d", chunk.Key)
		assert.Empty(t, chunk.Error)
		assert.Equal(t, mock.Vector(chunk.Text, mock.DefaultDimension), chunk.Embedding)
	}
}

func TestEmbed_FailedBatchMarksEveryChunk(t *testing.T) {
	errService := errors.New("service unavailable")
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		if texts[0] == "bad" {
			return nil, errService
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.Vector(text, 4)
		}
		return out, nil
	}

	p, err := New(embedder, testConfig(6))
	require.NoError(t, err)

	// Batches: [ok1 ok2] [bad x] [ok3]
	chunks := chunksOf("ok1", "ok2", "bad", "x", "ok3")
	summary, err := p.Embed(context.Background(), chunks)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Batches)
	assert.Equal(t, 1, summary.FailedBatches)
	assert.Equal(t, 3, summary.Embedded)
	assert.Equal(t, 2, summary.Failed)

	for _, i := range []int{0, 1, 4} {
		assert.True(t, chunks[i].Embedded(), "chunk %d", i)
	}
	for _, i := range []int{2, 3} {
		assert.True(t, chunks[i].Failed(), "chunk %d", i)
		assert.Nil(t, chunks[i].Embedding)
		assert.Contains(t, chunks[i].Error, "service unavailable")
	}
}

func TestEmbed_CountMismatchFailsBatch(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{1}}, nil
	}

	p, err := New(embedder, testConfig(100))
	require.NoError(t, err)

	chunks := chunksOf("a", "b")
	summary, err := p.Embed(context.Background(), chunks)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Failed)
	assert.Contains(t, chunks[0].Error, ErrEmbeddingCount.Error())
}

func TestEmbed_OversizedChunkSendsNothing(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p, err := New(embedder, testConfig(5))
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), chunksOf("ok", "far too long"))
	require.Error(t, err)

	var oversized *core.OversizedUnitError
	require.ErrorAs(t, err, &oversized)
	assert.Equal(t, 1, oversized.Key)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestEmbed_Empty(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p, err := New(embedder, testConfig(5))
	require.NoError(t, err)

	summary, err := p.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Batches)
	assert.Equal(t, 0, embedder.CallCount())
}

func TestEmbed_ReportsProgressPerBatch(t *testing.T) {
	var mu sync.Mutex
	var snapshots []runner.Snapshot
	reporter := runner.ReporterFunc(func(s runner.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, s)
	})

	p, err := New(mock.NewMockEmbedder(), testConfig(1), WithReporter(reporter))
	require.NoError(t, err)

	_, err = p.Embed(context.Background(), chunksOf("a", "b", "c", "d"))
	require.NoError(t, err)

	require.Len(t, snapshots, 4)
	assert.Equal(t, 4, snapshots[3].Completed)
	assert.Equal(t, 4, snapshots[3].Total)
}

func TestEmbed_BatchesPreserveOrder(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	p, err := New(embedder, testConfig(4))
	require.NoError(t, err)

	var texts []string
	for i := range 20 {
		texts = append(texts, fmt.Sprintf("%02d", i))
	}
	chunks := chunksOf(texts...)
	_, err = p.Embed(context.Background(), chunks)
	require.NoError(t, err)

	var sent []string
	for _, batch := range embedder.Batches() {
		assert.LessOrEqual(t, len(strings.Join(batch, "")), 4)
		sent = append(sent, batch...)
	}
	assert.ElementsMatch(t, texts, sent)

	for i, chunk := range chunks {
		assert.Equal(t, mock.Vector(texts[i], mock.DefaultDimension), chunk.Embedding, "chunk %d", i)
	}
}

func TestEmbed_Normalize(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	embedder.EmbedTextsFunc = func(_ context.Context, texts []string) ([][]float32, error) {
		return [][]float32{{3, 4}}, nil
	}

	config := testConfig(10)
	config.Normalize = true
	p, err := New(embedder, config)
	require.NoError(t, err)

	chunks := chunksOf("a")
	_, err = p.Embed(context.Background(), chunks)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.6, 0.8}, chunks[0].Embedding, 1e-6)
}

func TestRun_EndToEnd(t *testing.T) {
	embedder := mock.NewMockEmbedder()
	config := testConfig(100)
	config.MaxChars = 3
	p, err := New(embedder, config)
	require.NoError(t, err)

	blobs := blobsOf(
		&core.LogBlob{SysName: "gull", Snapshot: "2025-01-01 00:00:00", Stage: "Make", Log: "err1" + marker + "f1.c" + marker + "err2"},
		&core.LogBlob{SysName: "", Snapshot: "2025-01-02 00:00:00", Stage: "Make", Log: "dropped"},
		&core.LogBlob{SysName: "moth", Snapshot: "2025-01-03 00:00:00", Stage: "Check", Log: "only head"},
	)

	chunks, summary, err := p.Run(context.Background(), blobs)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "head", chunks[0].Filename)
	assert.Equal(t, "rr1", chunks[0].Text)
	assert.Equal(t, "f1.c", chunks[1].Filename)
	assert.Equal(t, "rr2", chunks[1].Text)
	assert.Equal(t, "moth", chunks[2].SysName)
	assert.Equal(t, "ead", chunks[2].Text)

	for i, chunk := range chunks {
		assert.Equal(t, i, chunk.Key)
		assert.True(t, chunk.Embedded())
	}
	assert.Equal(t, 3, summary.Embedded)
	assert.Equal(t, 1, embedder.CallCount())
}

func TestNormalizeVector(t *testing.T) {
	tests := []struct {
		name     string
		input    []float32
		expected []float32
	}{
		{name: "unit vector unchanged", input: []float32{1, 0, 0}, expected: []float32{1, 0, 0}},
		{name: "scales", input: []float32{3, 4}, expected: []float32{0.6, 0.8}},
		{name: "negative", input: []float32{-1, 1}, expected: []float32{-1 / float32(math.Sqrt2), 1 / float32(math.Sqrt2)}},
		{name: "zero vector", input: []float32{0, 0}, expected: []float32{0, 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDeltaSlice(t, tt.expected, NormalizeVector(tt.input), 1e-6)
		})
	}

	assert.Empty(t, NormalizeVector(nil))
}
