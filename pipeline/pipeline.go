package pipeline

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/poiesic/logembed/ai"
	"github.com/poiesic/logembed/batcher"
	"github.com/poiesic/logembed/chunker"
	"github.com/poiesic/logembed/core"
	"github.com/poiesic/logembed/runner"
)

// Summary describes the outcome of an embedding run.
type Summary struct {
	Chunks        int
	Batches       int
	FailedBatches int
	Embedded      int
	Failed        int
	Elapsed       time.Duration
}

// Pipeline chunks build reports and embeds the chunks in batches.
type Pipeline struct {
	embedder ai.Embedder
	config   *Config
	chunker  *chunker.Chunker
	cost     batcher.CostFunc
	runner   *runner.Runner
	reporter runner.Reporter
	logger   *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithReporter sets the reporter notified after each batch completes.
func WithReporter(reporter runner.Reporter) Option {
	return func(p *Pipeline) error {
		p.reporter = reporter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// New creates a pipeline. A nil config uses DefaultConfig.
func New(embedder ai.Embedder, config *Config, opts ...Option) (*Pipeline, error) {
	if embedder == nil {
		return nil, ErrNilEmbedder
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		embedder: embedder,
		config:   config,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(p); err != nil {
			return nil, err
		}
	}

	cost, err := config.CostFunc()
	if err != nil {
		return nil, fmt.Errorf("failed to create cost function: %w", err)
	}
	p.cost = cost

	p.chunker, err = chunker.New(
		chunker.WithMarker(config.Marker),
		chunker.WithMaxChars(config.MaxChars),
		chunker.WithLogger(p.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chunker: %w", err)
	}

	p.runner, err = runner.New(
		runner.WithConcurrency(config.Concurrency),
		runner.WithJobTimeout(config.JobTimeout),
		runner.WithReporter(p.reporter),
		runner.WithLogger(p.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create runner: %w", err)
	}

	p.logger = p.logger.With("component", "pipeline")
	return p, nil
}

// Chunk splits every report into keyed chunks.
func (p *Pipeline) Chunk(blobs iter.Seq2[*core.LogBlob, error]) ([]*core.Chunk, error) {
	return p.chunker.ChunkAll(blobs)
}

// Run chunks the reports and embeds the resulting chunks.
func (p *Pipeline) Run(ctx context.Context, blobs iter.Seq2[*core.LogBlob, error]) ([]*core.Chunk, *Summary, error) {
	chunks, err := p.Chunk(blobs)
	if err != nil {
		return nil, nil, err
	}
	summary, err := p.Embed(ctx, chunks)
	if err != nil {
		return nil, nil, err
	}
	return chunks, summary, nil
}

// Embed packs chunks into batches, embeds the batches concurrently and
// stores each vector on its chunk. Every chunk of a failed batch gets the
// batch's error message instead. An oversized chunk aborts the run before
// any request is sent.
func (p *Pipeline) Embed(ctx context.Context, chunks []*core.Chunk) (*Summary, error) {
	start := time.Now()

	batches, err := batcher.Pack(chunks, p.cost, p.config.Budget)
	if err != nil {
		return nil, err
	}
	if len(chunks) == 0 {
		// Pack always returns one batch; there is nothing to send.
		batches = nil
	}

	p.logger.Info("dispatching batches",
		"chunks", len(chunks),
		"batches", len(batches),
		"budget", p.config.Budget,
		"concurrency", p.runner.Concurrency())

	results, err := runner.Run(ctx, p.runner, p.embedBatch, batches)
	if err != nil {
		return nil, fmt.Errorf("failed to run batches: %w", err)
	}

	summary := &Summary{Chunks: len(chunks), Batches: len(batches)}
	for i, result := range results {
		batch := batches[i]
		if result.Failed() {
			summary.FailedBatches++
			summary.Failed += batch.Len()
			for _, chunk := range batch.Chunks {
				chunk.Embedding = nil
				chunk.Error = result.Err.Error()
			}
			continue
		}
		for j, chunk := range batch.Chunks {
			chunk.Embedding = result.Value[j]
			chunk.Error = ""
		}
		summary.Embedded += batch.Len()
	}
	summary.Elapsed = time.Since(start)

	p.logger.Info("embedding complete",
		"embedded", summary.Embedded,
		"failed", summary.Failed,
		"failedBatches", summary.FailedBatches,
		"elapsed", summary.Elapsed.Round(time.Millisecond))
	return summary, nil
}

// embedBatch sends one batch to the embedder.
func (p *Pipeline) embedBatch(ctx context.Context, batch batcher.Batch) ([][]float32, error) {
	embeddings, err := p.embedder.EmbedTexts(ctx, batch.Texts())
	if err != nil {
		return nil, err
	}
	if len(embeddings) != batch.Len() {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCount, batch.Len(), len(embeddings))
	}
	if p.config.Normalize {
		for i := range embeddings {
			embeddings[i] = NormalizeVector(embeddings[i])
		}
	}
	return embeddings, nil
}
