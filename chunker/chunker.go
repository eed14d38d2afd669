package chunker

import (
	"errors"
	"iter"
	"log/slog"

	"github.com/poiesic/logembed/core"
)

const (
	// DefaultMaxChars is the number of trailing characters kept per section.
	DefaultMaxChars = 1000
)

// Chunker turns log blobs into keyed chunks.
type Chunker struct {
	marker   string
	maxChars int
	logger   *slog.Logger
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMarker sets the section delimiter.
// Default is DefaultMarker.
func WithMarker(marker string) Option {
	return func(c *Chunker) error {
		if marker == "" {
			return ErrEmptyMarker
		}
		c.marker = marker
		return nil
	}
}

// WithMaxChars sets how many trailing characters of each section are kept.
// Zero or a negative value keeps whole sections.
func WithMaxChars(n int) Option {
	return func(c *Chunker) error {
		c.maxChars = n
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Chunker) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// New creates a chunker.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		marker:   DefaultMarker,
		maxChars: DefaultMaxChars,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	c.logger = c.logger.With("component", "chunker")
	return c, nil
}

// Chunk splits a single blob. Sections whose text is empty are dropped.
// Returned chunks have no keys assigned.
func (c *Chunker) Chunk(blob *core.LogBlob) []*core.Chunk {
	sections := Split(blob.Log, c.marker)
	chunks := make([]*core.Chunk, 0, len(sections))
	for _, section := range sections {
		text := Tail(section.Text, c.maxChars)
		if text == "" {
			continue
		}
		chunks = append(chunks, core.NewChunk(blob, section.Name, text))
	}
	return chunks
}

// ChunkAll drains blobs and returns every chunk, keyed sequentially from 0
// in stream order.
//
// Blobs that fail validation, and stream errors wrapping core.ErrMalformedInput,
// are logged and skipped. Any other stream error stops iteration and is returned.
func (c *Chunker) ChunkAll(blobs iter.Seq2[*core.LogBlob, error]) ([]*core.Chunk, error) {
	var (
		chunks  []*core.Chunk
		rows    int
		skipped int
	)

	for blob, err := range blobs {
		position := rows
		rows++

		if err == nil {
			if verr := core.ValidateLogBlob(blob); verr != nil {
				err = &core.MalformedInputError{Position: position, Err: verr}
			}
		}
		if err != nil {
			if !errors.Is(err, core.ErrMalformedInput) {
				return nil, err
			}
			skipped++
			c.logger.Warn("skipping malformed record", "err", err)
			continue
		}

		for _, chunk := range c.Chunk(blob) {
			chunk.Key = len(chunks)
			chunks = append(chunks, chunk)
		}
	}

	c.logger.Info("chunked logs", "rows", rows, "skipped", skipped, "chunks", len(chunks))
	return chunks, nil
}
