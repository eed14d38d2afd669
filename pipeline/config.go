package pipeline

import (
	"fmt"
	"time"

	"github.com/poiesic/logembed/batcher"
	"github.com/poiesic/logembed/chunker"
)

const (
	// DefaultConcurrency is the default number of batches embedded at once.
	DefaultConcurrency = 10

	// DefaultReportInterval prints progress after every completed batch.
	DefaultReportInterval = 1
)

// Config holds configuration for a pipeline run.
type Config struct {
	// Marker separates named sections inside a log
	Marker string

	// MaxChars keeps only the last MaxChars characters of each section (0 = unlimited)
	MaxChars int

	// Budget is the maximum estimated token cost of one batch
	Budget int

	// CharsPerToken is the divisor of the character cost estimate
	CharsPerToken int

	// Tokenizer names a tiktoken encoding for exact costs; empty uses CharsPerToken
	Tokenizer string

	// Concurrency is the number of batches embedded simultaneously
	Concurrency int

	// JobTimeout bounds each embedding request (0 = no deadline)
	JobTimeout time.Duration

	// ReportInterval is how often to report progress (number of batches)
	ReportInterval int

	// Normalize scales each vector to unit length before it is stored
	Normalize bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Marker:         chunker.DefaultMarker,
		MaxChars:       chunker.DefaultMaxChars,
		Budget:         batcher.DefaultBudget,
		CharsPerToken:  batcher.DefaultCharsPerToken,
		Concurrency:    DefaultConcurrency,
		ReportInterval: DefaultReportInterval,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Marker == "" {
		return fmt.Errorf("%w: marker must not be empty", ErrInvalidConfig)
	}
	if c.Budget < 1 {
		return fmt.Errorf("%w: budget must be positive, got %d", ErrInvalidConfig, c.Budget)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("%w: concurrency must be positive, got %d", ErrInvalidConfig, c.Concurrency)
	}
	if c.CharsPerToken < 1 && c.Tokenizer == "" {
		return fmt.Errorf("%w: chars per token must be positive, got %d", ErrInvalidConfig, c.CharsPerToken)
	}
	if c.JobTimeout < 0 {
		return fmt.Errorf("%w: job timeout must not be negative", ErrInvalidConfig)
	}
	return nil
}

// CostFunc returns the batch cost estimator the configuration selects.
func (c *Config) CostFunc() (batcher.CostFunc, error) {
	if c.Tokenizer != "" {
		return batcher.TiktokenCost(c.Tokenizer)
	}
	return batcher.CharCost(c.CharsPerToken), nil
}
