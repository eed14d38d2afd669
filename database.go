// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logembed

import (
	"context"
	"database/sql"
	"fmt"
	"iter"
	"log/slog"

	"github.com/poiesic/logembed/ai"
	"github.com/poiesic/logembed/ai/openai"
	"github.com/poiesic/logembed/core"
	"github.com/poiesic/logembed/pipeline"
	"github.com/poiesic/logembed/source"
)

// Database is an open build report store.
type Database struct {
	conn     *sql.DB
	dialect  source.Dialect
	source   *source.Source
	aiConfig *ai.Config
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	lookback string
	aiConfig *ai.Config
	logger   *slog.Logger
}

// WithLookback limits reports to a recent period such as "2 weeks".
// Default is source.DefaultLookback.
func WithLookback(lookback string) DatabaseOption {
	return func(o *databaseOptions) {
		o.lookback = lookback
	}
}

// WithAIConfig sets the embedding service used by NewPipeline.
// Default is ai.DefaultConfig().
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		if config != nil {
			o.aiConfig = config
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) DatabaseOption {
	return func(o *databaseOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewDatabase opens the report store at dsn.
func NewDatabase(ctx context.Context, dialect source.Dialect, dsn string, opts ...DatabaseOption) (*Database, error) {
	options := &databaseOptions{
		lookback: source.DefaultLookback,
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	conn, err := source.Open(ctx, dialect, dsn)
	if err != nil {
		return nil, err
	}

	return &Database{
		conn:    conn,
		dialect: dialect,
		source: source.New(conn, dialect,
			source.WithLookback(options.lookback),
			source.WithLogger(options.logger),
		),
		aiConfig: options.aiConfig,
		logger:   options.logger,
	}, nil
}

// Close closes the database connection.
func (db *Database) Close() error {
	if err := db.conn.Close(); err != nil {
		db.logger.Error("error closing database", "dialect", string(db.dialect), "err", err)
		return err
	}
	return nil
}

// Blobs streams the failed build reports inside the lookback period.
func (db *Database) Blobs(ctx context.Context) iter.Seq2[*core.LogBlob, error] {
	return db.source.Blobs(ctx)
}

// NewPipeline creates a pipeline that embeds through the configured service.
func (db *Database) NewPipeline(config *pipeline.Config, opts ...pipeline.Option) (*pipeline.Pipeline, error) {
	embedder, err := NewEmbedder(db.aiConfig)
	if err != nil {
		return nil, err
	}
	return pipeline.New(embedder, config, append([]pipeline.Option{pipeline.WithLogger(db.logger)}, opts...)...)
}

// NewEmbedder creates an OpenAI-compatible embedder, rate limited when the
// config asks for it.
func NewEmbedder(config *ai.Config) (ai.Embedder, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid AI configuration: %w", err)
	}
	embedder, err := openai.NewEmbedder(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	return ai.NewRateLimitedEmbedder(embedder, config.RequestsPerSecond), nil
}
