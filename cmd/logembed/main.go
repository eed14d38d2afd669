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

package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/poiesic/logembed/ai"
	"github.com/poiesic/logembed/batcher"
	"github.com/poiesic/logembed/chunker"
	"github.com/poiesic/logembed/export"
	"github.com/poiesic/logembed/pipeline"
	"github.com/poiesic/logembed/source"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "logembed",
		Usage: "Chunk build failure logs and embed them for analysis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML or TOML config file (default: logembed.yaml/.yml/.toml in the working directory)",
				EnvVars: []string{"LOGEMBED_CONFIG"},
			},
		},
		Before: setupLogger,
		Commands: []*cli.Command{
			{
				Name:   "chunk",
				Usage:  "Read failed build logs and write their sections as NDJSON records",
				Action: chunkCommand,
				Flags:  concat(databaseFlags(), chunkFlags(), outputFlags()),
			},
			{
				Name:   "embed",
				Usage:  "Embed log sections in batches and write NDJSON records with vectors",
				Action: embedCommand,
				Flags: concat(
					databaseFlags(),
					chunkFlags(),
					dispatchFlags(),
					embeddingFlags(),
					outputFlags(),
					[]cli.Flag{
						&cli.StringFlag{
							Name:    "input",
							Aliases: []string{"i"},
							Usage:   "Read chunk records from this NDJSON file instead of the database",
						},
					},
				),
			},
			{
				Name:   "project",
				Usage:  "Convert embedded records into Embedding Projector TSV files",
				Action: projectCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i", "f"},
						Usage:    "NDJSON file of embedded records",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "output",
						Aliases:  []string{"o"},
						Usage:    "Output file pattern containing " + export.NameToken,
						Required: true,
					},
					&cli.StringFlag{
						Name:    "format",
						Aliases: []string{"g"},
						Usage:   "Output format (only tsv is supported)",
						Value:   export.FormatTSV,
					},
				},
			},
			{
				Name:   "refs",
				Usage:  "List section files referenced from an entrypoint section",
				Action: refsCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "input",
						Aliases:  []string{"i", "f"},
						Usage:    "NDJSON file of chunk records",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "entrypoint",
						Aliases: []string{"e"},
						Usage:   "Section whose text is searched for references",
						Value:   export.DefaultEntrypoint,
					},
				},
			},
		},
	}
}

func concat(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, g := range groups {
		flags = append(flags, g...)
	}
	return flags
}

func databaseFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "dialect",
			Usage: "Database dialect (postgres, sqlite)",
			Value: string(source.Postgres),
		},
		&cli.StringFlag{
			Name:    "conninfo",
			Aliases: []string{"dsn"},
			Usage:   "Full connection string (libpq key/value or URL for postgres, file path for sqlite)",
		},
		&cli.StringFlag{
			Name:    "host",
			Usage:   "Database server host",
			Value:   "localhost",
			EnvVars: []string{"PGHOST"},
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "Database server port",
			Value:   5432,
			EnvVars: []string{"PGPORT"},
		},
		&cli.StringFlag{
			Name:    "dbname",
			Aliases: []string{"d"},
			Usage:   "Database name",
			Value:   "postgres",
			EnvVars: []string{"PGDATABASE"},
		},
		&cli.StringFlag{
			Name:    "user",
			Aliases: []string{"U"},
			Usage:   "Database user",
			Value:   "postgres",
			EnvVars: []string{"PGUSER"},
		},
		&cli.StringFlag{
			Name:    "password",
			Usage:   "Database password",
			EnvVars: []string{"PGPASSWORD"},
		},
		&cli.BoolFlag{
			Name:    "no-password",
			Aliases: []string{"w"},
			Usage:   "Connect with an empty password, ignoring PGPASSWORD",
		},
		&cli.BoolFlag{
			Name:    "password-prompt",
			Aliases: []string{"W"},
			Usage:   "Prompt for the database password, ignoring PGPASSWORD and --no-password",
		},
		&cli.StringFlag{
			Name:  "lookback",
			Usage: "Only read reports newer than this period (e.g. '2 days', '3 weeks', '1 year')",
			Value: source.DefaultLookback,
		},
	}
}

func chunkFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "marker",
			Usage: "Sequence separating named sections inside a log",
			Value: chunker.DefaultMarker,
		},
		&cli.IntFlag{
			Name:  "max-chars",
			Usage: "Keep only the last N characters of each section (0 keeps everything)",
			Value: chunker.DefaultMaxChars,
		},
	}
}

func dispatchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "budget",
			Usage: "Maximum estimated tokens per embedding request",
			Value: batcher.DefaultBudget,
		},
		&cli.IntFlag{
			Name:  "chars-per-token",
			Usage: "Characters per token for the cost estimate",
			Value: batcher.DefaultCharsPerToken,
		},
		&cli.StringFlag{
			Name:  "tokenizer",
			Usage: "Count tokens exactly with this tiktoken encoding (e.g. " + batcher.DefaultEncoding + ")",
		},
		&cli.IntFlag{
			Name:  "concurrency",
			Usage: "Number of embedding requests in flight",
			Value: pipeline.DefaultConcurrency,
		},
		&cli.DurationFlag{
			Name:  "job-timeout",
			Usage: "Deadline for each embedding request (0 waits indefinitely)",
		},
		&cli.IntFlag{
			Name:  "report-interval",
			Usage: "Report progress every N batches",
			Value: pipeline.DefaultReportInterval,
		},
		&cli.BoolFlag{
			Name:  "normalize",
			Usage: "Scale vectors to unit length",
		},
	}
}

func embeddingFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "embedding-host",
			Usage: "Embedding service host URL",
			Value: ai.DefaultEmbeddingHost,
		},
		&cli.StringFlag{
			Name:  "embedding-model",
			Usage: "Embedding model name",
			Value: ai.DefaultEmbeddingModel,
		},
		&cli.StringFlag{
			Name:    "api-key",
			Usage:   "Embedding service API key",
			EnvVars: []string{"OPENAI_API_KEY"},
		},
		&cli.Float64Flag{
			Name:  "requests-per-second",
			Usage: "Limit embedding requests per second (0 disables the limit)",
		},
	}
}

func outputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write NDJSON records to this file",
			Value:   "-",
		},
	}
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}
