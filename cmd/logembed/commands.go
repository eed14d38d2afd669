package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/poiesic/logembed"
	"github.com/poiesic/logembed/ai"
	"github.com/poiesic/logembed/chunker"
	"github.com/poiesic/logembed/config"
	"github.com/poiesic/logembed/core"
	"github.com/poiesic/logembed/export"
	"github.com/poiesic/logembed/pipeline"
	"github.com/poiesic/logembed/runner"
	"github.com/poiesic/logembed/source"
)

// exitOversized is the exit code used when a chunk cannot fit any batch.
const exitOversized = 2

func chunkCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	pcfg := pipelineConfig(c, cfg)

	ch, err := chunker.New(
		chunker.WithMarker(pcfg.Marker),
		chunker.WithMaxChars(pcfg.MaxChars),
	)
	if err != nil {
		return fmt.Errorf("failed to create chunker: %w", err)
	}

	store, err := openDatabase(c, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	chunks, err := ch.ChunkAll(store.Blobs(c.Context))
	if err != nil {
		return fmt.Errorf("failed to read build reports: %w", err)
	}
	return writeOutput(c, chunks)
}

func embedCommand(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	pcfg := pipelineConfig(c, cfg)

	aiConfig := embeddingConfig(c, cfg)
	reporter := pipeline.WithReporter(runner.NewLineReporter(c.App.ErrWriter, pcfg.ReportInterval))

	var (
		p      *pipeline.Pipeline
		chunks []*core.Chunk
	)
	if input := c.String("input"); input != "" {
		embedder, err := logembed.NewEmbedder(aiConfig)
		if err != nil {
			return err
		}
		p, err = pipeline.New(embedder, pcfg, reporter)
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}
		chunks, err = readInput(input)
		if err != nil {
			return err
		}
	} else {
		store, err := openDatabase(c, cfg, logembed.WithAIConfig(aiConfig))
		if err != nil {
			return err
		}
		defer store.Close()

		p, err = store.NewPipeline(pcfg, reporter)
		if err != nil {
			return fmt.Errorf("failed to create pipeline: %w", err)
		}
		chunks, err = p.Chunk(store.Blobs(c.Context))
		if err != nil {
			return fmt.Errorf("failed to read build reports: %w", err)
		}
	}

	summary, err := p.Embed(c.Context, chunks)
	if err != nil {
		var oversized *core.OversizedUnitError
		if errors.As(err, &oversized) {
			return cli.Exit(fmt.Sprintf("cannot embed: %v", oversized), exitOversized)
		}
		return fmt.Errorf("failed to embed chunks: %w", err)
	}

	if err := writeOutput(c, chunks); err != nil {
		return err
	}
	fmt.Fprintf(c.App.ErrWriter, "Embedded %d of %d chunks in %d batches (%d failed)\n",
		summary.Embedded, summary.Chunks, summary.Batches, summary.FailedBatches)
	return nil
}

func projectCommand(c *cli.Context) error {
	projector, err := export.NewProjector(c.String("output"), c.String("format"))
	if err != nil {
		return err
	}

	chunks, err := readInput(c.String("input"))
	if err != nil {
		return err
	}

	names, err := projector.Write(chunks)
	if err != nil {
		return fmt.Errorf("failed to write projector files: %w", err)
	}
	for _, name := range names {
		fmt.Fprintln(c.App.ErrWriter, projector.Path(name))
	}
	return nil
}

func refsCommand(c *cli.Context) error {
	chunks, err := readInput(c.String("input"))
	if err != nil {
		return err
	}
	for _, name := range export.FindReferences(chunks, c.String("entrypoint")) {
		fmt.Fprintln(c.App.Writer, name)
	}
	return nil
}

// loadConfig reads the --config file, or a config file in the working
// directory when one exists.
func loadConfig(c *cli.Context) (*config.Config, error) {
	if path := c.String("config"); path != "" {
		cfg, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		return cfg, nil
	}

	cfg, name, err := config.Load(".")
	if errors.Is(err, config.ErrNoConfig) {
		return &config.Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	slog.Debug("loaded config file", "file", name)
	return cfg, nil
}

// pipelineConfig overlays explicitly set flags on the file settings.
func pipelineConfig(c *cli.Context, cfg *config.Config) *pipeline.Config {
	pcfg := cfg.PipelineConfig()
	if c.IsSet("marker") {
		pcfg.Marker = c.String("marker")
	}
	if c.IsSet("max-chars") {
		pcfg.MaxChars = c.Int("max-chars")
	}
	if c.IsSet("budget") {
		pcfg.Budget = c.Int("budget")
	}
	if c.IsSet("chars-per-token") {
		pcfg.CharsPerToken = c.Int("chars-per-token")
	}
	if c.IsSet("tokenizer") {
		pcfg.Tokenizer = c.String("tokenizer")
	}
	if c.IsSet("concurrency") {
		pcfg.Concurrency = c.Int("concurrency")
	}
	if c.IsSet("job-timeout") {
		pcfg.JobTimeout = c.Duration("job-timeout")
	}
	if c.IsSet("report-interval") {
		pcfg.ReportInterval = c.Int("report-interval")
	}
	if c.IsSet("normalize") {
		pcfg.Normalize = c.Bool("normalize")
	}
	return pcfg
}

// embeddingConfig overlays the embedding flags that were set on the file settings.
func embeddingConfig(c *cli.Context, cfg *config.Config) *ai.Config {
	aiConfig := cfg.AIConfig()
	aiConfig.EmbeddingHost = pick(c, "embedding-host", aiConfig.EmbeddingHost)
	aiConfig.EmbeddingModel = pick(c, "embedding-model", aiConfig.EmbeddingModel)
	aiConfig.APIKey = pick(c, "api-key", aiConfig.APIKey)
	if c.IsSet("requests-per-second") {
		aiConfig.RequestsPerSecond = c.Float64("requests-per-second")
	}
	return aiConfig
}

// pick returns the flag value when it was set explicitly or the file leaves
// the setting empty.
func pick(c *cli.Context, flag, fileValue string) string {
	if c.IsSet(flag) || fileValue == "" {
		return c.String(flag)
	}
	return fileValue
}

// databaseDSN resolves the dialect and connection string from the flags
// and the file settings.
func databaseDSN(c *cli.Context, cfg *config.Config) (source.Dialect, string, error) {
	db := cfg.Database

	dialect := db.SourceDialect()
	if c.IsSet("dialect") || db.Dialect == "" {
		d, err := source.ParseDialect(c.String("dialect"))
		if err != nil {
			return "", "", err
		}
		dialect = d
	}

	if dialect == source.SQLite {
		dsn := pick(c, "conninfo", db.DSN)
		if dsn == "" {
			return "", "", errors.New("sqlite requires --conninfo with a database file path")
		}
		return dialect, dsn, nil
	}

	info := db.ConnInfo()
	info.Options = pick(c, "conninfo", db.DSN)
	info.Host = pick(c, "host", db.Host)
	info.DBName = pick(c, "dbname", db.Name)
	info.User = pick(c, "user", db.User)
	info.Password = pick(c, "password", db.Password)
	if c.IsSet("port") || db.Port == 0 {
		info.Port = c.Int("port")
	}
	if c.IsSet("no-password") {
		info.NoPassword = c.Bool("no-password")
	}
	if c.Bool("password-prompt") {
		password, err := promptPassword(c.App.ErrWriter)
		if err != nil {
			return "", "", err
		}
		info.Password = password
		info.NoPassword = false
	}
	return dialect, info.DSN(), nil
}

// readPassword reads a line from the terminal without echoing it.
var readPassword = func() ([]byte, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil, errors.New("password prompt requires a terminal")
	}
	return term.ReadPassword(fd)
}

func promptPassword(w io.Writer) (string, error) {
	fmt.Fprint(w, "Password: ")
	password, err := readPassword()
	fmt.Fprintln(w)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(password), nil
}

// openDatabase opens the configured build report store.
func openDatabase(c *cli.Context, cfg *config.Config, opts ...logembed.DatabaseOption) (*logembed.Database, error) {
	dialect, dsn, err := databaseDSN(c, cfg)
	if err != nil {
		return nil, err
	}
	opts = append([]logembed.DatabaseOption{
		logembed.WithLookback(pick(c, "lookback", cfg.Database.Lookback)),
	}, opts...)
	return logembed.NewDatabase(c.Context, dialect, dsn, opts...)
}

func readInput(path string) ([]*core.Chunk, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	return pipeline.ReadRecords(f, slog.Default())
}

func writeOutput(c *cli.Context, chunks []*core.Chunk) error {
	path := c.String("output")
	if path == "-" {
		return pipeline.WriteRecords(c.App.Writer, chunks)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := pipeline.WriteRecords(f, chunks); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output: %w", err)
	}
	return nil
}
