package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/logembed/ai"
	"github.com/poiesic/logembed/chunker"
	"github.com/poiesic/logembed/pipeline"
	"github.com/poiesic/logembed/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logembed.yaml", `database:
  dialect: sqlite
  dsn: reports.db
  lookback: 2 weeks
embedding:
  host: http://localhost:11434
  model: nomic-embed-text
  api_key: file-key
  requests_per_second: 2.5
pipeline:
  max_chars: 0
  budget: 4000
  concurrency: 4
  job_timeout: 30s
  normalize: true
`)

	cfg, name, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "logembed.yaml", name)

	assert.Equal(t, source.SQLite, cfg.Database.SourceDialect())
	assert.Equal(t, "reports.db", cfg.Database.DSN)
	assert.Equal(t, "2 weeks", cfg.Database.Lookback)

	p := cfg.PipelineConfig()
	assert.Equal(t, 0, p.MaxChars)
	assert.Equal(t, 4000, p.Budget)
	assert.Equal(t, 4, p.Concurrency)
	assert.Equal(t, 30*time.Second, p.JobTimeout)
	assert.True(t, p.Normalize)
	assert.Equal(t, pipeline.DefaultConfig().Marker, p.Marker)

	a := cfg.AIConfig()
	assert.Equal(t, "http://localhost:11434", a.EmbeddingHost)
	assert.Equal(t, "nomic-embed-text", a.EmbeddingModel)
	assert.Equal(t, "file-key", a.APIKey)
	assert.Equal(t, 2.5, a.RequestsPerSecond)
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logembed.toml", `[database]
host = "db.example.org"
port = 5433
dbname = "buildfarm"
user = "reader"
no_password = true

[pipeline]
tokenizer = "cl100k_base"
job_timeout = "1m"
`)

	cfg, name, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "logembed.toml", name)

	assert.Equal(t, source.Postgres, cfg.Database.SourceDialect())
	assert.Equal(t, "host=db.example.org port=5433 dbname=buildfarm user=reader password=''",
		cfg.Database.ConnInfo().DSN())

	p := cfg.PipelineConfig()
	assert.Equal(t, "cl100k_base", p.Tokenizer)
	assert.Equal(t, time.Minute, p.JobTimeout)
	assert.Equal(t, chunker.DefaultMaxChars, p.MaxChars)
}

func TestLoadPriority(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logembed.toml", `[pipeline]
budget = 1`)
	writeFile(t, dir, "logembed.yaml", `pipeline:
  budget: 2
`)

	cfg, name, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "logembed.yaml", name)
	assert.Equal(t, 2, cfg.Pipeline.Budget)
}

func TestLoad_NoConfig(t *testing.T) {
	_, _, err := Load(t.TempDir())
	assert.ErrorIs(t, err, ErrNoConfig)
}

func TestLoad_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "logembed.yml", "")

	cfg, _, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, pipeline.DefaultConfig(), cfg.PipelineConfig())
	assert.Equal(t, ai.DefaultConfig(), cfg.AIConfig())
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{name: "unknown yaml field", file: "a.yaml", content: "pipeline:\n  bugdet: 3\n"},
		{name: "unknown toml field", file: "b.toml", content: "[pipeline]\nbugdet = 3\n"},
		{name: "bad duration", file: "c.yaml", content: "pipeline:\n  job_timeout: soon\n"},
		{name: "bad dialect", file: "d.yaml", content: "database:\n  dialect: oracle\n"},
		{name: "bad lookback", file: "e.toml", content: "[database]\nlookback = \"forever\"\n"},
		{name: "negative max chars", file: "f.yaml", content: "pipeline:\n  max_chars: -1\n"},
		{name: "negative rate", file: "g.yaml", content: "embedding:\n  requests_per_second: -1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, dir, tt.file, tt.content)
			_, err := LoadFile(path)
			assert.Error(t, err)
		})
	}

	_, err := LoadFile(writeFile(t, dir, "x.json", "{}"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestSourceDialect_Default(t *testing.T) {
	assert.Equal(t, source.Postgres, Database{}.SourceDialect())
	assert.Equal(t, source.SQLite, Database{Dialect: "SQLite"}.SourceDialect())
}
