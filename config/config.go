// Package config loads optional logembed settings from a YAML or TOML file.
//
// Every setting can also be given on the command line; flags that are set
// explicitly take precedence over the file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/poiesic/logembed/ai"
	"github.com/poiesic/logembed/pipeline"
	"github.com/poiesic/logembed/source"
)

// ErrNoConfig is returned when no config file is found.
var ErrNoConfig = errors.New("no logembed config file found")

// ErrUnsupportedFormat is returned for config files that are neither YAML nor TOML.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// Config is the parsed logembed configuration.
type Config struct {
	Database  Database  `yaml:"database" toml:"database"`
	Embedding Embedding `yaml:"embedding" toml:"embedding"`
	Pipeline  Pipeline  `yaml:"pipeline" toml:"pipeline"`
}

// Database selects where build reports are read from.
type Database struct {
	// Dialect is "postgres" (default) or "sqlite".
	Dialect string `yaml:"dialect" toml:"dialect"`

	// DSN is a full connection string. It overrides the discrete fields.
	DSN string `yaml:"dsn" toml:"dsn"`

	Host       string `yaml:"host" toml:"host"`
	Port       int    `yaml:"port" toml:"port"`
	Name       string `yaml:"dbname" toml:"dbname"`
	User       string `yaml:"user" toml:"user"`
	Password   string `yaml:"password" toml:"password"`
	NoPassword bool   `yaml:"no_password" toml:"no_password"`

	// Lookback limits reports to this recent period. Default: 6 months.
	Lookback string `yaml:"lookback" toml:"lookback"`
}

// Embedding configures the remote vectorization service.
type Embedding struct {
	Host              string  `yaml:"host" toml:"host"`
	Model             string  `yaml:"model" toml:"model"`
	APIKey            string  `yaml:"api_key" toml:"api_key"`
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`
}

// Pipeline configures chunking, batching and dispatch.
// Zero values keep the pipeline defaults.
type Pipeline struct {
	Marker string `yaml:"marker" toml:"marker"`

	// MaxChars is a pointer because 0 means unlimited.
	MaxChars *int `yaml:"max_chars" toml:"max_chars"`

	Budget         int      `yaml:"budget" toml:"budget"`
	CharsPerToken  int      `yaml:"chars_per_token" toml:"chars_per_token"`
	Tokenizer      string   `yaml:"tokenizer" toml:"tokenizer"`
	Concurrency    int      `yaml:"concurrency" toml:"concurrency"`
	JobTimeout     Duration `yaml:"job_timeout" toml:"job_timeout"`
	ReportInterval int      `yaml:"report_interval" toml:"report_interval"`
	Normalize      bool     `yaml:"normalize" toml:"normalize"`
}

// Duration wraps time.Duration for custom parsing.
type Duration time.Duration

func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(dur)
	return nil
}

// candidates are searched in order by Load.
var candidates = []string{
	"logembed.yaml",
	"logembed.yml",
	"logembed.toml",
	".logembed.yaml",
	".logembed.yml",
	".logembed.toml",
}

// Load finds and parses a logembed config file in dir.
// It returns the file name that was used.
func Load(dir string) (*Config, string, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue // File doesn't exist, try next
		}
		cfg, err := LoadFile(path)
		if err != nil {
			return nil, name, err
		}
		return cfg, name, nil
	}
	return nil, "", ErrNoConfig
}

// LoadFile parses the config file at path, choosing the format by extension.
func LoadFile(path string) (*Config, error) {
	var parser func([]byte, *Config) error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = parseYAML
	case ".toml":
		parser = parseTOML
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var cfg Config
	if err := parser(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate %s: %w", filepath.Base(path), err)
	}
	return &cfg, nil
}

func parseYAML(data []byte, cfg *Config) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Strict: error on unknown fields
	err := decoder.Decode(cfg)
	if errors.Is(err, io.EOF) {
		return nil // Empty file
	}
	return err
}

func parseTOML(data []byte, cfg *Config) error {
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return err
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown field %q", undecoded[0].String())
	}
	return nil
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Database.Dialect != "" {
		if _, err := source.ParseDialect(c.Database.Dialect); err != nil {
			return err
		}
	}
	if c.Database.Lookback != "" {
		if _, err := source.Cutoff(c.Database.Lookback, time.Now()); err != nil {
			return err
		}
	}
	if c.Database.Port < 0 {
		return fmt.Errorf("database port must not be negative, got %d", c.Database.Port)
	}
	if c.Embedding.RequestsPerSecond < 0 {
		return errors.New("embedding requests_per_second cannot be negative")
	}
	if c.Pipeline.MaxChars != nil && *c.Pipeline.MaxChars < 0 {
		return fmt.Errorf("pipeline max_chars must not be negative, got %d", *c.Pipeline.MaxChars)
	}
	if c.Pipeline.Budget < 0 || c.Pipeline.Concurrency < 0 || c.Pipeline.CharsPerToken < 0 || c.Pipeline.ReportInterval < 0 {
		return errors.New("pipeline numbers must not be negative")
	}
	if c.Pipeline.JobTimeout < 0 {
		return errors.New("pipeline job_timeout must not be negative")
	}
	return nil
}

// PipelineConfig returns the pipeline defaults overlaid with the file's settings.
func (c *Config) PipelineConfig() *pipeline.Config {
	cfg := pipeline.DefaultConfig()
	p := c.Pipeline
	if p.Marker != "" {
		cfg.Marker = p.Marker
	}
	if p.MaxChars != nil {
		cfg.MaxChars = *p.MaxChars
	}
	if p.Budget > 0 {
		cfg.Budget = p.Budget
	}
	if p.CharsPerToken > 0 {
		cfg.CharsPerToken = p.CharsPerToken
	}
	if p.Tokenizer != "" {
		cfg.Tokenizer = p.Tokenizer
	}
	if p.Concurrency > 0 {
		cfg.Concurrency = p.Concurrency
	}
	if p.JobTimeout > 0 {
		cfg.JobTimeout = p.JobTimeout.Duration()
	}
	if p.ReportInterval > 0 {
		cfg.ReportInterval = p.ReportInterval
	}
	cfg.Normalize = p.Normalize
	return cfg
}

// AIConfig returns the embedding service defaults overlaid with the file's settings.
func (c *Config) AIConfig() *ai.Config {
	cfg := ai.DefaultConfig()
	if c.Embedding.Host != "" {
		cfg.EmbeddingHost = c.Embedding.Host
	}
	if c.Embedding.Model != "" {
		cfg.EmbeddingModel = c.Embedding.Model
	}
	cfg.APIKey = c.Embedding.APIKey
	cfg.RequestsPerSecond = c.Embedding.RequestsPerSecond
	return cfg
}

// SourceDialect returns the configured dialect, defaulting to Postgres.
func (d Database) SourceDialect() source.Dialect {
	if d.Dialect == "" {
		return source.Postgres
	}
	dialect, err := source.ParseDialect(d.Dialect)
	if err != nil {
		return source.Postgres
	}
	return dialect
}

// ConnInfo returns the Postgres connection parameters.
func (d Database) ConnInfo() source.ConnInfo {
	return source.ConnInfo{
		Host:       d.Host,
		Port:       d.Port,
		DBName:     d.Name,
		User:       d.User,
		Password:   d.Password,
		Options:    d.DSN,
		NoPassword: d.NoPassword,
	}
}
