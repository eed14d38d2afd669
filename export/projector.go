package export

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/poiesic/logembed/core"
)

const (
	// NameToken is replaced by the section basename in output patterns.
	NameToken = "<NAME>"

	// MetadataPrefix is prepended to the basename of metadata files.
	MetadataPrefix = "metadata-"

	// FormatTSV is the only supported output format.
	FormatTSV = "tsv"
)

var metadataFields = []string{"key", "sysname", "snapshot", "text"}

var escaper = strings.NewReplacer("\n", `\n`, "\t", `\t`)

// Basename returns the part of a section filename after the last slash.
func Basename(filename string) string {
	if i := strings.LastIndexByte(filename, '/'); i >= 0 {
		return filename[i+1:]
	}
	return filename
}

// Projector writes embedded chunks as Embedding Projector TSV files.
type Projector struct {
	pattern string
	create  func(path string) (io.WriteCloser, error)
	logger  *slog.Logger
}

// ProjectorOption configures a Projector.
type ProjectorOption func(*Projector)

// WithCreate replaces the function that opens output files.
// Default is os.Create.
func WithCreate(create func(path string) (io.WriteCloser, error)) ProjectorOption {
	return func(p *Projector) {
		if create != nil {
			p.create = create
		}
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) ProjectorOption {
	return func(p *Projector) {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
	}
}

// NewProjector creates a projector. The pattern must contain NameToken,
// and format must be FormatTSV.
func NewProjector(pattern, format string, opts ...ProjectorOption) (*Projector, error) {
	if !strings.Contains(pattern, NameToken) {
		return nil, ErrMissingNameToken
	}
	if format != FormatTSV {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	p := &Projector{
		pattern: pattern,
		create: func(path string) (io.WriteCloser, error) {
			return os.Create(path)
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "projector")
	return p, nil
}

// Path returns the output path for a section basename.
func (p *Projector) Path(name string) string {
	return strings.ReplaceAll(p.pattern, NameToken, name)
}

// sink is the pair of open files for one section basename.
type sink struct {
	vectors  io.WriteCloser
	metadata io.WriteCloser
	vw       *bufio.Writer
	mw       *bufio.Writer
}

func (s *sink) close() error {
	var firstErr error
	for _, step := range []func() error{s.vw.Flush, s.mw.Flush, s.vectors.Close, s.metadata.Close} {
		if err := step(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Write writes every embedded chunk to the files of its section basename
// and returns the basenames in the order they were first seen. Chunks
// without an embedding are skipped.
func (p *Projector) Write(chunks []*core.Chunk) ([]string, error) {
	sinks := make(map[string]*sink)
	var names []string

	closeAll := func() error {
		var firstErr error
		for _, name := range names {
			if err := sinks[name].close(); err != nil && firstErr == nil {
				firstErr = fmt.Errorf("close %s: %w", name, err)
			}
		}
		return firstErr
	}

	skipped := 0
	for _, chunk := range chunks {
		if !chunk.Embedded() {
			skipped++
			continue
		}

		name := Basename(chunk.Filename)
		s, ok := sinks[name]
		if !ok {
			var err error
			s, err = p.open(name)
			if err != nil {
				closeAll()
				return nil, err
			}
			sinks[name] = s
			names = append(names, name)
		}

		if _, err := s.vw.WriteString(vectorLine(chunk.Embedding)); err != nil {
			closeAll()
			return nil, fmt.Errorf("write vectors for %s: %w", name, err)
		}
		if _, err := s.mw.WriteString(metadataLine(chunk)); err != nil {
			closeAll()
			return nil, fmt.Errorf("write metadata for %s: %w", name, err)
		}
	}

	if err := closeAll(); err != nil {
		return nil, err
	}
	p.logger.Info("wrote projector files", "sections", len(names), "skipped", skipped)
	return names, nil
}

func (p *Projector) open(name string) (*sink, error) {
	vectors, err := p.create(p.Path(name))
	if err != nil {
		return nil, fmt.Errorf("create vectors file for %s: %w", name, err)
	}
	metadata, err := p.create(p.Path(MetadataPrefix + name))
	if err != nil {
		vectors.Close()
		return nil, fmt.Errorf("create metadata file for %s: %w", name, err)
	}

	s := &sink{
		vectors:  vectors,
		metadata: metadata,
		vw:       bufio.NewWriter(vectors),
		mw:       bufio.NewWriter(metadata),
	}
	if _, err := s.mw.WriteString(strings.Join(metadataFields, "\t") + "\n"); err != nil {
		s.close()
		return nil, fmt.Errorf("write metadata header for %s: %w", name, err)
	}
	return s, nil
}

func vectorLine(embedding []float32) string {
	fields := make([]string, len(embedding))
	for i, v := range embedding {
		fields[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return strings.Join(fields, "\t") + "\n"
}

func metadataLine(chunk *core.Chunk) string {
	fields := []string{strconv.Itoa(chunk.Key), chunk.SysName, chunk.Snapshot, chunk.Text}
	for i, f := range fields {
		fields[i] = escaper.Replace(f)
	}
	return strings.Join(fields, "\t") + "\n"
}
