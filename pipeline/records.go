package pipeline

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"

	"github.com/poiesic/logembed/core"
)

// maxRecordSize bounds a single NDJSON line. Records carry a full embedding
// plus up to a section of log text.
const maxRecordSize = 64 * 1024 * 1024

// Records streams chunks from newline-delimited JSON.
//
// Lines that are blank are ignored. A line that cannot be decoded, or that
// lacks a report identifier, is yielded as a *core.MalformedInputError whose
// Position is the 1-based line number. Read failures end the stream.
func Records(r io.Reader) iter.Seq2[*core.Chunk, error] {
	return func(yield func(*core.Chunk, error) bool) {
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), maxRecordSize)

		line := 0
		for scanner.Scan() {
			line++
			data := bytes.TrimSpace(scanner.Bytes())
			if len(data) == 0 {
				continue
			}

			var chunk core.Chunk
			err := json.Unmarshal(data, &chunk)
			if err == nil {
				err = core.ValidateChunk(&chunk)
			}
			if err != nil {
				if !yield(nil, &core.MalformedInputError{Position: line, Err: err}) {
					return
				}
				continue
			}
			if !yield(&chunk, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(nil, fmt.Errorf("failed to read records: %w", err))
		}
	}
}

// ReadRecords collects every well-formed chunk from r. Malformed lines are
// logged and skipped.
func ReadRecords(r io.Reader, logger *slog.Logger) ([]*core.Chunk, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var chunks []*core.Chunk
	skipped := 0
	for chunk, err := range Records(r) {
		if err != nil {
			var malformed *core.MalformedInputError
			if errors.As(err, &malformed) {
				logger.Warn("skipping malformed record", "line", malformed.Position, "err", malformed.Err)
				skipped++
				continue
			}
			return nil, err
		}
		chunks = append(chunks, chunk)
	}
	logger.Debug("read records", "records", len(chunks), "skipped", skipped)
	return chunks, nil
}

// WriteRecords writes one JSON object per chunk, each followed by a newline.
func WriteRecords(w io.Writer, chunks []*core.Chunk) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	enc.SetEscapeHTML(false)
	for _, chunk := range chunks {
		if err := enc.Encode(chunk); err != nil {
			return fmt.Errorf("failed to write record %d: %w", chunk.Key, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to flush records: %w", err)
	}
	return nil
}
