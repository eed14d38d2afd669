package pipeline

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/poiesic/logembed/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRecords_Schema(t *testing.T) {
	chunks := []*core.Chunk{
		{Key: 0, SysName: "gull", Snapshot: "2025-01-01 00:00:00", Status: "1", Stage: "Make",
			Filename: "head", Commit: "abc", Branch: "main", Text: "<err>", Embedding: []float32{0.5, 1}},
		{Key: 1, SysName: "gull", Snapshot: "2025-01-01 00:00:00", Stage: "Make",
			Filename: "config.log", Text: "x", Error: "job 0: boom"},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, chunks))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.JSONEq(t, `{"key":0,"sysname":"gull","snapshot":"2025-01-01 00:00:00","status":"1","stage":"Make",
		"filename":"head","commit":"abc","branch":"main","text":"<err>","embedding":[0.5,1]}`, lines[0])
	assert.JSONEq(t, `{"key":1,"sysname":"gull","snapshot":"2025-01-01 00:00:00","status":"","stage":"Make",
		"filename":"config.log","commit":"","branch":"","text":"x","error":"job 0: boom"}`, lines[1])
	assert.Contains(t, lines[0], "<err>", "html is not escaped")
}

func TestReadRecords_RoundTrip(t *testing.T) {
	chunks := []*core.Chunk{
		{Key: 0, SysName: "gull", Snapshot: "s1", Filename: "head", Text: "a\nb", Embedding: []float32{1, 2}},
		{Key: 1, SysName: "moth", Snapshot: "s2", Filename: "f.log", Text: "c"},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteRecords(&buf, chunks))

	got, err := ReadRecords(&buf, nil)
	require.NoError(t, err)
	assert.Equal(t, chunks, got)
}

func TestRecords_SkipsMalformedLines(t *testing.T) {
	input := strings.Join([]string{
		`{"key":0,"sysname":"gull","snapshot":"s1","text":"a"}`,
		``,
		`not json`,
		`{"key":1,"snapshot":"s1","text":"no sysname"}`,
		`{"key":2,"sysname":"moth","snapshot":"s2","text":"b"}`,
	}, "\n")

	var chunks []*core.Chunk
	var positions []int
	for chunk, err := range Records(strings.NewReader(input)) {
		if err != nil {
			var malformed *core.MalformedInputError
			require.True(t, errors.As(err, &malformed))
			assert.ErrorIs(t, err, core.ErrMalformedInput)
			positions = append(positions, malformed.Position)
			continue
		}
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []int{3, 4}, positions)
	require.Len(t, chunks, 2)
	assert.Equal(t, 0, chunks[0].Key)
	assert.Equal(t, 2, chunks[1].Key)

	got, err := ReadRecords(strings.NewReader(input), nil)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestReadRecords_ReadError(t *testing.T) {
	_, err := ReadRecords(failingReader{}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
