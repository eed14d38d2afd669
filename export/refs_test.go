package export

import (
	"testing"

	"github.com/poiesic/logembed/core"
	"github.com/stretchr/testify/assert"
)

func TestTokens(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "whitespace", text: "see  config.log\tfor\ndetails", want: []string{"see", "config.log", "for", "details"}},
		{name: "paths", text: "src/test/regress/regression.diffs", want: []string{"src", "test", "regress", "regression.diffs"}},
		{name: "punctuation trimmed", text: `("install.log"), [make.log]:`, want: []string{"install.log", "make.log"}},
		{name: "inner periods kept", text: "a.b.c.", want: []string{"a.b.c"}},
		{name: "only punctuation", text: "... --- !!!", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokens(tt.text)
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFindReferences(t *testing.T) {
	chunks := []*core.Chunk{
		{Filename: "head", Text: "make check failed; see src/test/regress/regression.diffs and 'initdb.log'."},
		{Filename: "src/test/regress/regression.diffs", Text: "--- expected"},
		{Filename: "initdb.log", Text: "ok"},
		{Filename: "config.log", Text: "unrelated"},
		{Filename: "head", Text: "second report mentions config.log too"},
		{Filename: "install.log", Text: "head is mentioned here but not searched"},
	}

	assert.Equal(t,
		[]string{"config.log", "head", "initdb.log", "regression.diffs"},
		FindReferences(chunks, DefaultEntrypoint))

	assert.Equal(t, []string{"head", "install.log"}, FindReferences(chunks, "install.log"))
	assert.Equal(t, []string{"missing"}, FindReferences(chunks, "missing"))
}
