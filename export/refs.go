package export

import (
	"slices"
	"strings"
	"unicode"

	"github.com/poiesic/logembed/core"
)

// DefaultEntrypoint is the section searched for references by default.
const DefaultEntrypoint = "head"

// asciiPunctuation is trimmed from both ends of each candidate token.
const asciiPunctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

// Tokens splits text on slashes and whitespace and trims surrounding
// punctuation from each piece. Empty pieces are dropped.
func Tokens(text string) []string {
	raw := strings.FieldsFunc(text, func(r rune) bool {
		return r == '/' || unicode.IsSpace(r)
	})
	tokens := raw[:0]
	for _, t := range raw {
		if t = strings.Trim(t, asciiPunctuation); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// FindReferences returns the section basenames mentioned in the text of
// every entrypoint section, plus the entrypoint itself, sorted.
func FindReferences(chunks []*core.Chunk, entrypoint string) []string {
	known := make(map[string]struct{})
	for _, chunk := range chunks {
		known[Basename(chunk.Filename)] = struct{}{}
	}

	found := map[string]struct{}{entrypoint: {}}
	for _, chunk := range chunks {
		if chunk.Filename != entrypoint {
			continue
		}
		for _, token := range Tokens(chunk.Text) {
			if _, ok := known[token]; ok {
				found[token] = struct{}{}
			}
		}
	}

	refs := make([]string, 0, len(found))
	for name := range found {
		refs = append(refs, name)
	}
	slices.Sort(refs)
	return refs
}
