package batcher

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	"github.com/poiesic/logembed/core"
)

const (
	// DefaultCharsPerToken is the character-to-token divisor used by CharCost.
	DefaultCharsPerToken = 4

	// DefaultEncoding is the tiktoken encoding used by the OpenAI embedding models.
	DefaultEncoding = "cl100k_base"
)

// CostFunc estimates how much of a batch budget a chunk consumes.
type CostFunc func(*core.Chunk) int

// CharCost estimates tokens as ceil(characters / charsPerToken).
// This is an approximation; it does not tokenize.
func CharCost(charsPerToken int) CostFunc {
	if charsPerToken <= 0 {
		charsPerToken = DefaultCharsPerToken
	}
	return func(chunk *core.Chunk) int {
		n := utf8.RuneCountInString(chunk.Text)
		return (n + charsPerToken - 1) / charsPerToken
	}
}

// TiktokenCost counts tokens exactly with the named tiktoken encoding.
// The encoding's BPE ranks are fetched and cached by tiktoken-go on first use.
func TiktokenCost(encoding string) (CostFunc, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load tiktoken encoding %q: %w", encoding, err)
	}
	return func(chunk *core.Chunk) int {
		return len(enc.Encode(chunk.Text, nil, nil))
	}, nil
}
