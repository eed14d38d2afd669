package batcher

import (
	"github.com/poiesic/logembed/core"
)

const (
	// DefaultBudget is the default token budget per batch.
	DefaultBudget = 8000
)

// Batch is a contiguous run of chunks and their combined cost.
type Batch struct {
	Chunks []*core.Chunk
	Cost   int
}

// Texts returns the text of each chunk, in order.
func (b Batch) Texts() []string {
	texts := make([]string, len(b.Chunks))
	for i, chunk := range b.Chunks {
		texts[i] = chunk.Text
	}
	return texts
}

// Len returns the number of chunks in the batch.
func (b Batch) Len() int {
	return len(b.Chunks)
}

// Pack groups chunks into batches whose cost never exceeds budget.
//
// A chunk whose cost alone exceeds budget aborts packing with a
// *core.OversizedUnitError; no batches are returned in that case.
// The final batch is always emitted, so empty input yields one empty batch.
func Pack(chunks []*core.Chunk, cost CostFunc, budget int) ([]Batch, error) {
	if budget <= 0 {
		return nil, ErrInvalidBudget
	}
	if cost == nil {
		return nil, ErrNilCostFunc
	}

	var batches []Batch
	current := Batch{}

	for _, chunk := range chunks {
		c := cost(chunk)
		if c > budget {
			return nil, &core.OversizedUnitError{Key: chunk.Key, Cost: c, Budget: budget}
		}

		if current.Cost+c > budget {
			batches = append(batches, current)
			current = Batch{Chunks: []*core.Chunk{chunk}, Cost: c}
			continue
		}

		current.Chunks = append(current.Chunks, chunk)
		current.Cost += c
	}

	return append(batches, current), nil
}
