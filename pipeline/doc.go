// Package pipeline wires the chunk, batch and dispatch stages together.
//
// A run turns a stream of build reports into chunks, packs the chunks into
// batches under a cost budget, embeds the batches concurrently and merges
// each batch's vectors (or its failure) back into the chunks it carried.
// Records are exchanged with other tools as newline-delimited JSON.
package pipeline
