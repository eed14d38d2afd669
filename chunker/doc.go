// Package chunker splits build logs into named sections.
//
// Build farm logs concatenate the output of many files into one blob, with
// each file introduced by a marker, its name, and the marker again:
//
//	<head text>MARKER<filename>MARKER<file text>MARKER<filename>MARKER<file text>...
//
// Split performs the raw parse; Chunker turns a stream of LogBlobs into
// keyed core.Chunk values, keeping only the tail of each section.
package chunker
