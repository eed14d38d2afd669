// Package export reshapes embedded chunk records for other tools.
//
// Projector writes TensorFlow Embedding Projector TSV files, one vector file
// and one metadata file per section name. FindReferences lists which
// sections are mentioned from an entrypoint section such as "head".
package export
