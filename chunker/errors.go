package chunker

import "errors"

var (
	// ErrEmptyMarker is returned when a chunker is configured without a marker.
	ErrEmptyMarker = errors.New("marker cannot be empty")
)
