package export

import "errors"

var (
	// ErrMissingNameToken is returned when an output pattern lacks NameToken.
	ErrMissingNameToken = errors.New("output pattern must contain " + NameToken)

	// ErrUnsupportedFormat is returned for output formats other than tsv.
	ErrUnsupportedFormat = errors.New("unsupported output format")
)
