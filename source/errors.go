package source

import "errors"

var (
	// ErrUnknownDialect is returned for an unsupported database dialect.
	ErrUnknownDialect = errors.New("unknown database dialect")

	// ErrInvalidLookback is returned when a lookback period cannot be parsed.
	ErrInvalidLookback = errors.New("invalid lookback period")
)
