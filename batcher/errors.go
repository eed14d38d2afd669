package batcher

import "errors"

var (
	// ErrInvalidBudget is returned when the batch budget is not positive.
	ErrInvalidBudget = errors.New("budget must be greater than 0")

	// ErrNilCostFunc is returned when no cost function is supplied.
	ErrNilCostFunc = errors.New("cost function required")
)
