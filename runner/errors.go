package runner

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConcurrency is returned when the worker count is not positive.
	ErrInvalidConcurrency = errors.New("concurrency must be greater than 0")

	// ErrJobPanicked is wrapped by failures caused by a panicking job.
	ErrJobPanicked = errors.New("job panicked")
)

// JobError is the failure descriptor of a single job.
type JobError struct {
	Index int
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("job %d: %v", e.Index, e.Err)
}

func (e *JobError) Unwrap() error {
	return e.Err
}
