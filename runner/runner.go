package runner

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
)

const (
	// DefaultConcurrency is the default number of simultaneously running jobs.
	DefaultConcurrency = 5
)

// Result is the outcome of one job.
// Err is nil on success and a *JobError otherwise.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Failed reports whether the job failed.
func (r Result[R]) Failed() bool {
	return r.Err != nil
}

// Runner holds the configuration shared by runs.
// It is safe to call Run concurrently with the same Runner; each run gets
// its own pool and progress state.
type Runner struct {
	concurrency int
	jobTimeout  time.Duration
	reporter    Reporter
	logger      *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner) error

// WithConcurrency sets the maximum number of jobs running at once.
// Default is DefaultConcurrency.
func WithConcurrency(n int) Option {
	return func(r *Runner) error {
		if n < 1 {
			return ErrInvalidConcurrency
		}
		r.concurrency = n
		return nil
	}
}

// WithJobTimeout bounds each job with a context deadline.
// Zero (the default) means jobs run until they return.
func WithJobTimeout(d time.Duration) Option {
	return func(r *Runner) error {
		if d < 0 {
			d = 0
		}
		r.jobTimeout = d
		return nil
	}
}

// WithReporter sets the reporter notified after each job completes.
func WithReporter(reporter Reporter) Option {
	return func(r *Runner) error {
		r.reporter = reporter
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// New creates a runner.
func New(opts ...Option) (*Runner, error) {
	r := &Runner{
		concurrency: DefaultConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "runner")
	return r, nil
}

// Concurrency returns the configured worker count.
func (r *Runner) Concurrency() int {
	return r.concurrency
}

// Run executes process for every job and returns one result per job, in
// submission order. A failing or panicking job only affects its own result.
// Run blocks until every job has settled.
func Run[P, R any](ctx context.Context, r *Runner, process func(context.Context, P) (R, error), jobs []P) ([]Result[R], error) {
	results := make([]Result[R], len(jobs))
	progress := newProgress(len(jobs), r.reporter)

	if len(jobs) == 0 {
		return results, nil
	}

	pool, err := ants.NewPool(r.concurrency)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}
	defer pool.Release()

	r.logger.Debug("starting run", "jobs", len(jobs), "concurrency", r.concurrency)

	var wg sync.WaitGroup
	for i, payload := range jobs {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			progress.start()
			results[i] = execute(ctx, r, i, process, payload)
			progress.finish(results[i].Failed())
		}
		// Submit blocks while every worker is busy.
		if err := pool.Submit(task); err != nil {
			progress.start()
			results[i] = Result[R]{Index: i, Err: &JobError{Index: i, Err: err}}
			progress.finish(true)
			wg.Done()
		}
	}
	wg.Wait()

	s := progress.Snapshot()
	r.logger.Info("run complete", "jobs", s.Total, "failed", s.Failed, "elapsed", s.Elapsed.Round(time.Millisecond))
	return results, nil
}

// execute runs a single job, converting errors and panics into a failure result.
func execute[P, R any](ctx context.Context, r *Runner, index int, process func(context.Context, P) (R, error), payload P) (result Result[R]) {
	result.Index = index

	defer func() {
		if rec := recover(); rec != nil {
			result.Err = &JobError{Index: index, Err: fmt.Errorf("%w: %v", ErrJobPanicked, rec)}
			r.logger.Error("job panicked", "job", index, "panic", rec)
		}
	}()

	if r.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.jobTimeout)
		defer cancel()
	}

	value, err := process(ctx, payload)
	if err != nil {
		r.logger.Error("error processing job", "job", index, "err", err)
		result.Err = &JobError{Index: index, Err: err}
		return result
	}
	result.Value = value
	return result
}
