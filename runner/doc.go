// Package runner executes independent jobs on a bounded worker pool.
//
// Run submits every job to an ants pool sized by the configured concurrency,
// isolates failures (including panics) to the job that produced them, and
// returns one Result per job in submission order. Completion counts are kept
// in a Progress value and pushed to a Reporter after every job settles, so
// callers can observe a long run while it is still in flight.
//
// There are no retries and, unless a job timeout is configured, no deadline:
// Run returns only once every job has settled.
package runner
