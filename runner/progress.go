// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package runner

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Snapshot is a point-in-time view of a run's counters.
type Snapshot struct {
	Total     int
	Running   int
	Completed int
	Failed    int
	Elapsed   time.Duration
}

// Pending returns the number of jobs that have not started yet.
func (s Snapshot) Pending() int {
	return s.Total - s.Running - s.Completed
}

// Succeeded returns the number of jobs that completed without error.
func (s Snapshot) Succeeded() int {
	return s.Completed - s.Failed
}

// Reporter receives a snapshot after every job completion.
// Calls are serialized; a Reporter never sees two snapshots at once, and
// Completed never decreases between calls.
type Reporter interface {
	Report(Snapshot)
}

// ReporterFunc adapts a function to the Reporter interface.
type ReporterFunc func(Snapshot)

// Report calls f(s).
func (f ReporterFunc) Report(s Snapshot) {
	f(s)
}

type nopReporter struct{}

func (nopReporter) Report(Snapshot) {}

// Progress is the shared state of a run.
// Workers only touch it through start and finish, which hold the lock.
type Progress struct {
	mu        sync.Mutex
	total     int
	running   int
	completed int
	failed    int
	startTime time.Time
	reporter  Reporter
}

func newProgress(total int, reporter Reporter) *Progress {
	if reporter == nil {
		reporter = nopReporter{}
	}
	return &Progress{
		total:     total,
		startTime: time.Now(),
		reporter:  reporter,
	}
}

// start marks a job as running.
func (p *Progress) start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running++
}

// finish marks a running job as settled and reports the new counts.
// The reporter is called with the lock held so reports are ordered.
func (p *Progress) finish(failed bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.running--
	p.completed++
	if failed {
		p.failed++
	}
	p.reporter.Report(p.snapshot())
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshot()
}

// snapshot builds a Snapshot. Must be called with lock held.
func (p *Progress) snapshot() Snapshot {
	return Snapshot{
		Total:     p.total,
		Running:   p.running,
		Completed: p.completed,
		Failed:    p.failed,
		Elapsed:   time.Since(p.startTime),
	}
}

// LineReporter writes one progress line per report interval.
type LineReporter struct {
	writer       io.Writer
	interval     int
	lastReported int
	mu           sync.Mutex
}

// NewLineReporter creates a reporter writing to w.
// interval: print every N completions; the final completion always prints.
// An interval <= 1 prints after every completion.
func NewLineReporter(w io.Writer, interval int) *LineReporter {
	if interval < 1 {
		interval = 1
	}
	return &LineReporter{
		writer:   w,
		interval: interval,
	}
}

// Report prints s if an interval has been crossed or the run is done.
func (r *LineReporter) Report(s Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s.Completed-r.lastReported < r.interval && s.Completed < s.Total {
		return
	}
	r.lastReported = s.Completed

	percentage := 0.0
	if s.Total > 0 {
		percentage = float64(s.Completed) / float64(s.Total) * 100.0
	}

	fmt.Fprintf(r.writer, "Progress: %d/%d (%.1f%%) | Errors: %d\n",
		s.Completed, s.Total, percentage, s.Failed)
}
