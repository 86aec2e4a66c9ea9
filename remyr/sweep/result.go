package sweep

import (
	"time"

	"github.com/hashicorp/go-multierror"
)

// Status is a run's outcome.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped" // never started because the sweep was cancelled
)

// RunResult is attributable to exactly one RunSpec.
type RunResult struct {
	Spec     RunSpec
	Status   Status
	ExitCode int // -1 when the process never exited normally
	Err      error
	Started  time.Time
	Duration time.Duration
}

// Succeeded reports whether the trainer exited with status 0.
func (r RunResult) Succeeded() bool {
	return r.Status == StatusSucceeded
}

func (r RunResult) fail(err error) RunResult {
	r.Status = StatusFailed
	r.Err = err
	return r
}

// Report is the outcome of a sweep, with Results in queue order.
type Report struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Results  []RunResult
}

// Count returns how many results have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Failed returns the failed results in queue order.
func (r *Report) Failed() []RunResult {
	var out []RunResult
	for _, res := range r.Results {
		if res.Status == StatusFailed {
			out = append(out, res)
		}
	}
	return out
}

// Failures combines every failed run's error, or returns nil.
func (r *Report) Failures() error {
	var merr *multierror.Error
	for _, res := range r.Failed() {
		merr = multierror.Append(merr, res.Err)
	}
	return merr.ErrorOrNil()
}
