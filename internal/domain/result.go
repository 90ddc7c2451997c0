package domain

import (
	"fmt"
	"time"
)

type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// ItemResult is the outcome of processing one unit of work: one channel, one raw capture
// or one media asset.
type ItemResult struct {
	Kind   string
	Key    string
	Status Status
	Reason string
	Err    error
	Items  int
}

func Succeeded(kind, key string, items int) ItemResult {
	return ItemResult{Kind: kind, Key: key, Status: StatusSucceeded, Items: items}
}

func Skipped(kind, key, reason string) ItemResult {
	return ItemResult{Kind: kind, Key: key, Status: StatusSkipped, Reason: reason}
}

func Failed(kind, key string, err error) ItemResult {
	return ItemResult{Kind: kind, Key: key, Status: StatusFailed, Err: err}
}

const maxReportedFailures = 50

// Report aggregates the results of one orchestrator pass.
type Report struct {
	Operation string
	Started   time.Time
	Finished  time.Time
	Rounds    int

	Succeeded int
	Skipped   int
	Failed    int
	Items     int

	Failures []ItemResult
}

func NewReport(operation string) *Report {
	return &Report{Operation: operation, Started: time.Now()}
}

func (r *Report) Add(res ItemResult) {
	switch res.Status {
	case StatusSucceeded:
		r.Succeeded++
	case StatusSkipped:
		r.Skipped++
	case StatusFailed:
		r.Failed++
		if len(r.Failures) < maxReportedFailures {
			r.Failures = append(r.Failures, res)
		}
	}
	r.Items += res.Items
}

// Merge folds another report of the same operation into r.
func (r *Report) Merge(o *Report) {
	r.Succeeded += o.Succeeded
	r.Skipped += o.Skipped
	r.Failed += o.Failed
	r.Items += o.Items
	r.Rounds += o.Rounds
	for _, f := range o.Failures {
		if len(r.Failures) >= maxReportedFailures {
			break
		}
		r.Failures = append(r.Failures, f)
	}
}

func (r *Report) Finish() *Report {
	r.Finished = time.Now()
	return r
}

func (r *Report) Summary() string {
	return fmt.Sprintf("%s: %d succeeded, %d skipped, %d failed, %d items in %d rounds (%s)",
		r.Operation, r.Succeeded, r.Skipped, r.Failed, r.Items, r.Rounds,
		r.Finished.Sub(r.Started).Round(time.Millisecond))
}
