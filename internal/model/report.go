package model

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ReloadResult is the outcome of reloading one model.
type ReloadResult struct {
	ModelID  string
	Err      error
	Duration time.Duration
}

// OK reports whether the reload succeeded.
func (r ReloadResult) OK() bool {
	return r.Err == nil
}

// ReloadReport collects the outcomes of a bulk reload, in registration order.
type ReloadReport struct {
	ID        uuid.UUID
	StartedAt time.Time
	Duration  time.Duration
	Results   []ReloadResult
}

func newReloadReport(size int) *ReloadReport {
	return &ReloadReport{
		ID:        uuid.New(),
		StartedAt: time.Now(),
		Results:   make([]ReloadResult, size),
	}
}

// Failed returns the results of the reloads that failed.
func (r *ReloadReport) Failed() []ReloadResult {
	var failed []ReloadResult
	for _, res := range r.Results {
		if !res.OK() {
			failed = append(failed, res)
		}
	}

	return failed
}

// OK reports whether every reload succeeded.
func (r *ReloadReport) OK() bool {
	return len(r.Failed()) == 0
}

// Err joins the errors of all failed reloads, or returns nil.
func (r *ReloadReport) Err() error {
	var errs []error
	for _, res := range r.Failed() {
		errs = append(errs, res.Err)
	}

	return errors.Join(errs...)
}
