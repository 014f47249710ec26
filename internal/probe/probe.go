// Package probe provides units of work for periodicd: one health check of a
// single target per call.
//
// An unhealthy target is reported, not returned as an error. A probe returns
// an error only when it cannot run at all (nil or closed handle), which ends the
// periodic loop that drives it.
package probe

import (
	"context"
	"errors"
	"time"

	"periodicd/pkg/periodic"
)

// Kind identifies the probed technology.
type Kind string

const (
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
	KindHTTP     Kind = "http"
)

// ErrBroken is wrapped by errors of probes that cannot run.
var ErrBroken = errors.New("probe broken")

// Report is the result of one probe run.
type Report struct {
	Target    string         `json:"target"`
	Kind      Kind           `json:"kind"`
	Healthy   bool           `json:"healthy"`
	Latency   time.Duration  `json:"latency"`
	Detail    string         `json:"detail,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	CheckedAt time.Time      `json:"checked_at"`
}

// WithTimeout bounds every run of work by d.
func WithTimeout(d time.Duration, work periodic.WorkFunc[Report]) periodic.WorkFunc[Report] {
	if d <= 0 {
		return work
	}
	return func(ctx context.Context) (Report, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return work(ctx)
	}
}

func newReport(kind Kind, target string, start time.Time) Report {
	return Report{
		Target:    target,
		Kind:      kind,
		CheckedAt: start,
		Latency:   time.Since(start),
	}
}

func unhealthy(r Report, err error) Report {
	r.Healthy = false
	r.Detail = err.Error()
	return r
}
