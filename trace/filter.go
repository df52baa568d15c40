package trace

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FilterOptions narrows a model. Nil fields do not restrict.
type FilterOptions struct {
	WorkerID *int
	Since    *time.Time
	Until    *time.Time
}

// IsZero reports whether the options leave the model unchanged.
func (o FilterOptions) IsZero() bool {
	return o.WorkerID == nil && o.Since == nil && o.Until == nil
}

// String describes the active restrictions, e.g. "worker=2 since=...".
func (o FilterOptions) String() string {
	var parts []string
	if o.WorkerID != nil {
		parts = append(parts, "worker="+strconv.Itoa(*o.WorkerID))
	}
	if o.Since != nil {
		parts = append(parts, "since="+o.Since.Format(TimestampLayout))
	}
	if o.Until != nil {
		parts = append(parts, "until="+o.Until.Format(TimestampLayout))
	}
	return strings.Join(parts, " ")
}

// inRange reports whether ts lies in the closed interval [Since, Until].
func (o FilterOptions) inRange(ts time.Time) bool {
	if o.Since != nil && ts.Before(*o.Since) {
		return false
	}
	if o.Until != nil && ts.After(*o.Until) {
		return false
	}
	return true
}

// Filter returns a new model restricted to one worker and/or to tasks whose
// completion time lies in [Since, Until]. The worker axis and the time axis
// are independent: a worker kept by id keeps only its in-range tasks, which
// may be none. Balancer splits, health kills and the summary pass through.
// m is never modified.
func Filter(m *Model, opts FilterOptions) *Model {
	out := NewModel()

	var keep func(Task) bool
	if opts.Since != nil || opts.Until != nil {
		keep = func(t Task) bool { return opts.inRange(t.Timestamp) }
	}

	for id, w := range m.Workers {
		if opts.WorkerID != nil && id != *opts.WorkerID {
			continue
		}
		out.Workers[id] = w.clone(keep)
	}

	out.BalancerSplits = append([]BalancerSplit(nil), m.BalancerSplits...)
	out.HealthKills = append([]HealthKill(nil), m.HealthKills...)
	out.Summary = m.Summary
	return out
}

// ParseFilterTime parses a --since/--until value in the trace timestamp
// layout. An empty string yields nil.
func ParseFilterTime(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	ts, err := time.Parse(TimestampLayout, s)
	if err != nil {
		return nil, fmt.Errorf("invalid time %q (want %q): %w", s, TimestampLayout, err)
	}
	return &ts, nil
}

// Validate checks that the time bounds are ordered.
func (o FilterOptions) Validate() error {
	if o.Since != nil && o.Until != nil && o.Since.After(*o.Until) {
		return ErrBadTimeRange
	}
	return nil
}
