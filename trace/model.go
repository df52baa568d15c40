// Package trace turns the text trace written by a multi-worker chunked
// downloader into a structured Model: workers with their completed tasks,
// balancer split events, health kills and the download summary.
//
// A Model is built by one linear pass over the trace (see Parse) and is not
// mutated afterwards. Filter produces an independent, narrowed copy.
package trace

import (
	"sort"
	"time"
)

// MiB is the byte unit used for every MB/s figure in the analyzer.
const MiB = 1024 * 1024

// TimestampLayout is the layout of the bracketed timestamp that prefixes
// trace lines.
const TimestampLayout = "2006-01-02 15:04:05"

// Task is one completed chunk download. Timestamp is the completion time
// taken from the trace line that reported it.
type Task struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Offset    int64     `json:"offset" yaml:"offset"`
	Length    int64     `json:"length" yaml:"length"`
	Duration  float64   `json:"duration_seconds" yaml:"duration_seconds"`
}

// StartTime infers when the task started.
func (t Task) StartTime() time.Time {
	return t.Timestamp.Add(-secondsToDuration(t.Duration))
}

// SpeedMBps returns the task throughput in MiB/s, or 0 for non-positive
// durations.
func (t Task) SpeedMBps() float64 {
	if t.Duration <= 0 {
		return 0
	}
	return (float64(t.Length) / MiB) / t.Duration
}

// WorkerStats aggregates everything the trace reported about one worker.
// StartTime and EndTime are zero when the trace carried no lifecycle line.
type WorkerStats struct {
	ID        int       `json:"id" yaml:"id"`
	StartTime time.Time `json:"start_time,omitempty" yaml:"start_time,omitempty"`
	EndTime   time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
	Tasks     []Task    `json:"tasks" yaml:"tasks"`
}

// TotalWorkTime is the sum of task durations in seconds.
func (w *WorkerStats) TotalWorkTime() float64 {
	total := 0.0
	for _, t := range w.Tasks {
		total += t.Duration
	}
	return total
}

// TotalBytes is the sum of task lengths.
func (w *WorkerStats) TotalBytes() int64 {
	var total int64
	for _, t := range w.Tasks {
		total += t.Length
	}
	return total
}

// AvgSpeedMBps is total bytes over total work time.
func (w *WorkerStats) AvgSpeedMBps() float64 {
	work := w.TotalWorkTime()
	if work <= 0 {
		return 0
	}
	return (float64(w.TotalBytes()) / MiB) / work
}

// WallTime is the worker's lifetime in seconds, 0 unless both lifecycle
// events were seen.
func (w *WorkerStats) WallTime() float64 {
	if w.StartTime.IsZero() || w.EndTime.IsZero() {
		return 0
	}
	return w.EndTime.Sub(w.StartTime).Seconds()
}

// Utilization is the percentage of wall time spent downloading, capped at
// 100 because timestamps only have one-second precision.
func (w *WorkerStats) Utilization() float64 {
	wall := w.WallTime()
	if wall <= 0 {
		return 0
	}
	return min(100.0, w.TotalWorkTime()/wall*100)
}

// IdleTime is wall time minus work time, never negative.
func (w *WorkerStats) IdleTime() float64 {
	return max(0.0, w.WallTime()-w.TotalWorkTime())
}

// SpeedRange returns the slowest and fastest task speed.
func (w *WorkerStats) SpeedRange() (lo, hi float64) {
	for i, t := range w.Tasks {
		s := t.SpeedMBps()
		if i == 0 || s < lo {
			lo = s
		}
		if i == 0 || s > hi {
			hi = s
		}
	}
	return lo, hi
}

// SlowestTasks returns up to n tasks ordered by duration, longest first.
// Ties keep arrival order.
func (w *WorkerStats) SlowestTasks(n int) []Task {
	sorted := make([]Task, len(w.Tasks))
	copy(sorted, w.Tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	if n >= 0 && len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// clone returns a deep copy whose task slice is independent of w.
func (w *WorkerStats) clone(keep func(Task) bool) *WorkerStats {
	c := &WorkerStats{
		ID:        w.ID,
		StartTime: w.StartTime,
		EndTime:   w.EndTime,
		Tasks:     make([]Task, 0, len(w.Tasks)),
	}
	for _, t := range w.Tasks {
		if keep == nil || keep(t) {
			c.Tasks = append(c.Tasks, t)
		}
	}
	return c
}

// BalancerSplit records a fleet-wide rebalancing action. Total is the
// cumulative split count reported by the downloader.
type BalancerSplit struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Total     int       `json:"total" yaml:"total"`
}

// KillReason says why the health monitor cancelled a worker.
type KillReason string

const (
	KillStalled KillReason = "stalled"
	KillSlow    KillReason = "slow"
)

// HealthKill is a corrective event issued by the downloader's health check.
type HealthKill struct {
	Timestamp time.Time  `json:"timestamp" yaml:"timestamp"`
	WorkerID  int        `json:"worker_id" yaml:"worker_id"`
	Reason    KillReason `json:"reason" yaml:"reason"`
}

// Summary holds download-level facts. HasProbe and HasCompletion say
// which groups of fields the trace actually provided.
type Summary struct {
	HasProbe  bool   `json:"has_probe" yaml:"has_probe"`
	Filename  string `json:"filename,omitempty" yaml:"filename,omitempty"`
	TotalSize int64  `json:"total_size_bytes,omitempty" yaml:"total_size_bytes,omitempty"`

	HasCompletion bool      `json:"has_completion" yaml:"has_completion"`
	TotalDuration float64   `json:"total_duration_seconds,omitempty" yaml:"total_duration_seconds,omitempty"`
	AvgSpeedText  string    `json:"avg_speed,omitempty" yaml:"avg_speed,omitempty"`
	EndTime       time.Time `json:"end_time,omitempty" yaml:"end_time,omitempty"`
}

// Model is the structured form of one trace.
type Model struct {
	Workers        map[int]*WorkerStats `json:"workers" yaml:"workers"`
	BalancerSplits []BalancerSplit      `json:"balancer_splits" yaml:"balancer_splits"`
	HealthKills    []HealthKill         `json:"health_kills" yaml:"health_kills"`
	Summary        Summary              `json:"summary" yaml:"summary"`
}

// NewModel returns an empty model.
func NewModel() *Model {
	return &Model{Workers: make(map[int]*WorkerStats)}
}

// Worker returns the worker with the given id, creating it if needed.
func (m *Model) Worker(id int) *WorkerStats {
	w, ok := m.Workers[id]
	if !ok {
		w = &WorkerStats{ID: id}
		m.Workers[id] = w
	}
	return w
}

// WorkerIDs returns the worker ids in ascending order.
func (m *Model) WorkerIDs() []int {
	ids := make([]int, 0, len(m.Workers))
	for id := range m.Workers {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SortedWorkers returns the workers ordered by id.
func (m *Model) SortedWorkers() []*WorkerStats {
	out := make([]*WorkerStats, 0, len(m.Workers))
	for _, id := range m.WorkerIDs() {
		out = append(out, m.Workers[id])
	}
	return out
}

// TaskCount returns the number of tasks across all workers.
func (m *Model) TaskCount() int {
	n := 0
	for _, w := range m.Workers {
		n += len(w.Tasks)
	}
	return n
}

// Empty reports whether the trace produced no workers.
func (m *Model) Empty() bool {
	return len(m.Workers) == 0
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
