// Package stats derives fleet-level statistics from a parsed trace:
// global averages, percentiles, throughput buckets and the before/after
// effect of health kills.
//
// Everything is computed from a ReportContext, a read-only projection of a
// trace.Model built once by NewReportContext and then shared by every
// consumer (text report, exports, charts, the anomaly engine).
package stats

import (
	"sort"

	"dltrace/trace"
)

// DefaultSlowTaskMultiplier flags tasks slower than twice the mean.
const DefaultSlowTaskMultiplier = 2.0

// WorkerTask is a task together with the worker that completed it.
type WorkerTask struct {
	WorkerID int `json:"worker_id" yaml:"worker_id"`
	trace.Task `yaml:",inline"`
}

// ReportContext is the shared input of every analysis on a model.
// It must be treated as read-only once built.
type ReportContext struct {
	Model *trace.Model

	// AllTasks lists every task, workers in id order, tasks in trace order.
	AllTasks []WorkerTask

	GlobalAvgSpeedMBps    float64
	GlobalAvgTaskDuration float64

	SpeedByWorker map[int]float64

	// SlowTasks are tasks longer than SlowThreshold seconds, longest first.
	SlowTasks     []WorkerTask
	SlowThreshold float64
}

// NewReportContext flattens the model and computes the global figures.
// A non-positive multiplier falls back to DefaultSlowTaskMultiplier.
func NewReportContext(m *trace.Model, slowMultiplier float64) *ReportContext {
	if slowMultiplier <= 0 {
		slowMultiplier = DefaultSlowTaskMultiplier
	}

	ctx := &ReportContext{
		Model:         m,
		SpeedByWorker: make(map[int]float64, len(m.Workers)),
	}

	for _, w := range m.SortedWorkers() {
		ctx.SpeedByWorker[w.ID] = w.AvgSpeedMBps()
		for _, t := range w.Tasks {
			ctx.AllTasks = append(ctx.AllTasks, WorkerTask{WorkerID: w.ID, Task: t})
		}
	}

	ctx.GlobalAvgSpeedMBps = GlobalAvgSpeedMBps(ctx.AllTasks)
	ctx.GlobalAvgTaskDuration = GlobalAvgTaskDuration(ctx.AllTasks)
	ctx.SlowThreshold = ctx.GlobalAvgTaskDuration * slowMultiplier
	ctx.SlowTasks = SlowTasks(ctx.AllTasks, ctx.SlowThreshold)
	return ctx
}

// HasData reports whether the context has at least one worker.
func (c *ReportContext) HasData() bool {
	return c != nil && c.Model != nil && !c.Model.Empty()
}

// HasTasks reports whether the context has at least one task.
func (c *ReportContext) HasTasks() bool {
	return c != nil && len(c.AllTasks) > 0
}

// SlowTasks returns the tasks whose duration exceeds threshold, longest
// first. Ties keep their original order.
func SlowTasks(tasks []WorkerTask, threshold float64) []WorkerTask {
	var slow []WorkerTask
	for _, t := range tasks {
		if t.Duration > threshold {
			slow = append(slow, t)
		}
	}
	sort.SliceStable(slow, func(i, j int) bool {
		return slow[i].Duration > slow[j].Duration
	})
	return slow
}

// TaskDurations returns the duration of every task in the context.
func (c *ReportContext) TaskDurations() []float64 {
	out := make([]float64, len(c.AllTasks))
	for i, t := range c.AllTasks {
		out[i] = t.Duration
	}
	return out
}

// TaskSpeeds returns the speed of every task in the context.
func (c *ReportContext) TaskSpeeds() []float64 {
	out := make([]float64, len(c.AllTasks))
	for i, t := range c.AllTasks {
		out[i] = t.SpeedMBps()
	}
	return out
}

// TasksByCompletion returns the tasks ordered by completion time.
func (c *ReportContext) TasksByCompletion() []WorkerTask {
	out := make([]WorkerTask, len(c.AllTasks))
	copy(out, c.AllTasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}
