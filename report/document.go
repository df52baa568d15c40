// Package report assembles the analysis of one trace into a Document and
// renders it as styled text, JSON, YAML or a Prometheus text exposition.
package report

import (
	"errors"
	"time"

	"dltrace/anomaly"
	"dltrace/stats"
	"dltrace/trace"
)

// Options controls which analyses NewDocument runs and how much detail it
// keeps.
type Options struct {
	Buckets           int
	ImpactWindow      time.Duration
	ImpactScope       stats.ImpactScope
	Thresholds        anomaly.Thresholds
	TopSlowTasks      int
	SlowTaskListLimit int
}

// DefaultOptions mirrors the configuration defaults.
func DefaultOptions() Options {
	return Options{
		Buckets:           20,
		ImpactWindow:      stats.DefaultImpactWindow,
		ImpactScope:       stats.ScopeWorker,
		Thresholds:        anomaly.DefaultThresholds(),
		TopSlowTasks:      3,
		SlowTaskListLimit: 10,
	}
}

// WorkerRow is one line of the worker table plus its detail block.
type WorkerRow struct {
	ID           int          `json:"id" yaml:"id"`
	Tasks        int          `json:"tasks" yaml:"tasks"`
	TotalBytes   int64        `json:"total_bytes" yaml:"total_bytes"`
	AvgSpeedMBps float64      `json:"avg_speed_mbps" yaml:"avg_speed_mbps"`
	MinSpeedMBps float64      `json:"min_speed_mbps" yaml:"min_speed_mbps"`
	MaxSpeedMBps float64      `json:"max_speed_mbps" yaml:"max_speed_mbps"`
	WallSeconds  float64      `json:"wall_seconds" yaml:"wall_seconds"`
	WorkSeconds  float64      `json:"work_seconds" yaml:"work_seconds"`
	IdleSeconds  float64      `json:"idle_seconds" yaml:"idle_seconds"`
	Utilization  float64      `json:"utilization_pct" yaml:"utilization_pct"`
	Status       string       `json:"status" yaml:"status"`
	Healthy      bool         `json:"healthy" yaml:"healthy"`
	SlowestTasks []trace.Task `json:"slowest_tasks,omitempty" yaml:"slowest_tasks,omitempty"`
}

// BucketRow is a throughput bucket with its rate precomputed for export.
type BucketRow struct {
	stats.Bucket   `yaml:",inline"`
	ThroughputMBps float64 `json:"throughput_mbps" yaml:"throughput_mbps"`
}

// Document is everything a renderer needs. It holds no references into the
// model it was built from.
type Document struct {
	RunID     string `json:"run_id,omitempty" yaml:"run_id,omitempty"`
	TracePath string `json:"trace_path,omitempty" yaml:"trace_path,omitempty"`
	Filter    string `json:"filter,omitempty" yaml:"filter,omitempty"`

	Summary trace.Summary `json:"summary" yaml:"summary"`
	HasData bool          `json:"has_data" yaml:"has_data"`

	Workers    []WorkerRow `json:"workers" yaml:"workers"`
	TaskCount  int         `json:"task_count" yaml:"task_count"`
	TotalBytes int64       `json:"total_bytes" yaml:"total_bytes"`

	GlobalAvgSpeedMBps    float64 `json:"global_avg_speed_mbps" yaml:"global_avg_speed_mbps"`
	GlobalAvgTaskDuration float64 `json:"global_avg_task_duration_seconds" yaml:"global_avg_task_duration_seconds"`

	DurationPercentiles stats.Percentiles `json:"task_duration_percentiles" yaml:"task_duration_percentiles"`
	SpeedPercentiles    stats.Percentiles `json:"task_speed_percentiles" yaml:"task_speed_percentiles"`

	Buckets      []BucketRow          `json:"throughput_buckets,omitempty" yaml:"throughput_buckets,omitempty"`
	ImpactWindow float64              `json:"impact_window_seconds" yaml:"impact_window_seconds"`
	Impacts      []stats.HealthImpact `json:"health_impacts,omitempty" yaml:"health_impacts,omitempty"`

	Findings          anomaly.Findings         `json:"findings" yaml:"findings"`
	Recommendations   []anomaly.Recommendation `json:"recommendations" yaml:"recommendations"`
	SlowTaskListLimit int                      `json:"-" yaml:"-"`
}

// NewDocument runs every analysis over ctx. An empty context yields a
// document with HasData false rather than an error; only invalid options
// fail.
func NewDocument(ctx *stats.ReportContext, findings anomaly.Findings, opts Options) (*Document, error) {
	if opts.ImpactWindow <= 0 {
		opts.ImpactWindow = stats.DefaultImpactWindow
	}

	doc := &Document{
		HasData:           ctx.HasData(),
		ImpactWindow:      opts.ImpactWindow.Seconds(),
		Findings:          findings,
		Recommendations:   findings.Recommendations(),
		SlowTaskListLimit: opts.SlowTaskListLimit,
	}
	if ctx == nil || ctx.Model == nil {
		return doc, nil
	}
	doc.Summary = ctx.Model.Summary
	doc.TaskCount = len(ctx.AllTasks)
	doc.GlobalAvgSpeedMBps = ctx.GlobalAvgSpeedMBps
	doc.GlobalAvgTaskDuration = ctx.GlobalAvgTaskDuration
	doc.DurationPercentiles = stats.Summarize(ctx.TaskDurations())
	doc.SpeedPercentiles = stats.Summarize(ctx.TaskSpeeds())

	for _, w := range ctx.Model.SortedWorkers() {
		doc.Workers = append(doc.Workers, newWorkerRow(w, ctx.GlobalAvgSpeedMBps, opts))
		doc.TotalBytes += w.TotalBytes()
	}

	if opts.Buckets > 0 {
		buckets, err := stats.BuildThroughputBuckets(ctx, opts.Buckets)
		switch {
		case errors.Is(err, stats.ErrNoData):
		case err != nil:
			return nil, err
		default:
			for _, b := range buckets {
				doc.Buckets = append(doc.Buckets, BucketRow{Bucket: b, ThroughputMBps: b.ThroughputMBps()})
			}
		}
	}

	impacts, err := stats.ComputeHealthEventImpact(ctx, opts.ImpactWindow, opts.ImpactScope)
	if err != nil {
		return nil, err
	}
	doc.Impacts = impacts

	return doc, nil
}

func newWorkerRow(w *trace.WorkerStats, globalAvg float64, opts Options) WorkerRow {
	status := anomaly.Classify(w, globalAvg, opts.Thresholds)
	lo, hi := w.SpeedRange()
	row := WorkerRow{
		ID:           w.ID,
		Tasks:        len(w.Tasks),
		TotalBytes:   w.TotalBytes(),
		AvgSpeedMBps: w.AvgSpeedMBps(),
		MinSpeedMBps: lo,
		MaxSpeedMBps: hi,
		WallSeconds:  w.WallTime(),
		WorkSeconds:  w.TotalWorkTime(),
		IdleSeconds:  w.IdleTime(),
		Utilization:  w.Utilization(),
		Status:       status.String(),
		Healthy:      status.Healthy(),
	}
	if opts.TopSlowTasks > 0 {
		row.SlowestTasks = w.SlowestTasks(opts.TopSlowTasks)
	}
	return row
}

// Worker returns the row for id, or nil.
func (d *Document) Worker(id int) *WorkerRow {
	for i := range d.Workers {
		if d.Workers[i].ID == id {
			return &d.Workers[i]
		}
	}
	return nil
}
