// Package chart renders PNG charts from a stats.ReportContext with gonum/plot.
//
// Charts are optional output: Generate never fails the analysis. Each chart
// that cannot be drawn is reported back as a warning and the remaining
// charts are still attempted.
package chart

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gonum.org/v1/plot/vg"

	"dltrace/stats"
)

// File names written by Generate.
const (
	SpeedGraphFile   = "speed_graph.png"
	WorkerSpeedsFile = "worker_speeds.png"
	ThroughputFile   = "throughput.png"
)

// ErrNoTasks is reported when the context has nothing to plot.
var ErrNoTasks = errors.New("no task data to chart")

// ChartError says which chart failed.
type ChartError struct {
	Chart string
	Err   error
}

func (e *ChartError) Error() string {
	return fmt.Sprintf("chart %s: %v", e.Chart, e.Err)
}

func (e *ChartError) Unwrap() error {
	return e.Err
}

// Options controls Generate.
type Options struct {
	// Buckets is the number of throughput buckets; 0 skips the chart.
	Buckets int

	Width  vg.Length
	Height vg.Length
}

// DefaultOptions matches the report defaults.
func DefaultOptions() Options {
	return Options{Buckets: 20, Width: 12 * vg.Inch, Height: 6 * vg.Inch}
}

// Result lists what Generate produced.
type Result struct {
	Files    []string
	Warnings []error
}

// OK reports whether every chart was written.
func (r *Result) OK() bool {
	return len(r.Warnings) == 0
}

func (r *Result) add(name, path string, err error) {
	if err != nil {
		r.Warnings = append(r.Warnings, &ChartError{Chart: name, Err: err})
		return
	}
	r.Files = append(r.Files, path)
}

// Generate writes every chart into dir.
func Generate(ctx *stats.ReportContext, dir string, opts Options) *Result {
	res := &Result{}
	if opts.Width <= 0 || opts.Height <= 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	if !ctx.HasTasks() {
		res.Warnings = append(res.Warnings, ErrNoTasks)
		return res
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		res.Warnings = append(res.Warnings, fmt.Errorf("creating chart directory %s: %w", dir, err))
		return res
	}

	path := filepath.Join(dir, SpeedGraphFile)
	res.add("speed", path, SpeedOverTime(ctx, path, opts.Width, opts.Height))

	path = filepath.Join(dir, WorkerSpeedsFile)
	res.add("worker-speeds", path, WorkerSpeeds(ctx, path, opts.Width))

	if opts.Buckets > 0 {
		path = filepath.Join(dir, ThroughputFile)
		buckets, err := stats.BuildThroughputBuckets(ctx, opts.Buckets)
		if err == nil {
			err = Throughput(buckets, path, opts.Width, opts.Height)
		}
		res.add("throughput", path, err)
	}
	return res
}

var (
	rollingColor = color.RGBA{255, 107, 107, 255}
	averageColor = color.RGBA{78, 205, 196, 255}
	stalledColor = color.RGBA{220, 53, 69, 255}
	slowColor    = color.RGBA{255, 159, 64, 255}
	barColor     = color.RGBA{54, 162, 235, 255}
)
