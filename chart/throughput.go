package chart

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"dltrace/stats"
)

// Throughput draws the bucket series as a bar chart labelled with each
// bucket's start time.
func Throughput(buckets []stats.Bucket, path string, width, height vg.Length) error {
	if len(buckets) == 0 {
		return ErrNoTasks
	}

	values := make(plotter.Values, len(buckets))
	labels := make([]string, len(buckets))
	for i, b := range buckets {
		values[i] = b.ThroughputMBps()
		labels[i] = b.Start.Format("15:04:05")
	}

	p := plot.New()
	p.Title.Text = "Throughput Over Time"
	p.Y.Label.Text = "Throughput (MB/s)"
	p.Add(plotter.NewGrid())

	barWidth := max(vg.Points(2), (width-vg.Inch)/vg.Length(len(buckets))*0.8)
	bars, err := plotter.NewBarChart(values, barWidth)
	if err != nil {
		return fmt.Errorf("bars: %w", err)
	}
	bars.Color = barColor
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(labels...)

	return p.Save(width, height, path)
}
