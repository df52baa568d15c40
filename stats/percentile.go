package stats

import (
	"math"
	"sort"

	"dltrace/trace"
)

// Percentile returns the p-quantile (p in [0,1]) of values using linear
// interpolation between closest ranks: rank = p·(n−1). Percentile(v, 0) is
// the minimum and Percentile(v, 1) the maximum. values is not modified.
// An empty input or a NaN p yields 0.
func Percentile(values []float64, p float64) float64 {
	n := len(values)
	if n == 0 || math.IsNaN(p) {
		return 0
	}
	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p = math.Max(0, math.Min(1, p))
	rank := p * float64(n-1)
	lo := int(math.Floor(rank))
	hi := int(math.Ceil(rank))
	frac := rank - float64(lo)
	return sorted[lo] + frac*(sorted[hi]-sorted[lo])
}

// Percentiles is the p50/p90/p95/p99 summary of one series.
type Percentiles struct {
	P50 float64 `json:"p50" yaml:"p50"`
	P90 float64 `json:"p90" yaml:"p90"`
	P95 float64 `json:"p95" yaml:"p95"`
	P99 float64 `json:"p99" yaml:"p99"`
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// Summarize computes the standard percentile set of values.
func Summarize(values []float64) Percentiles {
	return Percentiles{
		P50: Percentile(values, 0.50),
		P90: Percentile(values, 0.90),
		P95: Percentile(values, 0.95),
		P99: Percentile(values, 0.99),
		Min: Percentile(values, 0),
		Max: Percentile(values, 1),
	}
}

// GlobalAvgSpeedMBps is the fleet throughput over a task set: total MiB
// divided by total task seconds, 0 when no time was spent.
func GlobalAvgSpeedMBps(tasks []WorkerTask) float64 {
	var bytes int64
	seconds := 0.0
	for _, t := range tasks {
		bytes += t.Length
		seconds += t.Duration
	}
	if seconds <= 0 {
		return 0
	}
	return (float64(bytes) / trace.MiB) / seconds
}

// GlobalAvgTaskDuration is the mean task duration in seconds, 0 without
// tasks.
func GlobalAvgTaskDuration(tasks []WorkerTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	seconds := 0.0
	for _, t := range tasks {
		seconds += t.Duration
	}
	return seconds / float64(len(tasks))
}
