// Package anomaly applies threshold rules to a stats.ReportContext and turns
// the result into findings and textual recommendations.
//
// Detect is a pure function of the context and the thresholds: it performs
// no I/O and never modifies the context.
package anomaly

import (
	"sort"
	"time"

	"dltrace/stats"
	"dltrace/trace"
)

// Thresholds configures every rule of the engine.
type Thresholds struct {
	// SlowTaskMultiplier flags tasks longer than the global mean times
	// this factor.
	SlowTaskMultiplier float64

	// SpeedVarianceRatio flags fleets whose fastest worker is more than
	// this many times faster than the slowest non-zero worker.
	SpeedVarianceRatio float64

	// IdleThreshold flags workers idle for longer than this.
	IdleThreshold time.Duration

	// LowUtilizationPct flags workers with 0 < utilization < this value.
	LowUtilizationPct float64

	// SplitThreshold flags runs whose total split count exceeds it.
	SplitThreshold int
}

// DefaultThresholds returns the stock rule set.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SlowTaskMultiplier: stats.DefaultSlowTaskMultiplier,
		SpeedVarianceRatio: 3.0,
		IdleThreshold:      5 * time.Second,
		LowUtilizationPct:  70,
		SplitThreshold:     30,
	}
}

// withDefaults fills zero fields from DefaultThresholds.
func (th Thresholds) withDefaults() Thresholds {
	d := DefaultThresholds()
	if th.SlowTaskMultiplier <= 0 {
		th.SlowTaskMultiplier = d.SlowTaskMultiplier
	}
	if th.SpeedVarianceRatio <= 0 {
		th.SpeedVarianceRatio = d.SpeedVarianceRatio
	}
	if th.IdleThreshold <= 0 {
		th.IdleThreshold = d.IdleThreshold
	}
	if th.LowUtilizationPct <= 0 {
		th.LowUtilizationPct = d.LowUtilizationPct
	}
	if th.SplitThreshold <= 0 {
		th.SplitThreshold = d.SplitThreshold
	}
	return th
}

// WorkerFinding names one worker that tripped a per-worker rule.
type WorkerFinding struct {
	WorkerID    int     `json:"worker_id" yaml:"worker_id"`
	IdleSeconds float64 `json:"idle_seconds" yaml:"idle_seconds"`
	Utilization float64 `json:"utilization_pct" yaml:"utilization_pct"`
}

// SpeedVariance compares the fastest and slowest active workers.
type SpeedVariance struct {
	FastestID   int     `json:"fastest_worker" yaml:"fastest_worker"`
	FastestMBps float64 `json:"fastest_mbps" yaml:"fastest_mbps"`
	SlowestID   int     `json:"slowest_worker" yaml:"slowest_worker"`
	SlowestMBps float64 `json:"slowest_mbps" yaml:"slowest_mbps"`
	Ratio       float64 `json:"ratio" yaml:"ratio"`
	Flagged     bool    `json:"flagged" yaml:"flagged"`
}

// BalancerActivity summarises the split events of a run.
type BalancerActivity struct {
	Events        int       `json:"events" yaml:"events"`
	TotalSplits   int       `json:"total_splits" yaml:"total_splits"`
	FirstSplit    time.Time `json:"first_split,omitempty" yaml:"first_split,omitempty"`
	LastSplit     time.Time `json:"last_split,omitempty" yaml:"last_split,omitempty"`
	WindowSeconds float64   `json:"window_seconds" yaml:"window_seconds"`
	RatePerSecond float64   `json:"splits_per_second" yaml:"splits_per_second"`
	Excessive     bool      `json:"excessive" yaml:"excessive"`
}

// Findings is the output of Detect.
type Findings struct {
	Thresholds Thresholds `json:"-" yaml:"-"`

	SlowTasks     []stats.WorkerTask `json:"slow_tasks" yaml:"slow_tasks"`
	SlowThreshold float64            `json:"slow_threshold_seconds" yaml:"slow_threshold_seconds"`

	// SpeedVariance is nil when no worker has a non-zero speed.
	SpeedVariance *SpeedVariance `json:"speed_variance,omitempty" yaml:"speed_variance,omitempty"`

	IdleWorkers    []WorkerFinding  `json:"idle_workers" yaml:"idle_workers"`
	LowUtilization []WorkerFinding  `json:"low_utilization" yaml:"low_utilization"`
	Balancer       BalancerActivity `json:"balancer" yaml:"balancer"`
}

// Detect evaluates every rule against ctx. Zero threshold fields take their
// defaults. Workers are visited in id order so the result is deterministic.
func Detect(ctx *stats.ReportContext, th Thresholds) Findings {
	th = th.withDefaults()
	f := Findings{Thresholds: th}
	if ctx == nil || ctx.Model == nil {
		return f
	}

	f.SlowThreshold = ctx.GlobalAvgTaskDuration * th.SlowTaskMultiplier
	f.SlowTasks = stats.SlowTasks(ctx.AllTasks, f.SlowThreshold)
	f.SpeedVariance = speedVariance(ctx, th.SpeedVarianceRatio)

	idleLimit := th.IdleThreshold.Seconds()
	for _, w := range ctx.Model.SortedWorkers() {
		wf := WorkerFinding{WorkerID: w.ID, IdleSeconds: w.IdleTime(), Utilization: w.Utilization()}
		if wf.IdleSeconds > idleLimit {
			f.IdleWorkers = append(f.IdleWorkers, wf)
		}
		if wf.Utilization > 0 && wf.Utilization < th.LowUtilizationPct {
			f.LowUtilization = append(f.LowUtilization, wf)
		}
	}

	f.Balancer = balancerActivity(ctx.Model.BalancerSplits, th.SplitThreshold)
	return f
}

func speedVariance(ctx *stats.ReportContext, limit float64) *SpeedVariance {
	ids := make([]int, 0, len(ctx.SpeedByWorker))
	for id, s := range ctx.SpeedByWorker {
		if s > 0 {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}
	sort.Ints(ids)

	v := &SpeedVariance{FastestID: ids[0], SlowestID: ids[0]}
	v.FastestMBps = ctx.SpeedByWorker[ids[0]]
	v.SlowestMBps = v.FastestMBps
	for _, id := range ids[1:] {
		s := ctx.SpeedByWorker[id]
		if s > v.FastestMBps {
			v.FastestID, v.FastestMBps = id, s
		}
		if s < v.SlowestMBps {
			v.SlowestID, v.SlowestMBps = id, s
		}
	}
	v.Ratio = v.FastestMBps / v.SlowestMBps
	v.Flagged = v.Ratio > limit
	return v
}

// balancerActivity uses the largest cumulative count reported, which is the
// last one in a well-formed trace.
func balancerActivity(splits []trace.BalancerSplit, limit int) BalancerActivity {
	a := BalancerActivity{Events: len(splits)}
	if len(splits) == 0 {
		return a
	}
	a.FirstSplit, a.LastSplit = splits[0].Timestamp, splits[0].Timestamp
	for _, s := range splits {
		a.TotalSplits = max(a.TotalSplits, s.Total)
		if s.Timestamp.Before(a.FirstSplit) {
			a.FirstSplit = s.Timestamp
		}
		if s.Timestamp.After(a.LastSplit) {
			a.LastSplit = s.Timestamp
		}
	}
	a.WindowSeconds = a.LastSplit.Sub(a.FirstSplit).Seconds()
	if a.WindowSeconds > 0 {
		a.RatePerSecond = float64(a.Events) / a.WindowSeconds
	}
	a.Excessive = a.TotalSplits > limit
	return a
}

// HasIssues reports whether any rule fired.
func (f Findings) HasIssues() bool {
	return len(f.Recommendations()) > 0
}
