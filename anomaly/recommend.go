package anomaly

import "fmt"

// Kind identifies the rule behind a recommendation.
type Kind string

const (
	KindSpeedVariance Kind = "speed_variance"
	KindIdleWorkers   Kind = "idle_workers"
	KindLowUtil       Kind = "low_utilization"
	KindSplitting     Kind = "excessive_splitting"
	KindSlowTasks     Kind = "slow_tasks"
)

// Recommendation is one actionable line of the report.
type Recommendation struct {
	Kind    Kind   `json:"kind" yaml:"kind"`
	Title   string `json:"title" yaml:"title"`
	Message string `json:"message" yaml:"message"`
}

// String returns "TITLE: message".
func (r Recommendation) String() string {
	return r.Title + ": " + r.Message
}

// Recommendations renders the fired rules in a fixed order: speed variance,
// idle workers, low utilization, splitting, slow tasks.
func (f Findings) Recommendations() []Recommendation {
	var recs []Recommendation

	if v := f.SpeedVariance; v != nil && v.Flagged {
		recs = append(recs, Recommendation{
			Kind:    KindSpeedVariance,
			Title:   fmt.Sprintf("HIGH SPEED VARIANCE (%.2fx)", v.Ratio),
			Message: fmt.Sprintf("worker %d is much slower than worker %d. Check network conditions or steal work by speed.", v.SlowestID, v.FastestID),
		})
	}

	if n := len(f.IdleWorkers); n > 0 {
		recs = append(recs, Recommendation{
			Kind:    KindIdleWorkers,
			Title:   "WORKER IDLE TIME",
			Message: fmt.Sprintf("%d %s had >%s idle time. Work stealing may not be aggressive enough.", n, plural(n, "worker", "workers"), f.Thresholds.IdleThreshold),
		})
	}

	if n := len(f.LowUtilization); n > 0 {
		recs = append(recs, Recommendation{
			Kind:    KindLowUtil,
			Title:   "LOW UTILIZATION",
			Message: fmt.Sprintf("%d %s below %.0f%% utilization. Check for connection issues or increase chunk sizes.", n, plural(n, "worker", "workers"), f.Thresholds.LowUtilizationPct),
		})
	}

	if f.Balancer.Excessive {
		recs = append(recs, Recommendation{
			Kind:    KindSplitting,
			Title:   "EXCESSIVE SPLITTING",
			Message: fmt.Sprintf("%d balancer splits. Consider increasing the minimum chunk size to reduce end-game overhead.", f.Balancer.TotalSplits),
		})
	}

	if n := len(f.SlowTasks); n > 0 {
		recs = append(recs, Recommendation{
			Kind:    KindSlowTasks,
			Title:   "SLOW TASKS",
			Message: fmt.Sprintf("%d %s took >%gx average duration. Consider a task timeout/retry or connection health checks.", n, plural(n, "task", "tasks"), f.Thresholds.SlowTaskMultiplier),
		})
	}

	return recs
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
