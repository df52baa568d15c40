package anomaly

import (
	"fmt"

	"dltrace/trace"
)

// StatusKind classifies a worker row in the report.
type StatusKind int

const (
	StatusOK StatusKind = iota
	StatusNoTasks
	StatusIdle
	StatusLowUtil
	StatusSlow
)

// statusLowUtilPct is stricter than the low-utilization rule: the worker
// table only calls out workers that spent most of their life waiting.
const statusLowUtilPct = 50.0

// Status is the classification of one worker plus the figure behind it.
type Status struct {
	Kind        StatusKind
	IdleSeconds float64
}

// String returns the label shown in the worker table
func (s Status) String() string {
	switch s.Kind {
	case StatusNoTasks:
		return "NO TASKS"
	case StatusIdle:
		return fmt.Sprintf("IDLE %.0fs", s.IdleSeconds)
	case StatusLowUtil:
		return "LOW UTIL"
	case StatusSlow:
		return "SLOW"
	default:
		return "OK"
	}
}

// Healthy reports whether the worker needs no attention.
func (s Status) Healthy() bool {
	return s.Kind == StatusOK
}

// Classify assigns the first matching status in order: no tasks, idle,
// low utilization, slow, ok. A worker is slow when its average speed is
// below the fleet average divided by the speed variance ratio.
func Classify(w *trace.WorkerStats, globalAvgSpeed float64, th Thresholds) Status {
	th = th.withDefaults()
	idle := w.IdleTime()
	switch {
	case len(w.Tasks) == 0:
		return Status{Kind: StatusNoTasks}
	case idle > th.IdleThreshold.Seconds():
		return Status{Kind: StatusIdle, IdleSeconds: idle}
	case w.Utilization() < statusLowUtilPct:
		return Status{Kind: StatusLowUtil}
	case w.AvgSpeedMBps() < globalAvgSpeed/th.SpeedVarianceRatio:
		return Status{Kind: StatusSlow}
	default:
		return Status{Kind: StatusOK}
	}
}
