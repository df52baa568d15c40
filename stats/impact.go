package stats

import (
	"fmt"
	"math"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"dltrace/trace"
)

// DefaultImpactWindow is the span looked at on each side of a health kill.
const DefaultImpactWindow = 10 * time.Second

// ImpactScope selects which tasks are compared around a health kill.
type ImpactScope int

const (
	// ScopeWorker compares only the killed worker's own tasks.
	ScopeWorker ImpactScope = iota
	// ScopeFleet compares every task completing around the kill.
	ScopeFleet
)

// String returns the string representation of ImpactScope
func (s ImpactScope) String() string {
	if s == ScopeFleet {
		return "fleet"
	}
	return "worker"
}

// ParseImpactScope accepts "worker" or "fleet" (case-insensitive).
func ParseImpactScope(s string) (ImpactScope, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "worker":
		return ScopeWorker, nil
	case "fleet":
		return ScopeFleet, nil
	default:
		return ScopeWorker, fmt.Errorf("unknown impact scope %q (want worker or fleet)", s)
	}
}

// HealthImpact compares throughput before and after one health kill.
type HealthImpact struct {
	Timestamp time.Time        `json:"timestamp" yaml:"timestamp"`
	WorkerID  int              `json:"worker_id" yaml:"worker_id"`
	Reason    trace.KillReason `json:"reason" yaml:"reason"`
	Scope     string           `json:"scope" yaml:"scope"`

	BeforeAvgSpeedMBps float64 `json:"before_avg_speed_mbps" yaml:"before_avg_speed_mbps"`
	AfterAvgSpeedMBps  float64 `json:"after_avg_speed_mbps" yaml:"after_avg_speed_mbps"`
	BeforeTasks        int     `json:"before_tasks" yaml:"before_tasks"`
	AfterTasks         int     `json:"after_tasks" yaml:"after_tasks"`
}

// Delta is after minus before in MiB/s.
func (h HealthImpact) Delta() float64 {
	return h.AfterAvgSpeedMBps - h.BeforeAvgSpeedMBps
}

// ComputeHealthEventImpact returns one record per health kill, in trace
// order. Before covers tasks completing in [t−window, t), after covers
// [t, t+window]. Each side is the byte-weighted mean task speed, or 0 when
// the side has no tasks.
func ComputeHealthEventImpact(ctx *ReportContext, window time.Duration, scope ImpactScope) ([]HealthImpact, error) {
	if window <= 0 {
		return nil, ErrInvalidWindow
	}
	if ctx == nil || ctx.Model == nil {
		return nil, ErrNoData
	}

	impacts := make([]HealthImpact, 0, len(ctx.Model.HealthKills))
	for _, kill := range ctx.Model.HealthKills {
		var before, after sideAccumulator
		lo, hi := kill.Timestamp.Add(-window), kill.Timestamp.Add(window)

		for _, t := range ctx.AllTasks {
			if scope == ScopeWorker && t.WorkerID != kill.WorkerID {
				continue
			}
			ts := t.Timestamp
			switch {
			case !ts.Before(lo) && ts.Before(kill.Timestamp):
				before.add(t.Task)
			case !ts.Before(kill.Timestamp) && !ts.After(hi):
				after.add(t.Task)
			}
		}

		impacts = append(impacts, HealthImpact{
			Timestamp:          kill.Timestamp,
			WorkerID:           kill.WorkerID,
			Reason:             kill.Reason,
			Scope:              scope.String(),
			BeforeAvgSpeedMBps: before.mean(),
			AfterAvgSpeedMBps:  after.mean(),
			BeforeTasks:        len(before.speeds),
			AfterTasks:         len(after.speeds),
		})
	}
	return impacts, nil
}

type sideAccumulator struct {
	speeds  []float64
	weights []float64
}

func (s *sideAccumulator) add(t trace.Task) {
	s.speeds = append(s.speeds, t.SpeedMBps())
	s.weights = append(s.weights, float64(t.Length))
}

// mean is the byte-weighted mean speed; empty or zero-byte sides yield 0.
func (s *sideAccumulator) mean() float64 {
	if len(s.speeds) == 0 {
		return 0
	}
	m := stat.Mean(s.speeds, s.weights)
	if math.IsNaN(m) || math.IsInf(m, 0) {
		return 0
	}
	return m
}
