package stats

import (
	"time"

	"dltrace/trace"
)

func at(sec int) time.Time {
	return time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC).Add(time.Duration(sec) * time.Second)
}

// contextFor builds a context over a single worker with the given tasks.
func contextFor(workerID int, tasks []trace.Task, kills ...trace.HealthKill) *ReportContext {
	m := trace.NewModel()
	m.Workers[workerID] = &trace.WorkerStats{ID: workerID, Tasks: tasks}
	m.HealthKills = kills
	return NewReportContext(m, DefaultSlowTaskMultiplier)
}
