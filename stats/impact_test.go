package stats

import (
	"errors"
	"math"
	"testing"
	"time"

	"dltrace/trace"
)

func TestComputeHealthEventImpact(t *testing.T) {
	ctx := contextFor(1, []trace.Task{
		{Timestamp: at(5), Offset: 0, Length: 2 * trace.MiB, Duration: 2},
		{Timestamp: at(15), Offset: 2 * trace.MiB, Length: 2 * trace.MiB, Duration: 1},
	}, trace.HealthKill{Timestamp: at(10), WorkerID: 1, Reason: trace.KillSlow})

	impacts, err := ComputeHealthEventImpact(ctx, 10*time.Second, ScopeWorker)
	if err != nil {
		t.Fatalf("ComputeHealthEventImpact failed: %v", err)
	}
	if len(impacts) != 1 {
		t.Fatalf("len(impacts) = %d, want 1", len(impacts))
	}

	got := impacts[0]
	if got.BeforeAvgSpeedMBps != 1.0 || got.AfterAvgSpeedMBps != 2.0 {
		t.Errorf("before/after = %v/%v, want 1/2", got.BeforeAvgSpeedMBps, got.AfterAvgSpeedMBps)
	}
	if got.AfterAvgSpeedMBps <= got.BeforeAvgSpeedMBps {
		t.Error("after should exceed before")
	}
	if got.WorkerID != 1 || got.Reason != trace.KillSlow || got.Scope != "worker" {
		t.Errorf("impact metadata = %+v", got)
	}
	if got.Delta() != 1.0 {
		t.Errorf("Delta() = %v, want 1", got.Delta())
	}
}

func TestComputeHealthEventImpact_WindowEdges(t *testing.T) {
	ctx := contextFor(1, []trace.Task{
		{Timestamp: at(0), Length: trace.MiB, Duration: 1},      // t−window: before
		{Timestamp: at(10), Length: trace.MiB, Duration: 0.5},   // t: after
		{Timestamp: at(20), Length: 3 * trace.MiB, Duration: 1}, // t+window: after
		{Timestamp: at(21), Length: trace.MiB, Duration: 0.1},   // outside
	}, trace.HealthKill{Timestamp: at(10), WorkerID: 1, Reason: trace.KillStalled})

	impacts, err := ComputeHealthEventImpact(ctx, 10*time.Second, ScopeWorker)
	if err != nil {
		t.Fatalf("ComputeHealthEventImpact failed: %v", err)
	}
	got := impacts[0]
	if got.BeforeTasks != 1 || got.AfterTasks != 2 {
		t.Fatalf("tasks before/after = %d/%d, want 1/2", got.BeforeTasks, got.AfterTasks)
	}
	// byte-weighted: (2·1 + 3·3) / 4
	if want := 11.0 / 4; math.Abs(got.AfterAvgSpeedMBps-want) > 1e-9 {
		t.Errorf("after = %v, want %v", got.AfterAvgSpeedMBps, want)
	}
}

func TestComputeHealthEventImpact_Scope(t *testing.T) {
	m := trace.NewModel()
	m.Workers[1] = &trace.WorkerStats{ID: 1, Tasks: []trace.Task{{Timestamp: at(12), Length: trace.MiB, Duration: 1}}}
	m.Workers[2] = &trace.WorkerStats{ID: 2, Tasks: []trace.Task{{Timestamp: at(8), Length: trace.MiB, Duration: 0.25}}}
	m.HealthKills = []trace.HealthKill{{Timestamp: at(10), WorkerID: 1, Reason: trace.KillStalled}}
	ctx := NewReportContext(m, 0)

	worker, _ := ComputeHealthEventImpact(ctx, 5*time.Second, ScopeWorker)
	if worker[0].BeforeAvgSpeedMBps != 0 || worker[0].BeforeTasks != 0 {
		t.Errorf("worker scope before = %v (%d tasks), want 0", worker[0].BeforeAvgSpeedMBps, worker[0].BeforeTasks)
	}

	fleet, _ := ComputeHealthEventImpact(ctx, 5*time.Second, ScopeFleet)
	if fleet[0].BeforeAvgSpeedMBps != 4.0 || fleet[0].Scope != "fleet" {
		t.Errorf("fleet scope before = %v, want 4", fleet[0].BeforeAvgSpeedMBps)
	}
}

func TestComputeHealthEventImpact_Errors(t *testing.T) {
	ctx := contextFor(1, nil)
	if _, err := ComputeHealthEventImpact(ctx, 0, ScopeWorker); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("zero window error = %v, want ErrInvalidWindow", err)
	}
	impacts, err := ComputeHealthEventImpact(ctx, time.Second, ScopeWorker)
	if err != nil || len(impacts) != 0 {
		t.Errorf("no kills = %v, %v, want empty", impacts, err)
	}
}

func TestParseImpactScope(t *testing.T) {
	tests := []struct {
		in      string
		want    ImpactScope
		wantErr bool
	}{
		{"worker", ScopeWorker, false},
		{"FLEET", ScopeFleet, false},
		{"", ScopeWorker, false},
		{"cluster", ScopeWorker, true},
	}
	for _, tt := range tests {
		got, err := ParseImpactScope(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("ParseImpactScope(%q) = %v, %v", tt.in, got, err)
		}
	}
}
