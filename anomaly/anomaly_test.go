package anomaly

import (
	"strings"
	"testing"
	"time"

	"dltrace/stats"
	"dltrace/trace"
)

var base = time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

func at(sec int) time.Time {
	return base.Add(time.Duration(sec) * time.Second)
}

// worker builds a worker alive from start to end with one MiB task per
// duration, completing one second apart.
func worker(id, start, end int, durations ...float64) *trace.WorkerStats {
	w := &trace.WorkerStats{ID: id, StartTime: at(start), EndTime: at(end)}
	for i, d := range durations {
		w.Tasks = append(w.Tasks, trace.Task{
			Timestamp: at(start + i + 1),
			Offset:    int64(i) * trace.MiB,
			Length:    trace.MiB,
			Duration:  d,
		})
	}
	return w
}

func buildContext(workers ...*trace.WorkerStats) *stats.ReportContext {
	m := trace.NewModel()
	for _, w := range workers {
		m.Workers[w.ID] = w
	}
	return stats.NewReportContext(m, 0)
}

func TestDetect_HealthyRun(t *testing.T) {
	ctx := buildContext(
		worker(1, 0, 4, 1, 1, 1, 1),
		worker(2, 0, 4, 1, 1, 1, 1),
	)
	f := Detect(ctx, DefaultThresholds())

	if f.HasIssues() {
		t.Errorf("healthy run has recommendations: %v", f.Recommendations())
	}
	if f.SpeedVariance == nil || f.SpeedVariance.Ratio != 1 || f.SpeedVariance.Flagged {
		t.Errorf("SpeedVariance = %+v, want ratio 1 not flagged", f.SpeedVariance)
	}
}

func TestDetect_SlowTasks(t *testing.T) {
	// mean 2s, threshold 4s: only the 5s task qualifies
	ctx := buildContext(worker(1, 0, 10, 1, 1, 1, 5))
	f := Detect(ctx, DefaultThresholds())

	if f.SlowThreshold != 4 {
		t.Errorf("SlowThreshold = %v, want 4", f.SlowThreshold)
	}
	if len(f.SlowTasks) != 1 || f.SlowTasks[0].Duration != 5 {
		t.Fatalf("SlowTasks = %+v, want the 5s task", f.SlowTasks)
	}

	// a larger multiplier clears it
	f = Detect(ctx, Thresholds{SlowTaskMultiplier: 3})
	if len(f.SlowTasks) != 0 {
		t.Errorf("SlowTasks with multiplier 3 = %+v, want none", f.SlowTasks)
	}
}

func TestDetect_SpeedVariance(t *testing.T) {
	tests := []struct {
		name        string
		fast, slow  float64
		wantFlagged bool
	}{
		{"below ratio", 1, 2, false},
		{"exactly ratio", 1, 3, false},
		{"above ratio", 1, 4, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := buildContext(
				worker(1, 0, 0, tt.fast),
				worker(2, 0, 0, tt.slow),
				&trace.WorkerStats{ID: 3},
			)
			f := Detect(ctx, DefaultThresholds())
			v := f.SpeedVariance
			if v == nil {
				t.Fatal("SpeedVariance is nil")
			}
			if v.FastestID != 1 || v.SlowestID != 2 {
				t.Errorf("fastest/slowest = %d/%d, want 1/2 (zero-speed worker 3 ignored)", v.FastestID, v.SlowestID)
			}
			if v.Flagged != tt.wantFlagged {
				t.Errorf("Flagged = %v, want %v (ratio %v)", v.Flagged, tt.wantFlagged, v.Ratio)
			}
		})
	}
}

func TestDetect_IdleAndLowUtilization(t *testing.T) {
	ctx := buildContext(
		worker(1, 0, 4, 1, 1, 1, 1),  // 100%, idle 0
		worker(2, 0, 10, 1, 1, 1, 1), // 40%, idle 6s
		worker(3, 0, 6, 1, 1, 1, 1),  // 66.7%, idle 2s
		&trace.WorkerStats{ID: 4},    // no lifecycle, utilization 0
	)
	f := Detect(ctx, DefaultThresholds())

	if len(f.IdleWorkers) != 1 || f.IdleWorkers[0].WorkerID != 2 {
		t.Errorf("IdleWorkers = %+v, want worker 2", f.IdleWorkers)
	}
	if len(f.LowUtilization) != 2 || f.LowUtilization[0].WorkerID != 2 || f.LowUtilization[1].WorkerID != 3 {
		t.Errorf("LowUtilization = %+v, want workers 2 and 3", f.LowUtilization)
	}
}

func TestDetect_Balancer(t *testing.T) {
	m := trace.NewModel()
	m.Workers[1] = worker(1, 0, 2, 1)
	for i := 1; i <= 31; i++ {
		m.BalancerSplits = append(m.BalancerSplits, trace.BalancerSplit{Timestamp: at(i / 2), Total: i})
	}
	f := Detect(stats.NewReportContext(m, 0), DefaultThresholds())

	b := f.Balancer
	if b.Events != 31 || b.TotalSplits != 31 || !b.Excessive {
		t.Errorf("Balancer = %+v, want 31 excessive", b)
	}
	if b.WindowSeconds != 15 {
		t.Errorf("WindowSeconds = %v, want 15", b.WindowSeconds)
	}

	m.BalancerSplits = m.BalancerSplits[:30]
	f = Detect(stats.NewReportContext(m, 0), DefaultThresholds())
	if f.Balancer.Excessive {
		t.Error("30 splits should not be excessive")
	}
}

func TestDetect_Empty(t *testing.T) {
	f := Detect(stats.NewReportContext(trace.NewModel(), 0), Thresholds{})
	if f.HasIssues() || f.SpeedVariance != nil {
		t.Errorf("empty findings = %+v", f)
	}
	if f.Thresholds != DefaultThresholds() {
		t.Errorf("zero thresholds not defaulted: %+v", f.Thresholds)
	}
	if Detect(nil, Thresholds{}).HasIssues() {
		t.Error("nil context should have no issues")
	}
}

func TestRecommendations_Order(t *testing.T) {
	f := Findings{
		Thresholds:     DefaultThresholds(),
		SlowTasks:      []stats.WorkerTask{{WorkerID: 1}},
		SpeedVariance:  &SpeedVariance{FastestID: 1, SlowestID: 2, Ratio: 4.5, Flagged: true},
		IdleWorkers:    []WorkerFinding{{WorkerID: 2}, {WorkerID: 3}},
		LowUtilization: []WorkerFinding{{WorkerID: 2}},
		Balancer:       BalancerActivity{TotalSplits: 40, Excessive: true},
	}
	recs := f.Recommendations()

	want := []Kind{KindSpeedVariance, KindIdleWorkers, KindLowUtil, KindSplitting, KindSlowTasks}
	if len(recs) != len(want) {
		t.Fatalf("len(recs) = %d, want %d", len(recs), len(want))
	}
	for i, k := range want {
		if recs[i].Kind != k {
			t.Errorf("recs[%d].Kind = %s, want %s", i, recs[i].Kind, k)
		}
	}

	checks := map[int]string{
		0: "HIGH SPEED VARIANCE (4.50x)",
		1: "2 workers had >5s idle",
		2: "1 worker below 70%",
		3: "40 balancer splits",
		4: "1 task took >2x",
	}
	for i, sub := range checks {
		if !strings.Contains(recs[i].String(), sub) {
			t.Errorf("recs[%d] = %q, want it to contain %q", i, recs[i].String(), sub)
		}
	}
}
