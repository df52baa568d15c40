package report

import (
	"math"
	"testing"

	"dltrace/anomaly"
	"dltrace/stats"
	"dltrace/trace"
)

func TestNewDocument(t *testing.T) {
	doc := sampleDocument(t)

	if !doc.HasData {
		t.Fatal("HasData = false, want true")
	}
	if len(doc.Workers) != 2 {
		t.Fatalf("workers = %d, want 2", len(doc.Workers))
	}
	if doc.TaskCount != 3 {
		t.Errorf("TaskCount = %d, want 3", doc.TaskCount)
	}
	if doc.TotalBytes != 3*10485760 {
		t.Errorf("TotalBytes = %d, want %d", doc.TotalBytes, 3*10485760)
	}
	if math.Abs(doc.GlobalAvgSpeedMBps-30.0/14.0) > 1e-9 {
		t.Errorf("GlobalAvgSpeedMBps = %v, want %v", doc.GlobalAvgSpeedMBps, 30.0/14.0)
	}
	if len(doc.Buckets) != 20 {
		t.Errorf("buckets = %d, want 20", len(doc.Buckets))
	}
	if len(doc.Impacts) != 1 {
		t.Fatalf("impacts = %d, want 1", len(doc.Impacts))
	}
	if got := doc.Impacts[0].BeforeAvgSpeedMBps; math.Abs(got-1.0) > 1e-9 {
		t.Errorf("impact before = %v, want 1", got)
	}
	if len(doc.Recommendations) != 4 {
		t.Errorf("recommendations = %d, want 4: %v", len(doc.Recommendations), doc.Recommendations)
	}
}

func TestNewDocumentWorkerRows(t *testing.T) {
	doc := sampleDocument(t)

	tests := []struct {
		id     int
		tasks  int
		speed  float64
		util   float64
		status string
	}{
		{0, 2, 5.0, 20, "IDLE 16s"},
		{1, 1, 1.0, 50, "IDLE 10s"},
	}
	for _, tt := range tests {
		row := doc.Worker(tt.id)
		if row == nil {
			t.Fatalf("Worker(%d) = nil", tt.id)
		}
		if row.Tasks != tt.tasks {
			t.Errorf("worker %d tasks = %d, want %d", tt.id, row.Tasks, tt.tasks)
		}
		if math.Abs(row.AvgSpeedMBps-tt.speed) > 1e-9 {
			t.Errorf("worker %d speed = %v, want %v", tt.id, row.AvgSpeedMBps, tt.speed)
		}
		if math.Abs(row.Utilization-tt.util) > 1e-9 {
			t.Errorf("worker %d util = %v, want %v", tt.id, row.Utilization, tt.util)
		}
		if row.Status != tt.status {
			t.Errorf("worker %d status = %q, want %q", tt.id, row.Status, tt.status)
		}
		if row.Healthy {
			t.Errorf("worker %d healthy = true, want false", tt.id)
		}
	}

	if doc.Worker(7) != nil {
		t.Error("Worker(7) should be nil")
	}
}

func TestNewDocumentEmpty(t *testing.T) {
	ctx := stats.NewReportContext(trace.NewModel(), 0)
	doc, err := NewDocument(ctx, anomaly.Detect(ctx, anomaly.Thresholds{}), DefaultOptions())
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	if doc.HasData {
		t.Error("HasData = true, want false")
	}
	if len(doc.Buckets) != 0 || len(doc.Recommendations) != 0 {
		t.Errorf("empty document has buckets %v recommendations %v", doc.Buckets, doc.Recommendations)
	}
}

func TestNewDocumentTopSlowTasks(t *testing.T) {
	m := trace.NewModel()
	w := m.Worker(3)
	for i, d := range []float64{1, 5, 3, 4, 2} {
		w.Tasks = append(w.Tasks, trace.Task{Offset: int64(i), Length: 1024, Duration: d})
	}
	ctx := stats.NewReportContext(m, 0)
	opts := DefaultOptions()
	opts.Buckets = 0

	doc, err := NewDocument(ctx, anomaly.Detect(ctx, opts.Thresholds), opts)
	if err != nil {
		t.Fatalf("NewDocument failed: %v", err)
	}
	row := doc.Worker(3)
	if len(row.SlowestTasks) != 3 {
		t.Fatalf("slowest = %d, want 3", len(row.SlowestTasks))
	}
	for i, want := range []float64{5, 4, 3} {
		if row.SlowestTasks[i].Duration != want {
			t.Errorf("slowest[%d] = %v, want %v", i, row.SlowestTasks[i].Duration, want)
		}
	}
	if doc.Buckets != nil {
		t.Errorf("buckets disabled but got %d", len(doc.Buckets))
	}
}
