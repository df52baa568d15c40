package historydb

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	bolt "go.etcd.io/bbolt"
)

// ==================== Test Helpers ====================

// setupTestDB creates a temporary database for testing
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "state", "history.db")
	db, err := OpenDB(dbPath)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Failed to close database: %v", err)
		}
	})
	return db
}

// createTestRun creates a RunRecord with test data
func createTestRun(id string, analyzedAt time.Time) *RunRecord {
	return &RunRecord{
		ID:                 id,
		TracePath:          "debug.log",
		TraceCRC:           0xdeadbeef,
		AnalyzedAt:         analyzedAt,
		Workers:            4,
		Tasks:              120,
		TotalBytes:         512 << 20,
		GlobalAvgSpeedMBps: 12.5,
		Recommendations:    []string{"SLOW TASKS: 3 tasks took >2x average duration."},
	}
}

var t0 = time.Date(2026, 2, 15, 10, 0, 0, 0, time.UTC)

// ==================== Open/Close ====================

func TestOpenDB_CreatesBuckets(t *testing.T) {
	db := setupTestDB(t)

	err := db.db.View(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketRuns, BucketRunWorkers, BucketTraceIndex} {
			if tx.Bucket([]byte(name)) == nil {
				return fmt.Errorf("bucket %s missing", name)
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	db, err := OpenDB(filepath.Join(t.TempDir(), "h.db"))
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Errorf("second Close = %v, want nil", err)
	}

	if _, err := db.ListRuns(0); !errors.Is(err, ErrDatabaseNotOpen) {
		t.Errorf("ListRuns on closed db = %v, want ErrDatabaseNotOpen", err)
	}
}

func TestOpenDB_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "h.db")
	db, err := OpenDB(path)
	if err != nil {
		t.Fatalf("OpenDB failed: %v", err)
	}
	if err := db.SaveRun(createTestRun("run-1", t0)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	db.Close()

	db, err = OpenDB(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer db.Close()
	if _, err := db.GetRun("run-1"); err != nil {
		t.Errorf("run lost after reopen: %v", err)
	}
}

// ==================== Runs ====================

func TestSaveAndGetRun(t *testing.T) {
	db := setupTestDB(t)
	rec := createTestRun("0f8fad5b-d9cb-469f-a165-70867728950e", t0)

	if err := db.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := db.GetRun(rec.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.ID != rec.ID || got.Tasks != 120 || got.TraceCRC != 0xdeadbeef {
		t.Errorf("GetRun = %+v", got)
	}
	if !got.AnalyzedAt.Equal(t0) {
		t.Errorf("AnalyzedAt = %v, want %v", got.AnalyzedAt, t0)
	}
	if len(got.Recommendations) != 1 {
		t.Errorf("Recommendations = %v", got.Recommendations)
	}
}

func TestSaveRun_Validation(t *testing.T) {
	db := setupTestDB(t)

	tests := []struct {
		name string
		rec  *RunRecord
		want error
	}{
		{"nil record", nil, ErrNilRecord},
		{"empty id", &RunRecord{}, ErrEmptyRunID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := db.SaveRun(tt.rec)
			if !errors.Is(err, tt.want) {
				t.Errorf("SaveRun error = %v, want %v", err, tt.want)
			}
			if !IsValidationError(err) {
				t.Errorf("expected ValidationError, got %T", err)
			}
		})
	}
}

func TestGetRun_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.GetRun("missing")
	if !IsRecordNotFound(err) {
		t.Errorf("GetRun error = %v, want not found", err)
	}
	var recErr *RecordError
	if !errors.As(err, &recErr) || recErr.RunID != "missing" {
		t.Errorf("expected RecordError for run 'missing', got %v", err)
	}
}

func TestFindRun(t *testing.T) {
	db := setupTestDB(t)
	for _, id := range []string{"aaaa1111-x", "aaaa2222-y", "bbbb3333-z"} {
		if err := db.SaveRun(createTestRun(id, t0)); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	tests := []struct {
		prefix string
		wantID string
		want   error
	}{
		{"bbbb", "bbbb3333-z", nil},
		{"aaaa1111-x", "aaaa1111-x", nil},
		{"aaaa", "", ErrAmbiguousRunID},
		{"cccc", "", ErrRecordNotFound},
		{"", "", ErrEmptyRunID},
	}
	for _, tt := range tests {
		t.Run(tt.prefix, func(t *testing.T) {
			got, err := db.FindRun(tt.prefix)
			if tt.want != nil {
				if !errors.Is(err, tt.want) {
					t.Errorf("FindRun(%q) error = %v, want %v", tt.prefix, err, tt.want)
				}
				return
			}
			if err != nil || got.ID != tt.wantID {
				t.Errorf("FindRun(%q) = %v, %v, want %s", tt.prefix, got, err, tt.wantID)
			}
		})
	}
}

func TestListRuns_Order(t *testing.T) {
	db := setupTestDB(t)
	for i, id := range []string{"r1", "r2", "r3"} {
		if err := db.SaveRun(createTestRun(id, t0.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveRun failed: %v", err)
		}
	}

	runs, err := db.ListRuns(0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 3 || runs[0].ID != "r3" || runs[2].ID != "r1" {
		t.Errorf("ListRuns order = %v", ids(runs))
	}

	limited, _ := db.ListRuns(2)
	if len(limited) != 2 || limited[0].ID != "r3" {
		t.Errorf("ListRuns(2) = %v", ids(limited))
	}
}

func ids(runs []RunRecord) []string {
	out := make([]string, len(runs))
	for i, r := range runs {
		out[i] = r.ID
	}
	return out
}

// ==================== Workers ====================

func TestRunWorkers(t *testing.T) {
	db := setupTestDB(t)
	if err := db.SaveRun(createTestRun("run-1", t0)); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	// inserted out of order; 10 must sort after 2
	for _, id := range []int{10, 2, 1} {
		w := &RunWorkerRecord{WorkerID: id, Tasks: id * 3, Status: "OK"}
		if err := db.PutRunWorker("run-1", w); err != nil {
			t.Fatalf("PutRunWorker failed: %v", err)
		}
	}
	// a neighbouring run must not leak into run-1
	if err := db.PutRunWorker("run-10", &RunWorkerRecord{WorkerID: 1}); err != nil {
		t.Fatalf("PutRunWorker failed: %v", err)
	}

	workers, err := db.ListRunWorkers("run-1")
	if err != nil {
		t.Fatalf("ListRunWorkers failed: %v", err)
	}
	if len(workers) != 3 {
		t.Fatalf("len(workers) = %d, want 3", len(workers))
	}
	for i, want := range []int{1, 2, 10} {
		if workers[i].WorkerID != want {
			t.Errorf("workers[%d].WorkerID = %d, want %d", i, workers[i].WorkerID, want)
		}
	}

	// update in place
	if err := db.PutRunWorker("run-1", &RunWorkerRecord{WorkerID: 2, Tasks: 99}); err != nil {
		t.Fatalf("PutRunWorker update failed: %v", err)
	}
	workers, _ = db.ListRunWorkers("run-1")
	if workers[1].Tasks != 99 {
		t.Errorf("worker 2 not updated: %+v", workers[1])
	}

	if err := db.PutRunWorker("", &RunWorkerRecord{}); !errors.Is(err, ErrEmptyRunID) {
		t.Errorf("PutRunWorker empty run = %v", err)
	}
	if err := db.PutRunWorker("run-1", nil); !errors.Is(err, ErrNilRecord) {
		t.Errorf("PutRunWorker nil = %v", err)
	}
}

// ==================== Delete / Trace index ====================

func TestDeleteRun(t *testing.T) {
	db := setupTestDB(t)
	rec := createTestRun("run-1", t0)
	if err := db.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	db.PutRunWorker("run-1", &RunWorkerRecord{WorkerID: 1})
	db.PutRunWorker("run-1", &RunWorkerRecord{WorkerID: 2})

	if err := db.DeleteRun("run-1"); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}

	if _, err := db.GetRun("run-1"); !IsRecordNotFound(err) {
		t.Errorf("GetRun after delete = %v", err)
	}
	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats != (DBStats{}) {
		t.Errorf("Stats after delete = %+v, want empty", stats)
	}

	if err := db.DeleteRun("run-1"); !IsRecordNotFound(err) {
		t.Errorf("second DeleteRun = %v, want not found", err)
	}
}

func TestLatestForTrace(t *testing.T) {
	db := setupTestDB(t)
	crc := TraceCRC([]byte("[2026-02-15 10:00:00] Worker 1 started\n"))

	rec := createTestRun("run-1", t0)
	rec.TraceCRC = crc
	if err := db.SaveRun(rec); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	got, err := db.LatestForTrace("debug.log", crc)
	if err != nil || got == nil || got.ID != "run-1" {
		t.Fatalf("LatestForTrace same crc = %v, %v", got, err)
	}

	got, err = db.LatestForTrace("debug.log", crc+1)
	if err != nil || got != nil {
		t.Errorf("LatestForTrace changed crc = %v, %v, want nil", got, err)
	}

	got, err = db.LatestForTrace("other.log", crc)
	if err != nil || got != nil {
		t.Errorf("LatestForTrace unknown path = %v, %v, want nil", got, err)
	}
}

func TestStats(t *testing.T) {
	db := setupTestDB(t)
	db.SaveRun(createTestRun("r1", t0))
	db.SaveRun(createTestRun("r2", t0))
	db.PutRunWorker("r1", &RunWorkerRecord{WorkerID: 1})

	stats, err := db.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	// both runs share debug.log, so one trace entry
	want := DBStats{Runs: 2, RunWorkers: 1, Traces: 1}
	if stats != want {
		t.Errorf("Stats = %+v, want %+v", stats, want)
	}
}

func TestBackup(t *testing.T) {
	db := setupTestDB(t)
	if err := db.SaveRun(createTestRun("run-a", time.Now())); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}

	size, err := db.Size()
	if err != nil || size <= 0 {
		t.Fatalf("Size() = %d, %v", size, err)
	}

	backup := filepath.Join(t.TempDir(), "copy.db")
	f, err := os.Create(backup)
	if err != nil {
		t.Fatal(err)
	}
	if err := db.Backup(f); err != nil {
		t.Fatalf("Backup failed: %v", err)
	}
	f.Close()

	copyDB, err := OpenDB(backup)
	if err != nil {
		t.Fatalf("backup does not open: %v", err)
	}
	defer copyDB.Close()
	if _, err := copyDB.GetRun("run-a"); err != nil {
		t.Errorf("backup missing run: %v", err)
	}
}
