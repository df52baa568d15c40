package historydb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

// RunRecord captures one analysis of a trace.
type RunRecord struct {
	ID         string    `json:"id"`
	TracePath  string    `json:"trace_path"`
	TraceCRC   uint32    `json:"trace_crc"`
	AnalyzedAt time.Time `json:"analyzed_at"`
	Filter     string    `json:"filter,omitempty"`

	Filename  string `json:"filename,omitempty"`
	TotalSize int64  `json:"total_size_bytes,omitempty"`

	Workers               int     `json:"workers"`
	Tasks                 int     `json:"tasks"`
	TotalBytes            int64   `json:"total_bytes"`
	GlobalAvgSpeedMBps    float64 `json:"global_avg_speed_mbps"`
	GlobalAvgTaskDuration float64 `json:"global_avg_task_duration_seconds"`
	SlowTasks             int     `json:"slow_tasks"`
	HealthKills           int     `json:"health_kills"`
	BalancerSplits        int     `json:"balancer_splits"`

	Recommendations []string `json:"recommendations,omitempty"`
}

// RunWorkerRecord holds the per-worker figures of one run.
type RunWorkerRecord struct {
	WorkerID     int     `json:"worker_id"`
	Tasks        int     `json:"tasks"`
	TotalBytes   int64   `json:"total_bytes"`
	AvgSpeedMBps float64 `json:"avg_speed_mbps"`
	Utilization  float64 `json:"utilization_pct"`
	IdleSeconds  float64 `json:"idle_seconds"`
	Status       string  `json:"status"`
}

// traceIndexEntry maps a trace path to its most recent run.
type traceIndexEntry struct {
	RunID string `json:"run_id"`
	CRC   uint32 `json:"crc"`
}

// SaveRun stores rec keyed by its ID and points the trace index for
// rec.TracePath at it.
func (db *DB) SaveRun(rec *RunRecord) error {
	if rec == nil {
		return &ValidationError{Field: "record", Err: ErrNilRecord}
	}
	if rec.ID == "" {
		return &ValidationError{Field: "record.ID", Err: ErrEmptyRunID}
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return &RecordError{Op: "marshal", RunID: rec.ID, Err: err}
	}
	idx, err := json.Marshal(traceIndexEntry{RunID: rec.ID, CRC: rec.TraceCRC})
	if err != nil {
		return &RecordError{Op: "marshal", RunID: rec.ID, Err: err}
	}

	err = db.update(func(tx *bolt.Tx) error {
		runs, err := bucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		if err := runs.Put([]byte(rec.ID), data); err != nil {
			return err
		}
		if rec.TracePath == "" {
			return nil
		}
		traces, err := bucket(tx, BucketTraceIndex)
		if err != nil {
			return err
		}
		return traces.Put([]byte(rec.TracePath), idx)
	})
	if err != nil {
		return &RecordError{Op: "save", RunID: rec.ID, Err: err}
	}
	return nil
}

// GetRun fetches a run record by its full ID.
func (db *DB) GetRun(runID string) (*RunRecord, error) {
	if runID == "" {
		return nil, &ValidationError{Field: "runID", Err: ErrEmptyRunID}
	}

	var rec RunRecord
	err := db.view(func(tx *bolt.Tx) error {
		runs, err := bucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		data := runs.Get([]byte(runID))
		if data == nil {
			return ErrRecordNotFound
		}
		return unmarshal(data, &rec)
	})
	if err != nil {
		return nil, &RecordError{Op: "get", RunID: runID, Err: err}
	}
	return &rec, nil
}

// FindRun resolves a full ID or a unique ID prefix (such as the 8-character
// short form shown by history list) to a run.
func (db *DB) FindRun(prefix string) (*RunRecord, error) {
	if prefix == "" {
		return nil, &ValidationError{Field: "runID", Err: ErrEmptyRunID}
	}

	var matches []RunRecord
	err := db.view(func(tx *bolt.Tx) error {
		runs, err := bucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		p := []byte(prefix)
		c := runs.Cursor()
		for k, v := c.Seek(p); k != nil && bytes.HasPrefix(k, p); k, v = c.Next() {
			var rec RunRecord
			if err := unmarshal(v, &rec); err != nil {
				return err
			}
			matches = append(matches, rec)
		}
		return nil
	})
	if err != nil {
		return nil, &RecordError{Op: "find", RunID: prefix, Err: err}
	}

	switch len(matches) {
	case 0:
		return nil, &RecordError{Op: "find", RunID: prefix, Err: ErrRecordNotFound}
	case 1:
		return &matches[0], nil
	default:
		return nil, &RecordError{Op: "find", RunID: prefix, Err: fmt.Errorf("%w (%d matches)", ErrAmbiguousRunID, len(matches))}
	}
}

// ListRuns returns the stored runs, most recent first. A positive limit
// caps the result.
func (db *DB) ListRuns(limit int) ([]RunRecord, error) {
	var runs []RunRecord
	err := db.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		return b.ForEach(func(k, v []byte) error {
			var rec RunRecord
			if err := unmarshal(v, &rec); err != nil {
				return &RecordError{Op: "list", RunID: string(k), Err: err}
			}
			runs = append(runs, rec)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(runs, func(i, j int) bool {
		if !runs[i].AnalyzedAt.Equal(runs[j].AnalyzedAt) {
			return runs[i].AnalyzedAt.After(runs[j].AnalyzedAt)
		}
		return runs[i].ID < runs[j].ID
	})
	if limit > 0 && len(runs) > limit {
		runs = runs[:limit]
	}
	return runs, nil
}

// DeleteRun removes a run, its worker rows and any trace index entry that
// points at it.
func (db *DB) DeleteRun(runID string) error {
	if runID == "" {
		return &ValidationError{Field: "runID", Err: ErrEmptyRunID}
	}

	err := db.update(func(tx *bolt.Tx) error {
		runs, err := bucket(tx, BucketRuns)
		if err != nil {
			return err
		}
		if runs.Get([]byte(runID)) == nil {
			return ErrRecordNotFound
		}
		if err := runs.Delete([]byte(runID)); err != nil {
			return err
		}

		workers, err := bucket(tx, BucketRunWorkers)
		if err != nil {
			return err
		}
		prefix := runWorkerPrefix(runID)
		var keys [][]byte
		c := workers.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := workers.Delete(k); err != nil {
				return err
			}
		}

		traces, err := bucket(tx, BucketTraceIndex)
		if err != nil {
			return err
		}
		var stale [][]byte
		err = traces.ForEach(func(k, v []byte) error {
			var e traceIndexEntry
			if json.Unmarshal(v, &e) == nil && e.RunID == runID {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := traces.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &RecordError{Op: "delete", RunID: runID, Err: err}
	}
	return nil
}

// PutRunWorker writes or updates a worker row for the given run.
func (db *DB) PutRunWorker(runID string, w *RunWorkerRecord) error {
	if runID == "" {
		return &ValidationError{Field: "runID", Err: ErrEmptyRunID}
	}
	if w == nil {
		return &ValidationError{Field: "worker", Err: ErrNilRecord}
	}

	data, err := json.Marshal(w)
	if err != nil {
		return &RecordError{Op: "marshal run worker", RunID: runID, Err: err}
	}

	return db.update(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketRunWorkers)
		if err != nil {
			return err
		}
		return b.Put(runWorkerKey(runID, w.WorkerID), data)
	})
}

// ListRunWorkers returns the worker rows of a run ordered by worker id.
func (db *DB) ListRunWorkers(runID string) ([]RunWorkerRecord, error) {
	if runID == "" {
		return nil, &ValidationError{Field: "runID", Err: ErrEmptyRunID}
	}

	prefix := runWorkerPrefix(runID)
	var records []RunWorkerRecord

	err := db.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketRunWorkers)
		if err != nil {
			return err
		}
		c := b.Cursor()
		for k, v := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.Next() {
			var rec RunWorkerRecord
			if err := unmarshal(v, &rec); err != nil {
				return &RecordError{Op: "list run workers", RunID: runID, Err: err}
			}
			records = append(records, rec)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// LatestForTrace returns the most recent run of the trace at path when its
// content CRC still matches crc, or nil when the trace is new or changed.
func (db *DB) LatestForTrace(path string, crc uint32) (*RunRecord, error) {
	var entry *traceIndexEntry
	err := db.view(func(tx *bolt.Tx) error {
		b, err := bucket(tx, BucketTraceIndex)
		if err != nil {
			return err
		}
		data := b.Get([]byte(path))
		if data == nil {
			return nil
		}
		var e traceIndexEntry
		if err := unmarshal(data, &e); err != nil {
			return err
		}
		entry = &e
		return nil
	})
	if err != nil {
		return nil, err
	}
	if entry == nil || entry.CRC != crc {
		return nil, nil
	}
	return db.GetRun(entry.RunID)
}

// runWorkerKey orders rows by worker id within a run. Ids are zero-padded
// so byte order matches numeric order.
func runWorkerKey(runID string, workerID int) []byte {
	return append(runWorkerPrefix(runID), []byte(fmt.Sprintf("%010d", workerID))...)
}

func runWorkerPrefix(runID string) []byte {
	return []byte(strings.TrimSpace(runID) + "\x00")
}
