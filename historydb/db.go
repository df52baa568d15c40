// Package historydb stores the outcome of every analysis run in a bbolt
// database so runs can be listed, compared and reopened later.
package historydb

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	bolt "go.etcd.io/bbolt"
)

// Bucket names for bbolt database
const (
	BucketRuns       = "runs"
	BucketRunWorkers = "run_workers"
	BucketTraceIndex = "trace_index"
)

// DB wraps a bbolt database for analysis history
type DB struct {
	db   *bolt.DB
	path string
}

// DBStats counts the entries of each bucket.
type DBStats struct {
	Runs       int
	RunWorkers int
	Traces     int
}

// OpenDB opens or creates a bbolt database at the given path, creating the
// parent directory if needed. The required buckets (runs, run_workers,
// trace_index) are initialized if they don't exist. The database file is
// created with 0600 permissions.
//
// Example:
//
//	db, err := historydb.OpenDB(filepath.Join(stateDir, "history.db"))
//	if err != nil {
//	    return err
//	}
//	defer db.Close()
func OpenDB(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, &DatabaseError{Op: "create directory", Err: err}
	}

	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, &DatabaseError{Op: "open", Err: err}
	}

	// Initialize required buckets in a single write transaction
	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{BucketRuns, BucketRunWorkers, BucketTraceIndex} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return &DatabaseError{Op: "create bucket", Bucket: name, Err: err}
			}
		}
		return nil
	})
	if err != nil {
		// Close database if bucket initialization fails
		bdb.Close()
		return nil, err
	}

	return &DB{db: bdb, path: path}, nil
}

// Path returns the database file location.
func (db *DB) Path() string {
	return db.path
}

// Close closes the database connection and flushes any pending writes to
// disk. It is safe to call Close multiple times.
func (db *DB) Close() error {
	if db.db == nil {
		return nil
	}
	err := db.db.Close()
	db.db = nil
	return err
}

// Stats returns the number of entries in each bucket.
func (db *DB) Stats() (DBStats, error) {
	var s DBStats
	err := db.view(func(tx *bolt.Tx) error {
		counts := []struct {
			name string
			dst  *int
		}{
			{BucketRuns, &s.Runs},
			{BucketRunWorkers, &s.RunWorkers},
			{BucketTraceIndex, &s.Traces},
		}
		for _, c := range counts {
			b, err := bucket(tx, c.name)
			if err != nil {
				return err
			}
			*c.dst = b.Stats().KeyN
		}
		return nil
	})
	return s, err
}

// Size returns the size of the database in bytes as seen by a read
// transaction.
func (db *DB) Size() (int64, error) {
	var size int64
	err := db.view(func(tx *bolt.Tx) error {
		size = tx.Size()
		return nil
	})
	return size, err
}

// Backup writes a consistent copy of the database to w.
func (db *DB) Backup(w io.Writer) error {
	return db.view(func(tx *bolt.Tx) error {
		_, err := tx.WriteTo(w)
		return err
	})
}

// view runs fn in a read transaction, failing if the database is closed.
func (db *DB) view(fn func(tx *bolt.Tx) error) error {
	if db == nil || db.db == nil {
		return ErrDatabaseNotOpen
	}
	return db.db.View(fn)
}

// update runs fn in a write transaction, failing if the database is closed.
func (db *DB) update(fn func(tx *bolt.Tx) error) error {
	if db == nil || db.db == nil {
		return ErrDatabaseNotOpen
	}
	return db.db.Update(fn)
}

func bucket(tx *bolt.Tx, name string) (*bolt.Bucket, error) {
	b := tx.Bucket([]byte(name))
	if b == nil {
		return nil, &DatabaseError{Op: "get bucket", Bucket: name, Err: ErrBucketNotFound}
	}
	return b, nil
}

func unmarshal(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrCorruptedData, err)
	}
	return nil
}
