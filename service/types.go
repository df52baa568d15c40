package service

import (
	"time"

	"dltrace/anomaly"
	"dltrace/chart"
	"dltrace/historydb"
	"dltrace/report"
	"dltrace/stats"
	"dltrace/trace"
)

// DefaultTracePath is analyzed when no path is given.
const DefaultTracePath = "debug.log"

// AnalyzeOptions contains options for the Analyze service. Zero values take
// the configuration defaults.
type AnalyzeOptions struct {
	TracePath    string              // Trace file (default debug.log)
	Filter       trace.FilterOptions // Worker and time restrictions
	Buckets      int                 // Throughput buckets; negative disables
	ImpactWindow time.Duration       // Health-kill comparison window
	ImpactScope  string              // "worker" or "fleet"
	Charts       bool                // Render PNG charts
	ChartDir     string              // Chart output directory
	SaveHistory  bool                // Record the run in the history database
}

// AnalyzeResult contains everything one analysis produced.
type AnalyzeResult struct {
	RunID    string
	TraceCRC uint32
	Model    *trace.Model // after filtering
	Context  *stats.ReportContext
	Findings anomaly.Findings
	Document *report.Document

	Charts   *chart.Result         // nil when charts were not requested
	Previous *historydb.RunRecord  // last run of the same unchanged trace
	Saved    bool                  // whether the run was recorded
	Duration time.Duration
}

// RunDetail is a stored run with its worker rows.
type RunDetail struct {
	Run     *historydb.RunRecord
	Workers []historydb.RunWorkerRecord
}

// InitOptions contains options for the Initialize service.
type InitOptions struct {
	ConfigDir string // Where to write the config file (default: config.DefaultConfigDir)
	Force     bool   // Overwrite an existing config file
}

// InitResult contains the results of an initialization operation.
type InitResult struct {
	DirsCreated       []string // Directories created
	DirsExisting      []string // Directories that were already present
	ConfigFile        string   // Config file path
	ConfigWritten     bool     // Whether the config file was (re)written
	DatabaseInitiated bool     // Whether the history database is usable
	Warnings          []string // Non-fatal warnings
}

// StatusResult describes the analyzer's environment.
type StatusResult struct {
	ConfigFile   string
	Profile      string
	StateDir     string
	LogFile      string
	DatabasePath string
	DatabaseSize int64
	Stats        *historydb.DBStats   // nil when history is disabled
	LatestRun    *historydb.RunRecord // nil when no run is recorded
	LatestTrace  TraceState           // state of the latest run's trace on disk
}

// TraceState compares a recorded trace with the file currently on disk.
type TraceState string

const (
	TraceUnchanged TraceState = "unchanged"
	TraceModified  TraceState = "modified since"
	TraceMissing   TraceState = "missing"
)

// DatabaseResult contains the results of a database operation.
type DatabaseResult struct {
	DatabaseRemoved bool     // Whether the database was removed
	FilesRemoved    []string // List of files that were removed
}
