package service

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"dltrace/anomaly"
	"dltrace/chart"
	"dltrace/historydb"
	"dltrace/log"
	"dltrace/report"
	"dltrace/stats"
	"dltrace/trace"
)

// Analyze runs the full pipeline over one trace file.
//
// The pipeline:
//  1. Read the trace and compute its CRC
//  2. Parse it into a model and apply the filter
//  3. Build the report context, run the anomaly rules, assemble the document
//  4. Optionally render charts (failures are logged, never returned)
//  5. Optionally record the run in the history database
//
// An unreadable trace yields an error matching trace.ErrTraceUnreadable.
// A readable trace with no worker activity is not an error: the document
// reports HasData false.
func (s *Service) Analyze(opts AnalyzeOptions) (*AnalyzeResult, error) {
	start := time.Now()
	if opts.TracePath == "" {
		opts.TracePath = DefaultTracePath
	}
	if err := opts.Filter.Validate(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(opts.TracePath)
	if err != nil {
		return nil, &trace.TraceError{Op: "open", Path: opts.TracePath, Err: err}
	}

	result := &AnalyzeResult{
		RunID:    uuid.NewString(),
		TraceCRC: historydb.TraceCRC(data),
	}
	logger := s.runLogger(result.RunID, opts.TracePath)
	logger.Debug("Read %d bytes (crc %08x)", len(data), result.TraceCRC)

	model, err := trace.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	logger.Info("Parsed %d workers, %d tasks, %d health kills", len(model.Workers), model.TaskCount(), len(model.HealthKills))

	if !opts.Filter.IsZero() {
		model = trace.Filter(model, opts.Filter)
		logger.Info("Filter %s kept %d workers, %d tasks", opts.Filter, len(model.Workers), model.TaskCount())
	}
	result.Model = model

	ropts, err := s.reportOptions(opts)
	if err != nil {
		return nil, err
	}

	result.Context = stats.NewReportContext(model, ropts.Thresholds.SlowTaskMultiplier)
	result.Findings = anomaly.Detect(result.Context, ropts.Thresholds)

	doc, err := report.NewDocument(result.Context, result.Findings, ropts)
	if err != nil {
		return nil, fmt.Errorf("building report: %w", err)
	}
	doc.RunID = result.RunID
	doc.TracePath = opts.TracePath
	doc.Filter = opts.Filter.String()
	result.Document = doc

	if !doc.HasData {
		logger.Warn("No worker activity found in %s", opts.TracePath)
	}
	for _, r := range doc.Recommendations {
		logger.Debug("Finding: %s", r)
	}

	if s.db != nil {
		prev, err := s.db.LatestForTrace(historyKey(opts.TracePath), result.TraceCRC)
		if err != nil {
			logger.Warn("History lookup failed: %v", err)
		} else if prev != nil {
			result.Previous = prev
			logger.Info("Trace unchanged since run %s (%s)", shortID(prev.ID), prev.AnalyzedAt.Format(time.RFC3339))
		}
	}

	if opts.Charts {
		result.Charts = s.renderCharts(logger, result.Context, opts, ropts.Buckets)
	}

	if opts.SaveHistory && doc.HasData {
		if err := s.saveRun(result, opts); err != nil {
			// History is a convenience; the analysis itself succeeded.
			logger.Warn("Failed to record run: %v", err)
		} else {
			result.Saved = true
			logger.Debug("Recorded run %s", result.RunID)
		}
	}

	result.Duration = time.Since(start)
	if s.file != nil {
		s.file.WriteSummary(log.RunSummary{
			RunID:       result.RunID,
			TracePath:   opts.TracePath,
			Workers:     len(model.Workers),
			Tasks:       model.TaskCount(),
			HealthKills: len(model.HealthKills),
			Findings:    len(doc.Recommendations),
			Elapsed:     result.Duration,
		})
	}
	return result, nil
}

// runLogger tags file log entries with the run id and trace path.
func (s *Service) runLogger(runID, tracePath string) log.LibraryLogger {
	if s.file == nil {
		return s.console
	}
	return log.Tee(s.console, s.file.WithContext(log.LogContext{RunID: runID, TracePath: tracePath}))
}

// reportOptions merges the per-call options over the configuration.
func (s *Service) reportOptions(opts AnalyzeOptions) (report.Options, error) {
	ropts := report.Options{
		Buckets:           s.cfg.BucketCount,
		ImpactWindow:      s.cfg.ImpactWindow,
		Thresholds:        s.Thresholds(),
		TopSlowTasks:      s.cfg.TopSlowTasks,
		SlowTaskListLimit: s.cfg.SlowTaskListLimit,
	}
	switch {
	case opts.Buckets > 0:
		ropts.Buckets = opts.Buckets
	case opts.Buckets < 0:
		ropts.Buckets = 0
	}
	if opts.ImpactWindow > 0 {
		ropts.ImpactWindow = opts.ImpactWindow
	}

	scopeName := s.cfg.ImpactScope
	if opts.ImpactScope != "" {
		scopeName = opts.ImpactScope
	}
	scope, err := stats.ParseImpactScope(scopeName)
	if err != nil {
		return report.Options{}, err
	}
	ropts.ImpactScope = scope
	return ropts, nil
}

// Thresholds returns the anomaly thresholds from the configuration.
func (s *Service) Thresholds() anomaly.Thresholds {
	return anomaly.Thresholds{
		SlowTaskMultiplier: s.cfg.SlowTaskMultiplier,
		SpeedVarianceRatio: s.cfg.SpeedVarianceRatio,
		IdleThreshold:      s.cfg.IdleThreshold,
		LowUtilizationPct:  s.cfg.LowUtilizationPct,
		SplitThreshold:     s.cfg.SplitThreshold,
	}
}

func (s *Service) renderCharts(logger log.LibraryLogger, ctx *stats.ReportContext, opts AnalyzeOptions, buckets int) *chart.Result {
	dir := opts.ChartDir
	if dir == "" {
		dir = s.cfg.ChartDir
	}
	copts := chart.DefaultOptions()
	copts.Buckets = buckets

	res := chart.Generate(ctx, dir, copts)
	for _, w := range res.Warnings {
		logger.Warn("Skipping chart: %v", w)
	}
	for _, f := range res.Files {
		logger.Info("Chart saved to: %s", f)
	}
	return res
}

func (s *Service) saveRun(result *AnalyzeResult, opts AnalyzeOptions) error {
	doc := result.Document
	rec := &historydb.RunRecord{
		ID:                    result.RunID,
		TracePath:             historyKey(opts.TracePath),
		TraceCRC:              result.TraceCRC,
		AnalyzedAt:            time.Now().UTC(),
		Filter:                doc.Filter,
		Filename:              doc.Summary.Filename,
		TotalSize:             doc.Summary.TotalSize,
		Workers:               len(doc.Workers),
		Tasks:                 doc.TaskCount,
		TotalBytes:            doc.TotalBytes,
		GlobalAvgSpeedMBps:    doc.GlobalAvgSpeedMBps,
		GlobalAvgTaskDuration: doc.GlobalAvgTaskDuration,
		SlowTasks:             len(doc.Findings.SlowTasks),
		HealthKills:           len(result.Model.HealthKills),
		BalancerSplits:        doc.Findings.Balancer.TotalSplits,
	}
	for _, r := range doc.Recommendations {
		rec.Recommendations = append(rec.Recommendations, r.String())
	}
	if err := s.db.SaveRun(rec); err != nil {
		return err
	}

	for _, w := range doc.Workers {
		err := s.db.PutRunWorker(rec.ID, &historydb.RunWorkerRecord{
			WorkerID:     w.ID,
			Tasks:        w.Tasks,
			TotalBytes:   w.TotalBytes,
			AvgSpeedMBps: w.AvgSpeedMBps,
			Utilization:  w.Utilization,
			IdleSeconds:  w.IdleSeconds,
			Status:       w.Status,
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// historyKey identifies a trace in the history index independently of the
// working directory.
func historyKey(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
