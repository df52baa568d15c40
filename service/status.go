package service

import (
	"fmt"

	"dltrace/historydb"
)

// GetStatus reports where the analyzer keeps its files and what the history
// database holds.
func (s *Service) GetStatus() (*StatusResult, error) {
	result := &StatusResult{
		ConfigFile:   s.cfg.ConfigFile,
		Profile:      s.cfg.Profile,
		StateDir:     s.cfg.StateDir,
		LogFile:      s.LogFile(),
		DatabasePath: s.cfg.Database.Path,
	}
	if s.db == nil {
		return result, nil
	}

	stats, err := s.GetDatabaseStats()
	if err != nil {
		return nil, err
	}
	result.Stats = stats

	if size, err := s.db.Size(); err == nil {
		result.DatabaseSize = size
	}

	runs, err := s.db.ListRuns(1)
	if err != nil {
		return nil, fmt.Errorf("failed to read latest run: %w", err)
	}
	if len(runs) > 0 {
		result.LatestRun = &runs[0]
		result.LatestTrace = traceState(&runs[0])
	}
	return result, nil
}

func traceState(run *historydb.RunRecord) TraceState {
	crc, err := historydb.FileCRC(run.TracePath)
	switch {
	case err != nil:
		return TraceMissing
	case crc != run.TraceCRC:
		return TraceModified
	default:
		return TraceUnchanged
	}
}
