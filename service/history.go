package service

import (
	"fmt"

	"dltrace/historydb"
)

// ListRuns returns recorded runs, most recent first. A positive limit caps
// the result.
func (s *Service) ListRuns(limit int) ([]historydb.RunRecord, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	return s.db.ListRuns(limit)
}

// ShowRun resolves a run by full id or unique prefix and loads its worker
// rows.
func (s *Service) ShowRun(idOrPrefix string) (*RunDetail, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	run, err := s.db.FindRun(idOrPrefix)
	if err != nil {
		return nil, err
	}
	workers, err := s.db.ListRunWorkers(run.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load workers of run %s: %w", shortID(run.ID), err)
	}
	return &RunDetail{Run: run, Workers: workers}, nil
}

// DeleteRun removes a run and its worker rows, returning the deleted record.
func (s *Service) DeleteRun(idOrPrefix string) (*historydb.RunRecord, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	run, err := s.db.FindRun(idOrPrefix)
	if err != nil {
		return nil, err
	}
	if err := s.db.DeleteRun(run.ID); err != nil {
		return nil, err
	}
	s.logger.Info("Deleted run %s (%s)", shortID(run.ID), run.TracePath)
	return run, nil
}
