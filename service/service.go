// Package service provides the analyzer's operations for the CLI and the
// interactive browser.
//
// The service layer sits between the CLI (cmd/) and the library packages
// (trace, stats, anomaly, report, chart, historydb):
//
//   - CLI layer (cmd/): flag parsing, output formatting, exit codes
//   - Service layer (service/): loads the trace, runs every analysis, keeps history
//   - Library layer: pure computation with no terminal coupling
//
// All service methods report progress through the LibraryLogger interface so
// they can be reused from tests and other front ends.
package service

import (
	"errors"
	"fmt"

	"dltrace/config"
	"dltrace/historydb"
	"dltrace/log"
)

// ErrHistoryDisabled is returned by history operations when the service was
// created without a database.
var ErrHistoryDisabled = errors.New("run history is disabled")

// Service coordinates the analyzer subsystems.
//
// It owns the shared resources (log file, history database) for the lifetime
// of one command.
//
// Usage:
//
//	cfg, _ := config.LoadConfig("", "default")
//	svc, err := service.NewService(cfg, log.NewConsoleLogger(cfg.Debug))
//	if err != nil {
//	    return err
//	}
//	defer svc.Close()
//
//	result, err := svc.Analyze(service.AnalyzeOptions{TracePath: "debug.log"})
type Service struct {
	cfg     *config.Config
	console log.LibraryLogger
	logger  log.LibraryLogger
	file    *log.FileLogger
	db      *historydb.DB
}

// NewService opens the log file (when cfg.LogFile is set) and the history
// database (when history is enabled). console receives every message; nil
// discards them. The caller must Close the service.
func NewService(cfg *config.Config, console log.LibraryLogger) (*Service, error) {
	if console == nil {
		console = log.NoOpLogger{}
	}
	s := &Service{cfg: cfg, console: console, logger: console}

	if cfg.LogFile != "" {
		file, err := log.NewFileLogger(cfg.LogFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		s.file = file
		s.logger = log.Tee(console, file)
	}

	if cfg.History.Enabled {
		db, err := historydb.OpenDB(cfg.Database.Path)
		if err != nil {
			s.closeLog()
			return nil, fmt.Errorf("failed to open history database: %w", err)
		}
		s.db = db
	}

	return s, nil
}

// Close releases the database and the log file.
func (s *Service) Close() error {
	var errs []error

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			errs = append(errs, fmt.Errorf("database close: %w", err))
		}
		s.db = nil
	}
	if err := s.closeLog(); err != nil {
		errs = append(errs, fmt.Errorf("log close: %w", err))
	}

	return errors.Join(errs...)
}

func (s *Service) closeLog() error {
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	s.logger = s.console
	return err
}

// Config returns the service's configuration.
func (s *Service) Config() *config.Config {
	return s.cfg
}

// Logger returns the logger every operation writes to.
func (s *Service) Logger() log.LibraryLogger {
	return s.logger
}

// Database returns the history database, or nil when history is disabled.
func (s *Service) Database() *historydb.DB {
	return s.db
}

// LogFile returns the analyzer log path, or "" when file logging is off.
func (s *Service) LogFile() string {
	if s.file == nil {
		return ""
	}
	return s.file.Path()
}
