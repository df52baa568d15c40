package service

import (
	"fmt"
	"os"
	"path/filepath"

	"dltrace/config"
	"dltrace/util"
)

// Initialize sets up the analyzer environment for the first time.
//
// The initialization process includes:
//  1. Creating the state directory (and the log/chart directories when set)
//  2. Writing the configuration file with the current values
//  3. Verifying the history database
//
// An existing config file is kept unless opts.Force is set; that case is
// reported as a warning, not an error.
func (s *Service) Initialize(opts InitOptions) (*InitResult, error) {
	result := &InitResult{
		DirsCreated:  make([]string, 0),
		DirsExisting: make([]string, 0),
		Warnings:     make([]string, 0),
	}

	// 1. Create required directories
	dirs := []struct{ label, dir string }{
		{"State", s.cfg.StateDir},
		{"Charts", s.cfg.ChartDir},
	}
	if s.cfg.LogFile != "" {
		dirs = append(dirs, struct{ label, dir string }{"Logs", filepath.Dir(s.cfg.LogFile)})
	}
	for _, d := range dirs {
		if d.dir == "" || d.dir == "." {
			continue
		}
		if util.DirExists(d.dir) {
			result.DirsExisting = append(result.DirsExisting, d.dir)
			s.logger.Debug("Using existing %s: %s", d.label, d.dir)
			continue
		}
		if err := os.MkdirAll(d.dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory (%s): %w", d.label, d.dir, err)
		}
		result.DirsCreated = append(result.DirsCreated, d.dir)
		s.logger.Info("Created %s: %s", d.label, d.dir)
	}

	// 2. Write the config file
	configDir := opts.ConfigDir
	if configDir == "" {
		configDir = config.DefaultConfigDir()
	}
	result.ConfigFile = filepath.Join(configDir, config.ConfigFileName)
	if _, err := os.Stat(result.ConfigFile); err == nil && !opts.Force {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Config file %s already exists (use --force to overwrite)", result.ConfigFile))
	} else {
		if err := config.SaveConfig(result.ConfigFile, s.cfg); err != nil {
			return nil, fmt.Errorf("failed to write config: %w", err)
		}
		result.ConfigWritten = true
		s.logger.Info("Wrote config: %s", result.ConfigFile)
	}

	// 3. Verify the history database (opened in NewService)
	if s.db != nil {
		if _, err := s.db.Stats(); err != nil {
			return nil, fmt.Errorf("history database unusable: %w", err)
		}
		result.DatabaseInitiated = true
		s.logger.Info("Database initialized: %s", s.db.Path())
	} else {
		result.Warnings = append(result.Warnings, "Run history is disabled (History_enabled = no)")
	}

	return result, nil
}
