package service

import (
	"fmt"
	"os"

	"dltrace/historydb"
	"dltrace/util"
)

// ResetDatabase removes the history database and its backup.
//
// This is a destructive operation that deletes every recorded run. The
// caller is responsible for confirming it with the user. History stays
// disabled for the rest of the service's lifetime.
func (s *Service) ResetDatabase() (*DatabaseResult, error) {
	result := &DatabaseResult{
		FilesRemoved: make([]string, 0),
	}

	dbPath := s.cfg.Database.Path

	// Close the database connection before removing
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return nil, fmt.Errorf("failed to close database before reset: %w", err)
		}
		s.db = nil
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return result, nil
	}
	if err := os.Remove(dbPath); err != nil {
		return nil, fmt.Errorf("failed to remove database: %w", err)
	}

	result.DatabaseRemoved = true
	result.FilesRemoved = append(result.FilesRemoved, dbPath)
	s.logger.Info("History database removed: %s", dbPath)

	backupFile := backupPath(dbPath)
	if _, err := os.Stat(backupFile); err == nil {
		if err := os.Remove(backupFile); err == nil {
			result.FilesRemoved = append(result.FilesRemoved, backupFile)
			s.logger.Info("History backup removed: %s", backupFile)
		}
	}

	return result, nil
}

// DatabaseExists checks if the history database file exists.
func (s *Service) DatabaseExists() bool {
	return util.FileExists(s.cfg.Database.Path)
}

// GetDatabasePath returns the path to the history database.
func (s *Service) GetDatabasePath() string {
	return s.cfg.Database.Path
}

// BackupDatabase copies the history database next to itself and returns
// the backup path. The open database is read inside a transaction, so the
// copy is consistent.
func (s *Service) BackupDatabase() (string, error) {
	if s.db == nil {
		return "", ErrHistoryDisabled
	}

	dst := backupPath(s.cfg.Database.Path)
	f, err := os.Create(dst)
	if err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	if err := s.db.Backup(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write backup: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	s.logger.Info("Database backed up to: %s", dst)
	return dst, nil
}

// GetDatabaseStats returns bucket counts of the history database.
func (s *Service) GetDatabaseStats() (*historydb.DBStats, error) {
	if s.db == nil {
		return nil, ErrHistoryDisabled
	}
	stats, err := s.db.Stats()
	if err != nil {
		return nil, fmt.Errorf("failed to get database stats: %w", err)
	}
	return &stats, nil
}

func backupPath(dbPath string) string {
	return dbPath + ".backup"
}
