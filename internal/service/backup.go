package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const backupPrefix = "watchlog_backup_"

// BackupService handles database backup operations
type BackupService struct {
	dbPath     string
	backupDir  string
	maxBackups int
	logger     zerolog.Logger
}

// NewBackupService creates a new BackupService
func NewBackupService(dbPath, backupDir string, logger zerolog.Logger) *BackupService {
	return &BackupService{
		dbPath:     dbPath,
		backupDir:  backupDir,
		maxBackups: 4, // keep the last 4 weekly backups
		logger:     logger.With().Str("component", "backup").Logger(),
	}
}

// Backup creates a backup of the database file
func (b *BackupService) Backup() (string, error) {
	if err := os.MkdirAll(b.backupDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_150405")
	backupName := fmt.Sprintf("%s%s.db", backupPrefix, timestamp)
	backupPath := filepath.Join(b.backupDir, backupName)

	if err := copyFile(b.dbPath, backupPath); err != nil {
		return "", fmt.Errorf("failed to copy database: %w", err)
	}

	if err := b.CleanOldBackups(); err != nil {
		// the backup itself succeeded
		b.logger.Warn().Err(err).Msg("failed to clean old backups")
	}

	return backupPath, nil
}

// LastBackupTime returns the modification time of the most recent backup, or
// the zero time when none exists.
func (b *BackupService) LastBackupTime() (time.Time, error) {
	backups, err := b.listBackups()
	if err != nil {
		return time.Time{}, err
	}
	if len(backups) == 0 {
		return time.Time{}, nil
	}

	info, err := os.Stat(backups[len(backups)-1])
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to stat backup file: %w", err)
	}
	return info.ModTime(), nil
}

// CleanOldBackups removes old backups, keeping only the most recent ones
func (b *BackupService) CleanOldBackups() error {
	backups, err := b.listBackups()
	if err != nil {
		return err
	}

	if len(backups) > b.maxBackups {
		toDelete := backups[:len(backups)-b.maxBackups]
		for _, backup := range toDelete {
			if err := os.Remove(backup); err != nil {
				return fmt.Errorf("failed to delete old backup %s: %w", backup, err)
			}
		}
	}
	return nil
}

// listBackups returns a sorted list of backup files (oldest first)
func (b *BackupService) listBackups() ([]string, error) {
	if _, err := os.Stat(b.backupDir); os.IsNotExist(err) {
		return []string{}, nil
	}

	entries, err := os.ReadDir(b.backupDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), backupPrefix) && strings.HasSuffix(entry.Name(), ".db") {
			backups = append(backups, filepath.Join(b.backupDir, entry.Name()))
		}
	}

	// filenames embed the timestamp, so lexical order is chronological
	sort.Strings(backups)
	return backups, nil
}

// copyFile copies a file from src to dst
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
