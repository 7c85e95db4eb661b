package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupCopiesDatabase(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "catalog.db")
	require.NoError(t, os.WriteFile(dbPath, []byte("db contents"), 0644))

	svc := NewBackupService(dbPath, filepath.Join(dir, "backups"), zerolog.Nop())

	backupPath, err := svc.Backup()
	require.NoError(t, err)

	data, err := os.ReadFile(backupPath)
	require.NoError(t, err)
	assert.Equal(t, "db contents", string(data))

	last, err := svc.LastBackupTime()
	require.NoError(t, err)
	assert.False(t, last.IsZero())
}

func TestBackupFailsWithoutDatabase(t *testing.T) {
	dir := t.TempDir()
	svc := NewBackupService(filepath.Join(dir, "missing.db"), filepath.Join(dir, "backups"), zerolog.Nop())

	_, err := svc.Backup()
	assert.Error(t, err)
}

func TestCleanOldBackupsKeepsMostRecent(t *testing.T) {
	dir := t.TempDir()
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0755))

	names := []string{
		"watchlog_backup_2024-01-01_000000.db",
		"watchlog_backup_2024-02-01_000000.db",
		"watchlog_backup_2024-03-01_000000.db",
		"watchlog_backup_2024-04-01_000000.db",
		"watchlog_backup_2024-05-01_000000.db",
		"watchlog_backup_2024-06-01_000000.db",
	}
	for _, name := range names {
		require.NoError(t, os.WriteFile(filepath.Join(backupDir, name), []byte("x"), 0644))
	}
	// unrelated files are never touched
	require.NoError(t, os.WriteFile(filepath.Join(backupDir, "notes.txt"), []byte("x"), 0644))

	svc := NewBackupService(filepath.Join(dir, "catalog.db"), backupDir, zerolog.Nop())
	require.NoError(t, svc.CleanOldBackups())

	entries, err := os.ReadDir(backupDir)
	require.NoError(t, err)

	var remaining []string
	for _, entry := range entries {
		remaining = append(remaining, entry.Name())
	}
	assert.ElementsMatch(t, []string{
		"watchlog_backup_2024-03-01_000000.db",
		"watchlog_backup_2024-04-01_000000.db",
		"watchlog_backup_2024-05-01_000000.db",
		"watchlog_backup_2024-06-01_000000.db",
		"notes.txt",
	}, remaining)
}

func TestLastBackupTimeEmptyDir(t *testing.T) {
	dir := t.TempDir()
	svc := NewBackupService(filepath.Join(dir, "catalog.db"), filepath.Join(dir, "backups"), zerolog.Nop())

	last, err := svc.LastBackupTime()
	require.NoError(t, err)
	assert.True(t, last.IsZero())
}
