package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RecoveryResult is the outcome of AttemptRecovery.
type RecoveryResult int

const (
	// RecoverySuccess means the store was healthy or repaired in place.
	RecoverySuccess RecoveryResult = iota
	// RecoveryFromBackup means the store was replaced by a backup.
	RecoveryFromBackup
	// RecoveryFailed means no attempt produced a healthy store.
	RecoveryFailed
)

func (r RecoveryResult) String() string {
	switch r {
	case RecoverySuccess:
		return "success"
	case RecoveryFromBackup:
		return "restored_from_backup"
	case RecoveryFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RecoveryReport records each step of a recovery attempt.
type RecoveryReport struct {
	Result       RecoveryResult
	DatabasePath string
	BackupUsed   string
	WALRecovered bool
	Steps        []RecoveryStep
}

// RecoveryStep is one named attempt and its outcome.
type RecoveryStep struct {
	Name      string
	Succeeded bool
	Message   string
	Duration  time.Duration
}

// AttemptRecovery checks the store at dbPath before it is opened. A store
// that fails its integrity check is repaired by replaying the WAL, and
// failing that, replaced by the newest healthy backup in backupDir. The
// damaged file is kept next to the original with a .corrupted suffix.
func AttemptRecovery(dbPath, backupDir string) (*RecoveryReport, error) {
	report := &RecoveryReport{DatabasePath: dbPath}

	if _, err := os.Stat(dbPath); errors.Is(err, os.ErrNotExist) {
		report.Steps = append(report.Steps, RecoveryStep{
			Name:      "check_exists",
			Succeeded: true,
			Message:   "database does not exist (first run)",
		})
		return report, nil
	}

	check := report.run("integrity_check", func() (string, error) {
		return checkIntegrity(dbPath)
	})
	if check.Succeeded {
		return report, nil
	}

	slog.Warn("database integrity check failed", "path", dbPath, "error", check.Message)

	if _, err := os.Stat(dbPath + "-wal"); err == nil {
		wal := report.run("wal_recovery", func() (string, error) {
			return replayWAL(dbPath)
		})
		if wal.Succeeded {
			recheck := report.run("post_wal_integrity", func() (string, error) {
				return checkIntegrity(dbPath)
			})
			if recheck.Succeeded {
				report.WALRecovered = true
				slog.Info("database recovered via WAL replay", "path", dbPath)
				return report, nil
			}
		}
	}

	if backupDir != "" {
		restore := report.run("backup_restoration", func() (string, error) {
			return restoreFromBackup(dbPath, backupDir)
		})
		if restore.Succeeded {
			report.Result = RecoveryFromBackup
			report.BackupUsed = restore.Message
			return report, nil
		}
	}

	report.Result = RecoveryFailed
	return report, errors.New("all recovery attempts failed")
}

func (r *RecoveryReport) run(name string, fn func() (string, error)) RecoveryStep {
	start := time.Now()
	msg, err := fn()

	step := RecoveryStep{Name: name, Succeeded: err == nil, Message: msg, Duration: time.Since(start)}
	if err != nil {
		step.Message = err.Error()
	}

	r.Steps = append(r.Steps, step)
	return step
}

func checkIntegrity(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?mode=ro", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var result string
	if err := db.QueryRowContext(ctx, "PRAGMA quick_check").Scan(&result); err != nil {
		return "", fmt.Errorf("running integrity check: %w", err)
	}
	if result != "ok" {
		return "", fmt.Errorf("integrity check failed: %s", result)
	}
	return "ok", nil
}

func replayWAL(dbPath string) (string, error) {
	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s?_txlock=immediate", dbPath))
	if err != nil {
		return "", fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if _, err := db.ExecContext(ctx, "PRAGMA wal_checkpoint(RESTART)"); err != nil {
		return "", fmt.Errorf("WAL checkpoint: %w", err)
	}
	return "WAL checkpoint complete", nil
}

// restoreFromBackup copies the newest backup that passes its integrity
// check over dbPath and returns the backup's path.
func restoreFromBackup(dbPath, backupDir string) (string, error) {
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		return "", fmt.Errorf("reading backup directory: %w", err)
	}

	type candidate struct {
		path    string
		modTime time.Time
	}

	var backups []candidate
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".db") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, candidate{filepath.Join(backupDir, entry.Name()), info.ModTime()})
	}

	if len(backups) == 0 {
		return "", errors.New("no backup files found")
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].modTime.After(backups[j].modTime)
	})

	for _, b := range backups {
		if _, err := checkIntegrity(b.path); err != nil {
			slog.Debug("backup failed integrity check", "path", b.path, "error", err)
			continue
		}

		corrupted := dbPath + ".corrupted." + time.Now().Format("20060102-150405")
		if err := os.Rename(dbPath, corrupted); err != nil {
			slog.Warn("failed to preserve corrupted database", "path", dbPath, "error", err)
		}
		os.Remove(dbPath + "-wal")
		os.Remove(dbPath + "-shm")

		if err := copyFile(b.path, dbPath); err != nil {
			return "", fmt.Errorf("copying backup: %w", err)
		}
		return b.path, nil
	}

	return "", errors.New("no valid backup found")
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0640)
	if err != nil {
		return fmt.Errorf("creating destination: %w", err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}

	return out.Sync()
}
