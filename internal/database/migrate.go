package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migration is one embedded schema change.
type Migration struct {
	Version     int
	Description string
	UpSQL       string
	DownSQL     string
	Applied     bool
	AppliedAt   time.Time
}

// MigrationResult describes a migrate run.
type MigrationResult struct {
	Applied        []Migration
	CurrentVersion int
	TargetVersion  int
}

// Migrator applies the embedded migrations to a DB.
type Migrator struct {
	db         *DB
	migrations []Migration
}

// NewMigrator loads the embedded migrations and ensures the bookkeeping
// table exists.
func NewMigrator(db *DB) (*Migrator, error) {
	migrations, err := loadMigrations(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("loading migrations: %w", err)
	}

	m := &Migrator{db: db, migrations: migrations}

	if err := m.ensureMigrationsTable(); err != nil {
		return nil, fmt.Errorf("creating migrations table: %w", err)
	}

	return m, nil
}

var migrationName = regexp.MustCompile(`^(\d{3})_(.+)\.sql$`)

func loadMigrations(fsys fs.FS, dir string) ([]Migration, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading migrations directory: %w", err)
	}

	var migrations []Migration
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		matches := migrationName.FindStringSubmatch(entry.Name())
		if matches == nil {
			slog.Warn("skipping invalid migration filename", "name", entry.Name())
			continue
		}

		version, _ := strconv.Atoi(matches[1])

		content, err := fs.ReadFile(fsys, path.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("reading migration %s: %w", entry.Name(), err)
		}

		upSQL, downSQL := parseMigration(string(content))

		migrations = append(migrations, Migration{
			Version:     version,
			Description: strings.ReplaceAll(matches[2], "_", " "),
			UpSQL:       upSQL,
			DownSQL:     downSQL,
		})
	}

	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	return migrations, nil
}

// parseMigration splits a migration file at its markers:
//
//	-- +migrate Up
//	SQL statements...
//	-- +migrate Down
//	SQL statements...
//
// Content without markers is treated as the Up section.
func parseMigration(content string) (upSQL, downSQL string) {
	const (
		upMarker   = "-- +migrate Up"
		downMarker = "-- +migrate Down"
	)

	upIdx := strings.Index(content, upMarker)
	downIdx := strings.Index(content, downMarker)

	switch {
	case upIdx == -1:
		return strings.TrimSpace(content), ""
	case downIdx == -1:
		return strings.TrimSpace(content[upIdx+len(upMarker):]), ""
	case upIdx < downIdx:
		return strings.TrimSpace(content[upIdx+len(upMarker) : downIdx]),
			strings.TrimSpace(content[downIdx+len(downMarker):])
	default:
		return strings.TrimSpace(content[upIdx+len(upMarker):]),
			strings.TrimSpace(content[downIdx+len(downMarker) : upIdx])
	}
}

func (m *Migrator) ensureMigrationsTable() error {
	_, err := m.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			description TEXT NOT NULL,
			applied_at TEXT NOT NULL DEFAULT (datetime('now'))
		)
	`)
	return err
}

// CurrentVersion returns the highest applied migration version.
func (m *Migrator) CurrentVersion(ctx context.Context) (int, error) {
	var version int
	err := m.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations",
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("querying current version: %w", err)
	}
	return version, nil
}

// MigrateUp applies every pending migration in order.
func (m *Migrator) MigrateUp(ctx context.Context) (*MigrationResult, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{CurrentVersion: current, TargetVersion: current}

	for _, mig := range m.migrations {
		if mig.Version <= current {
			continue
		}

		slog.Info("applying migration", "version", mig.Version, "description", mig.Description)

		if err := m.exec(ctx, mig.UpSQL,
			"INSERT INTO schema_migrations (version, description) VALUES (?, ?)",
			mig.Version, mig.Description,
		); err != nil {
			return result, fmt.Errorf("migration %d failed: %w", mig.Version, err)
		}

		mig.Applied = true
		mig.AppliedAt = time.Now()
		result.Applied = append(result.Applied, mig)
		result.TargetVersion = mig.Version
	}

	if len(result.Applied) == 0 {
		slog.Debug("database is up to date", "version", current)
	}

	return result, nil
}

// MigrateDown rolls back the most recent migration.
func (m *Migrator) MigrateDown(ctx context.Context) (*MigrationResult, error) {
	current, err := m.CurrentVersion(ctx)
	if err != nil {
		return nil, err
	}

	result := &MigrationResult{CurrentVersion: current, TargetVersion: current}

	if current == 0 {
		return result, errors.New("no migrations to roll back")
	}

	idx := sort.Search(len(m.migrations), func(i int) bool {
		return m.migrations[i].Version >= current
	})
	if idx == len(m.migrations) || m.migrations[idx].Version != current {
		return result, fmt.Errorf("migration %d not found", current)
	}

	mig := m.migrations[idx]
	if mig.DownSQL == "" {
		return result, fmt.Errorf("migration %d has no rollback SQL", current)
	}

	slog.Info("rolling back migration", "version", mig.Version, "description", mig.Description)

	if err := m.exec(ctx, mig.DownSQL,
		"DELETE FROM schema_migrations WHERE version = ?", mig.Version,
	); err != nil {
		return result, fmt.Errorf("rollback %d failed: %w", mig.Version, err)
	}

	result.Applied = append(result.Applied, mig)
	if idx > 0 {
		result.TargetVersion = m.migrations[idx-1].Version
	} else {
		result.TargetVersion = 0
	}

	return result, nil
}

// exec runs a migration body and its bookkeeping statement in one
// transaction.
func (m *Migrator) exec(ctx context.Context, body, record string, args ...any) error {
	return m.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range splitStatements(body) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("executing statement: %w\nSQL: %s", err, stmt)
			}
		}

		if _, err := tx.ExecContext(ctx, record, args...); err != nil {
			return fmt.Errorf("recording migration: %w", err)
		}

		return nil
	})
}

// Status lists every embedded migration with its applied state.
func (m *Migrator) Status(ctx context.Context) ([]Migration, error) {
	rows, err := m.db.QueryContext(ctx,
		"SELECT version, applied_at FROM schema_migrations ORDER BY version",
	)
	if err != nil {
		return nil, fmt.Errorf("querying applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[int]time.Time)
	for rows.Next() {
		var (
			version   int
			appliedAt string
		)
		if err := rows.Scan(&version, &appliedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		t, _ := time.Parse(time.DateTime, appliedAt)
		applied[version] = t
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating rows: %w", err)
	}

	result := make([]Migration, len(m.migrations))
	for i, mig := range m.migrations {
		result[i] = mig
		if t, ok := applied[mig.Version]; ok {
			result[i].Applied = true
			result[i].AppliedAt = t
		}
	}

	return result, nil
}

// splitStatements splits SQL on semicolons outside string literals and
// drops empty statements.
func splitStatements(sql string) []string {
	var (
		statements []string
		current    strings.Builder
		quote      rune
	)

	flush := func() {
		if stmt := strings.TrimSpace(current.String()); stmt != "" {
			statements = append(statements, stmt)
		}
		current.Reset()
	}

	for _, ch := range sql {
		switch {
		case quote != 0:
			current.WriteRune(ch)
			if ch == quote {
				quote = 0
			}
		case ch == '\'' || ch == '"':
			quote = ch
			current.WriteRune(ch)
		case ch == ';':
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()

	return statements
}
