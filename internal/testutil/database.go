// Package testutil provides utilities for testing.
package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	_ "modernc.org/sqlite" // SQLite driver
)

// TestDB wraps a test database connection.
type TestDB struct {
	*sql.DB
	path string
}

// NewTestDB creates a new in-memory SQLite database for testing. The pool
// is pinned to one connection so every query sees the same database.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	return &TestDB{DB: db, path: ":memory:"}
}

// NewMigratedDB creates an in-memory database with the local store schema
// applied and closes it when the test ends.
func NewMigratedDB(t *testing.T) *TestDB {
	t.Helper()

	db := NewTestDB(t)
	db.RunMigrations(t, MigrationsDir())
	t.Cleanup(func() { db.DB.Close() })
	return db
}

// MigrationsDir returns the absolute path of the embedded migrations.
func MigrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "database", "migrations")
}

// RunMigrations executes SQL migration files in order.
// Only executes the "Up" portion of each migration (before "-- +migrate Down").
func (tdb *TestDB) RunMigrations(t *testing.T, migrationsDir string) {
	t.Helper()

	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("failed to read migrations directory: %v", err)
	}

	ctx := context.Background()

	for _, file := range files {
		if file.IsDir() || filepath.Ext(file.Name()) != ".sql" {
			continue
		}

		sqlBytes, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Fatalf("failed to read migration %s: %v", file.Name(), err)
		}

		sqlStr := string(sqlBytes)
		if idx := strings.Index(sqlStr, "-- +migrate Down"); idx >= 0 {
			sqlStr = sqlStr[:idx]
		}

		if _, err := tdb.ExecContext(ctx, sqlStr); err != nil {
			t.Fatalf("failed to execute migration %s: %v", file.Name(), err)
		}
	}
}

// Close closes the test database and cleans up resources.
func (tdb *TestDB) Close(t *testing.T) {
	t.Helper()

	if err := tdb.DB.Close(); err != nil {
		t.Errorf("failed to close test database: %v", err)
	}
}

// AssertRowCount asserts the row count for a table.
func (tdb *TestDB) AssertRowCount(t *testing.T, table string, expected int) {
	t.Helper()

	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM %s", table)
	if err := tdb.QueryRow(query).Scan(&count); err != nil {
		t.Fatalf("failed to count rows in %s: %v", table, err)
	}

	if count != expected {
		t.Errorf("expected %d rows in %s, got %d", expected, table, count)
	}
}

// ExecSQL executes arbitrary SQL (useful for test setup).
func (tdb *TestDB) ExecSQL(t *testing.T, sql string, args ...any) {
	t.Helper()

	if _, err := tdb.Exec(sql, args...); err != nil {
		t.Fatalf("failed to execute SQL: %v\nSQL: %s", err, sql)
	}
}
