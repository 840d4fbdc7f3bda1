package database

import (
	"database/sql"
	"fmt"

	"github.com/censoparroquial/censo/internal/config"
	_ "modernc.org/sqlite"
)

// NewInMemory creates an in-memory database for tests. Migrations are not
// applied and WAL mode is not enabled.
func NewInMemory() (*DB, error) {
	sqlDB, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	return &DB{
		DB:     sqlDB,
		path:   ":memory:",
		config: &config.DatabaseConfig{},
	}, nil
}
