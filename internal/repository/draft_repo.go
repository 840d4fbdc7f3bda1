package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// DraftInfo describes a stored draft blob without its payload.
type DraftInfo struct {
	Key       string
	Size      int
	UpdatedAt time.Time
}

// DraftRepository is the key-value store for survey drafts.
type DraftRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewDraftRepository creates a new draft repository.
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db, now: time.Now}
}

// Load returns the blob stored under key. found is false when no draft
// exists.
func (r *DraftRepository) Load(ctx context.Context, key string) ([]byte, bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading draft %s: %w", key, err)
	}
	return []byte(payload), true, nil
}

// Save replaces the blob stored under key.
func (r *DraftRepository) Save(ctx context.Context, key string, blob []byte) error {
	query := `
		INSERT INTO drafts (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`

	_, err := r.db.ExecContext(ctx, query, key, string(blob), r.now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("saving draft %s: %w", key, err)
	}
	return nil
}

// Delete removes the blob stored under key. Deleting a missing key is not
// an error.
func (r *DraftRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM drafts WHERE key = ?`, key); err != nil {
		return fmt.Errorf("deleting draft %s: %w", key, err)
	}
	return nil
}

// List returns every stored draft ordered by key.
func (r *DraftRepository) List(ctx context.Context) ([]DraftInfo, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, length(payload), updated_at FROM drafts ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("listing drafts: %w", err)
	}
	defer rows.Close()

	var drafts []DraftInfo
	for rows.Next() {
		var (
			info      DraftInfo
			updatedAt string
		)
		if err := rows.Scan(&info.Key, &info.Size, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning draft: %w", err)
		}
		info.UpdatedAt, _ = time.Parse(time.RFC3339Nano, updatedAt)
		drafts = append(drafts, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating drafts: %w", err)
	}

	return drafts, nil
}
