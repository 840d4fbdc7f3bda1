package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/censoparroquial/censo/internal/models"
)

// CatalogRepository caches catalog option lists for offline use. Top-level
// catalogs are stored with an empty parent value.
type CatalogRepository struct {
	db *sql.DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// GetOptions returns the cached options for configKey under parentValue.
// found is false when the list was never cached.
func (r *CatalogRepository) GetOptions(ctx context.Context, configKey, parentValue string) ([]models.Option, bool, error) {
	query := `
		SELECT value, label FROM catalog_options
		WHERE config_key = ? AND parent_value = ?
		ORDER BY position`

	rows, err := r.db.QueryContext(ctx, query, configKey, parentValue)
	if err != nil {
		return nil, false, fmt.Errorf("querying catalog %s: %w", configKey, err)
	}
	defer rows.Close()

	var opts []models.Option
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.Value, &opt.Label); err != nil {
			return nil, false, fmt.Errorf("scanning option: %w", err)
		}
		opts = append(opts, opt)
	}

	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating options: %w", err)
	}

	return opts, len(opts) > 0, nil
}

// PutOptions replaces the cached list for configKey under parentValue.
func (r *CatalogRepository) PutOptions(ctx context.Context, configKey, parentValue string, options []models.Option) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM catalog_options WHERE config_key = ? AND parent_value = ?`,
		configKey, parentValue,
	); err != nil {
		return fmt.Errorf("clearing catalog %s: %w", configKey, err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO catalog_options (config_key, parent_value, position, value, label, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	fetchedAt := time.Now().UTC().Format(time.RFC3339)
	for i, opt := range options {
		if _, err := stmt.ExecContext(ctx, configKey, parentValue, i, opt.Value, opt.Label, fetchedAt); err != nil {
			return fmt.Errorf("inserting option %s/%s: %w", configKey, opt.Value, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalog %s: %w", configKey, err)
	}

	return nil
}

// ListOptions returns one page of the cached options for configKey under
// parentValue.
func (r *CatalogRepository) ListOptions(ctx context.Context, configKey, parentValue string, page models.Pagination) (*models.OptionList, error) {
	var total int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM catalog_options WHERE config_key = ? AND parent_value = ?`,
		configKey, parentValue,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting catalog %s: %w", configKey, err)
	}

	query := `
		SELECT value, label FROM catalog_options
		WHERE config_key = ? AND parent_value = ?
		ORDER BY position
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, configKey, parentValue, page.Limit(), page.Offset())
	if err != nil {
		return nil, fmt.Errorf("querying catalog %s: %w", configKey, err)
	}
	defer rows.Close()

	list := &models.OptionList{
		ConfigKey:   configKey,
		ParentValue: parentValue,
		Total:       total,
		Page:        max(page.Page, 1),
		PageSize:    page.Limit(),
		TotalPages:  page.TotalPages(total),
	}
	for rows.Next() {
		var opt models.Option
		if err := rows.Scan(&opt.Value, &opt.Label); err != nil {
			return nil, fmt.Errorf("scanning option: %w", err)
		}
		list.Options = append(list.Options, opt)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating options: %w", err)
	}

	return list, nil
}

// CountByCatalog returns the number of cached options per config key.
func (r *CatalogRepository) CountByCatalog(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT config_key, COUNT(*) FROM catalog_options GROUP BY config_key`)
	if err != nil {
		return nil, fmt.Errorf("counting catalog options: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			key   string
			count int
		)
		if err := rows.Scan(&key, &count); err != nil {
			return nil, fmt.Errorf("scanning count: %w", err)
		}
		counts[key] = count
	}

	return counts, rows.Err()
}
