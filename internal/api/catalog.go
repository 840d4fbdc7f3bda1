package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/censoparroquial/censo/internal/models"
)

// catalogItem is a backend catalog entry. Ids arrive as numbers or strings.
type catalogItem struct {
	ID     json.RawMessage `json:"id"`
	Nombre string          `json:"nombre"`
}

func (it catalogItem) option() (models.Option, bool) {
	raw := strings.TrimSpace(string(it.ID))
	if raw == "" || raw == "null" {
		return models.Option{}, false
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(it.ID, &s); err != nil {
			return models.Option{}, false
		}
		raw = s
	}
	return models.Option{Value: raw, Label: it.Nombre}, true
}

// CatalogFetcher loads option lists from /catalogos.
type CatalogFetcher struct {
	client *Client
}

// NewCatalogFetcher creates a fetcher backed by c.
func NewCatalogFetcher(c *Client) *CatalogFetcher {
	return &CatalogFetcher{client: c}
}

// FetchOptions returns the top-level catalog named configKey.
func (f *CatalogFetcher) FetchOptions(ctx context.Context, configKey string) ([]models.Option, error) {
	return f.fetch(ctx, "catalogos/"+url.PathEscape(configKey))
}

// FetchDependent returns the catalog named configKey scoped to parentValue.
func (f *CatalogFetcher) FetchDependent(ctx context.Context, configKey, parentValue string) ([]models.Option, error) {
	return f.fetch(ctx, "catalogos/"+url.PathEscape(configKey)+"/"+url.PathEscape(parentValue))
}

func (f *CatalogFetcher) fetch(ctx context.Context, path string) ([]models.Option, error) {
	var raw json.RawMessage
	if err := f.client.do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}

	var items []catalogItem
	if err := json.Unmarshal(unwrapData(raw), &items); err != nil {
		return nil, fmt.Errorf("decoding catalog %s: %w", path, err)
	}

	opts := make([]models.Option, 0, len(items))
	for _, it := range items {
		if opt, ok := it.option(); ok {
			opts = append(opts, opt)
		}
	}
	return opts, nil
}
