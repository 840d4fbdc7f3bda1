package survey

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/censoparroquial/censo/internal/models"
)

// ErrCatalogUnavailable is reported when an option set can be neither
// fetched nor served from the local cache.
var ErrCatalogUnavailable = errors.New("catalog options unavailable")

// CatalogFetcher loads option sets from the configuration data source.
type CatalogFetcher interface {
	FetchOptions(ctx context.Context, configKey string) ([]models.Option, error)
	FetchDependent(ctx context.Context, configKey, parentValue string) ([]models.Option, error)
}

// OptionCache persists fetched option sets for offline use. Top-level sets
// are stored with an empty parent value.
type OptionCache interface {
	GetOptions(ctx context.Context, configKey, parentValue string) ([]models.Option, bool, error)
	PutOptions(ctx context.Context, configKey, parentValue string, options []models.Option) error
}

type catalogEntry struct {
	parent  string
	options []models.Option
	loading bool
	err     error
}

// Catalog implements Sources over a fetcher and an optional cache.
// Concurrent loads of the same set share one request, and a dependent
// response is published only while its parent value is still current.
type Catalog struct {
	fetcher CatalogFetcher
	cache   OptionCache
	logger  *slog.Logger
	group   singleflight.Group

	mu      sync.RWMutex
	entries map[string]catalogEntry
	current map[string]string
}

// NewCatalog creates a catalog. Either collaborator may be nil: a nil
// fetcher serves from the cache only.
func NewCatalog(fetcher CatalogFetcher, cache OptionCache) *Catalog {
	return &Catalog{
		fetcher: fetcher,
		cache:   cache,
		logger:  slog.Default().With("component", "catalog"),
		entries: make(map[string]catalogEntry),
		current: make(map[string]string),
	}
}

// Options returns the top-level option set for configKey.
func (c *Catalog) Options(configKey string) OptionSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e := c.entries[configKey]
	return OptionSet{Options: e.options, Loading: e.loading, Err: e.err}
}

// Dependent returns the option set for configKey scoped to parentValue.
// Options loaded for any other parent are never returned.
func (c *Catalog) Dependent(configKey, parentValue string) OptionSet {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[configKey]
	if !ok || e.parent != parentValue {
		return OptionSet{Loading: c.current[configKey] == parentValue}
	}
	return OptionSet{Options: e.options, Loading: e.loading, Err: e.err}
}

// Load fetches a top-level option set.
func (c *Catalog) Load(ctx context.Context, configKey string) error {
	c.mu.Lock()
	e := c.entries[configKey]
	e.loading = true
	c.entries[configKey] = e
	c.mu.Unlock()

	opts, err := c.fetch(ctx, configKey, "")

	c.mu.Lock()
	c.entries[configKey] = catalogEntry{options: opts, err: err}
	c.mu.Unlock()

	return err
}

// LoadDependent fetches configKey for parentValue and marks parentValue as
// the current parent. A response that arrives after the parent changed
// again is dropped.
func (c *Catalog) LoadDependent(ctx context.Context, configKey, parentValue string) error {
	c.mu.Lock()
	c.current[configKey] = parentValue
	if e := c.entries[configKey]; e.parent != parentValue {
		c.entries[configKey] = catalogEntry{parent: parentValue, loading: true}
	}
	c.mu.Unlock()

	opts, err := c.fetch(ctx, configKey, parentValue)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current[configKey] != parentValue {
		c.logger.Debug("dropping superseded options",
			"config_key", configKey, "parent", parentValue, "current", c.current[configKey])
		return nil
	}
	c.entries[configKey] = catalogEntry{parent: parentValue, options: opts, err: err}
	return err
}

// LoadField loads whatever field needs given the current state. Dependent
// fields without a parent selection are skipped.
func (c *Catalog) LoadField(ctx context.Context, field models.FieldDefinition, state models.FormState) error {
	if field.ConfigKey == "" {
		return nil
	}
	if !field.Dependent() {
		return c.Load(ctx, field.ConfigKey)
	}
	parent := ParentKey(state.Get(field.DependsOn))
	if parent == "" {
		return nil
	}
	return c.LoadDependent(ctx, field.ConfigKey, parent)
}

// Prefetch loads several top-level sets and joins their errors.
func (c *Catalog) Prefetch(ctx context.Context, configKeys ...string) error {
	var errs []error
	for _, key := range configKeys {
		if err := c.Load(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
		}
	}
	return errors.Join(errs...)
}

func (c *Catalog) fetch(ctx context.Context, configKey, parentValue string) ([]models.Option, error) {
	v, err, shared := c.group.Do(configKey+"\x00"+parentValue, func() (any, error) {
		return c.fetchUncached(ctx, configKey, parentValue)
	})
	if shared {
		c.logger.Debug("shared in-flight fetch", "config_key", configKey, "parent", parentValue)
	}
	if err != nil {
		return nil, err
	}
	return v.([]models.Option), nil
}

func (c *Catalog) fetchUncached(ctx context.Context, configKey, parentValue string) ([]models.Option, error) {
	if c.fetcher == nil {
		return c.fromCache(ctx, configKey, parentValue, ErrCatalogUnavailable)
	}

	var (
		opts []models.Option
		err  error
	)
	if parentValue == "" {
		opts, err = c.fetcher.FetchOptions(ctx, configKey)
	} else {
		opts, err = c.fetcher.FetchDependent(ctx, configKey, parentValue)
	}
	if err != nil {
		c.logger.Warn("fetching options failed, trying cache",
			"config_key", configKey, "parent", parentValue, "error", err)
		return c.fromCache(ctx, configKey, parentValue, err)
	}

	if c.cache != nil {
		if perr := c.cache.PutOptions(ctx, configKey, parentValue, opts); perr != nil {
			c.logger.Warn("caching options failed", "config_key", configKey, "error", perr)
		}
	}
	return opts, nil
}

func (c *Catalog) fromCache(ctx context.Context, configKey, parentValue string, cause error) ([]models.Option, error) {
	if c.cache == nil {
		return nil, fmt.Errorf("loading %s: %w", configKey, cause)
	}
	opts, ok, err := c.cache.GetOptions(ctx, configKey, parentValue)
	if err != nil {
		return nil, fmt.Errorf("reading cached %s: %w", configKey, errors.Join(err, cause))
	}
	if !ok {
		return nil, fmt.Errorf("loading %s: %w", configKey, cause)
	}
	return opts, nil
}
