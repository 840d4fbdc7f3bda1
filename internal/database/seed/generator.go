package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"

	"github.com/censoparroquial/censo/internal/models"
)

// Store receives the generated option lists.
type Store interface {
	PutOptions(ctx context.Context, configKey, parentValue string, options []models.Option) error
}

// Config configures the demo catalog generator.
type Config struct {
	// PerMunicipio is the number of parishes, sectors and veredas generated
	// for each municipality.
	PerMunicipio int
	RandomSeed   int64
}

// DefaultConfig returns the configuration used by `censo catalog seed`.
func DefaultConfig() Config {
	return Config{
		PerMunicipio: 4,
		RandomSeed:   1830,
	}
}

// Generator writes deterministic demo catalogs.
type Generator struct {
	store  Store
	cfg    Config
	rng    *rand.Rand
	nextID int

	written int
}

// NewGenerator creates a new demo catalog generator.
func NewGenerator(store Store, cfg Config) *Generator {
	if cfg.PerMunicipio <= 0 {
		cfg.PerMunicipio = DefaultConfig().PerMunicipio
	}
	return &Generator{
		store:  store,
		cfg:    cfg,
		rng:    rand.New(rand.NewSource(cfg.RandomSeed)),
		nextID: 100,
	}
}

// Generate writes every top-level catalog and the municipality-scoped
// lists. It returns the number of options written.
func (g *Generator) Generate(ctx context.Context) (int, error) {
	slog.Info("seeding demo catalogs",
		"municipios", len(Municipios),
		"per_municipio", g.cfg.PerMunicipio,
	)

	keys := make([]string, 0, len(fixed))
	for key := range fixed {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if err := g.put(ctx, key, "", numbered(fixed[key], 1)); err != nil {
			return g.written, err
		}
	}

	if err := g.put(ctx, models.CatalogMunicipios, "", numbered(Municipios, 1)); err != nil {
		return g.written, err
	}

	for i := range Municipios {
		parent := strconv.Itoa(i + 1)
		dependent := []struct {
			key  string
			pool []string
			n    int
		}{
			{models.CatalogParroquias, ParroquiaNames, g.cfg.PerMunicipio},
			{models.CatalogSectores, SectorNames, g.cfg.PerMunicipio},
			{models.CatalogVeredas, VeredaNames, g.cfg.PerMunicipio},
			{models.CatalogCorregimientos, CorregimientoNames, 2},
			{models.CatalogCentrosPoblados, CentroPobladoNames, 2},
		}

		for _, d := range dependent {
			if err := g.put(ctx, d.key, parent, g.pick(d.pool, d.n)); err != nil {
				return g.written, err
			}
		}
	}

	slog.Info("demo catalogs seeded", "options", g.written)
	return g.written, nil
}

func (g *Generator) put(ctx context.Context, key, parent string, opts []models.Option) error {
	if err := g.store.PutOptions(ctx, key, parent, opts); err != nil {
		return fmt.Errorf("seeding %s: %w", key, err)
	}
	g.written += len(opts)
	return nil
}

// pick draws n distinct names from pool and assigns them fresh ids.
func (g *Generator) pick(pool []string, n int) []models.Option {
	if n > len(pool) {
		n = len(pool)
	}

	opts := make([]models.Option, 0, n)
	for _, idx := range g.rng.Perm(len(pool))[:n] {
		opts = append(opts, models.Option{Value: strconv.Itoa(g.nextID), Label: pool[idx]})
		g.nextID++
	}

	sort.Slice(opts, func(i, j int) bool { return opts[i].Label < opts[j].Label })
	return opts
}

func numbered(labels []string, first int) []models.Option {
	opts := make([]models.Option, len(labels))
	for i, label := range labels {
		opts[i] = models.Option{Value: strconv.Itoa(first + i), Label: label}
	}
	return opts
}
