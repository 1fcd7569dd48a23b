package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/dashboard-engine/internal/catalog"
)

// seedTarget is a database catalog source that can be migrated and seeded.
type seedTarget interface {
	catalog.Source
	Migrate(ctx context.Context) error
	Seed(ctx context.Context, entries []catalog.RawEntry) (int, error)
}

// openCatalogSource opens the source named by cfg.Catalog.Source. The
// returned func releases it.
func openCatalogSource(ctx context.Context) (catalog.Source, func(), error) {
	switch cfg.Catalog.Source {
	case "", "embedded":
		return catalog.Embedded(), func() {}, nil
	case "dir":
		return catalog.Dir(cfg.Catalog.Dir), func() {}, nil
	case "sqlite", "postgres":
		st, closeFn, err := openCatalogDB(ctx)
		if err != nil {
			return nil, nil, err
		}
		return st, closeFn, nil
	default:
		return nil, nil, eris.Errorf("unsupported catalog source: %s", cfg.Catalog.Source)
	}
}

// openCatalogDB opens the database named by cfg.Catalog.Source.
func openCatalogDB(ctx context.Context) (seedTarget, func(), error) {
	switch cfg.Catalog.Source {
	case "sqlite":
		st, err := catalog.NewSQLite(cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return st, func() { _ = st.Close() }, nil
	case "postgres":
		st, err := catalog.NewPostgres(ctx, cfg.Catalog.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return st, st.Close, nil
	default:
		return nil, nil, eris.Errorf("catalog source %s is not a database", cfg.Catalog.Source)
	}
}

// loadCatalog opens the configured source and loads it. Consistency
// problems are logged but do not prevent startup.
func loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	src, closeFn, err := openCatalogSource(ctx)
	if err != nil {
		return nil, err
	}
	defer closeFn()

	c, err := catalog.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, p := range catalog.Validate(c) {
		zap.L().Warn("catalog problem", zap.String("problem", p.String()))
	}
	return c, nil
}
