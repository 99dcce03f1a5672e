package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/readiness-cli/internal/assessment"
	"github.com/sells-group/readiness-cli/internal/model"
	"github.com/sells-group/readiness-cli/internal/registry"
	"github.com/sells-group/readiness-cli/internal/store"
	"github.com/sells-group/readiness-cli/pkg/notion"
)

// appEnv holds the store, catalog and service used by the assess, export,
// batch and serve commands.
type appEnv struct {
	Store   *store.Observable
	Catalog *model.Catalog
	Service *assessment.Service
}

// Close releases the store.
func (e *appEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initApp opens and migrates the store, loads the catalog and builds the
// assessment service. Callers should defer env.Close().
func initApp(ctx context.Context) (*appEnv, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}

	cat, err := loadCatalog(ctx, "")
	if err != nil {
		return nil, err
	}

	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	obs := store.NewObservable(st)

	zap.L().Debug("app initialised",
		zap.String("store", cfg.Store.Driver),
		zap.String("catalog", cat.Title),
		zap.Int("questions", len(cat.Questions())),
	)

	return &appEnv{
		Store:   obs,
		Catalog: cat,
		Service: assessment.New(obs, cat, cfg),
	}, nil
}

// loadCatalog resolves the questionnaire catalog. A non-empty path overrides
// the configured source.
func loadCatalog(ctx context.Context, path string) (*model.Catalog, error) {
	if path != "" {
		return registry.Load(path)
	}
	if err := cfg.Validate("catalog"); err != nil {
		return nil, err
	}
	switch cfg.Catalog.Source {
	case "file":
		return registry.Load(cfg.Catalog.Path)
	case "notion":
		client := notion.NewClient(cfg.Notion.Token, notion.WithRateLimit(cfg.Notion.RateLimit))
		cat, err := registry.LoadNotionCatalog(ctx, client, cfg.Notion.CatalogDB)
		if err != nil {
			return nil, eris.Wrap(err, "load notion catalog")
		}
		return cat, nil
	default:
		return registry.Default(), nil
	}
}
