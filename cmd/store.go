package main

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/canvass/internal/store"
)

// openRepository returns the configured persistence backend, or nil for the
// in-memory driver.
func openRepository(ctx context.Context) (store.Repository, error) {
	switch cfg.Store.Driver {
	case "", "memory":
		return nil, nil
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "canvass.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, nil)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initState opens the repository, applies its schema and loads state. The
// returned close func releases the repository.
func initState(ctx context.Context) (*store.State, func(), error) {
	statuses := cfg.StatusSet()
	repo, err := openRepository(ctx)
	if err != nil {
		return nil, nil, eris.Wrap(err, "open store")
	}
	if repo == nil {
		return store.New(statuses), func() {}, nil
	}

	closeRepo := func() {
		if err := repo.Close(); err != nil {
			zap.L().Warn("close store", zap.Error(err))
		}
	}
	if err := repo.Migrate(ctx); err != nil {
		closeRepo()
		return nil, nil, eris.Wrap(err, "migrate store")
	}
	st, err := store.Open(ctx, statuses, repo)
	if err != nil {
		closeRepo()
		return nil, nil, eris.Wrap(err, "load store")
	}
	return st, closeRepo, nil
}
