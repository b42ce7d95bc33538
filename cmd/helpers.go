package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/urbanheat/uhi-cli/internal/store"
	"github.com/urbanheat/uhi-cli/internal/weights"
)

// initStore opens the run database and applies migrations.
func initStore(ctx context.Context) (*store.SQLiteStore, error) {
	st, err := store.NewSQLite(cfg.Store.Path)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// weightsFromConfig maps the configured weights section onto a builder config.
func weightsFromConfig() weights.Config {
	return weights.Config{
		Policy: cfg.Weights.Policy,
		K:      cfg.Weights.K,
		BandKM: cfg.Weights.BandKM,
		Scheme: cfg.Weights.Scheme,
	}
}
