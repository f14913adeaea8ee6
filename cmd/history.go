package cmd

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"

	"github.com/example/tablebook/internal/config"
	"github.com/example/tablebook/internal/db"
	"github.com/example/tablebook/internal/migrate"
	"github.com/example/tablebook/internal/runs"
)

var errNoDatabase = errors.New("DATABASE_URL is not set")

// openHistory connects to the run history database and brings its schema up
// to date. The returned func closes the pool.
func openHistory(ctx context.Context, cfg config.Config, log *slog.Logger) (*runs.Repo, func(), error) {
	if cfg.DatabaseURL == "" {
		return nil, func() {}, errNoDatabase
	}
	d, err := db.Open(ctx, cfg.DatabaseURL, db.WithMaxConns(cfg.DatabaseConns))
	if err != nil {
		return nil, func() {}, err
	}
	if err := d.Ping(ctx); err != nil {
		d.Close()
		return nil, func() {}, err
	}
	if err := migrate.Up(ctx, d); err != nil {
		d.Close()
		return nil, func() {}, err
	}
	log.Debug("run history enabled")
	return runs.NewRepo(d), d.Close, nil
}
