package migrate

import (
	"context"
	"embed"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/jackc/pgx/v5"

	"github.com/example/tablebook/internal/db"
)

//go:embed *.sql
var fs embed.FS

// Files returns the embedded migrations in apply order.
func Files() ([]string, error) {
	entries, err := fs.ReadDir(".")
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if strings.HasSuffix(e.Name(), ".sql") {
			files = append(files, e.Name())
		}
	}
	sort.Strings(files)
	return files, nil
}

func Up(ctx context.Context, d *db.DB) error {
	files, err := Files()
	if err != nil {
		return err
	}

	if err := d.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (version TEXT PRIMARY KEY, applied_at TIMESTAMPTZ NOT NULL DEFAULT now());`); err != nil {
		return errors.Wrap(err, "create schema_migrations")
	}

	for _, f := range files {
		var applied bool
		if err := d.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version=$1)`, f).Scan(&applied); err != nil {
			return errors.Wrapf(err, "check %s", f)
		}
		if applied {
			continue
		}

		b, err := fs.ReadFile(f)
		if err != nil {
			return err
		}

		err = d.InTx(ctx, func(tx pgx.Tx) error {
			if _, err := tx.Exec(ctx, string(b)); err != nil {
				return err
			}
			_, err := tx.Exec(ctx, `INSERT INTO schema_migrations(version) VALUES ($1)`, f)
			return err
		})
		if err != nil {
			return errors.Wrapf(err, "apply %s", f)
		}
	}

	return nil
}
