package database

import (
	"context"
	"embed"
	"path"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Migrate applies pending migrations in file name order, each in its own
// transaction.
func (d *DB) Migrate(ctx context.Context) error {
	entries, err := migrations.ReadDir("migrations")
	if err != nil {
		return errors.Wrap(err, "read migrations")
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)

	applied := 0
	for _, filename := range files {
		version := strings.SplitN(filename, "_", 2)[0]

		err := d.InTransaction(ctx, func(ctx context.Context) error {
			exec := d.Conn(ctx)

			if version != "000" {
				var exists bool
				err := exec.QueryRowContext(ctx,
					"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = ?)", version,
				).Scan(&exists)
				if err != nil {
					return errors.Wrapf(err, "check %s", filename)
				}
				if exists {
					d.log.Debugw("skipping migration", "migration", filename, "version", version)
					return nil
				}
			}

			sqlBytes, err := migrations.ReadFile(path.Join("migrations", filename))
			if err != nil {
				return errors.Wrapf(err, "read %s", filename)
			}

			d.log.Infow("applying migration", "migration", filename, "version", version)
			if _, err := exec.ExecContext(ctx, string(sqlBytes)); err != nil {
				return errors.Wrapf(err, "execute %s", filename)
			}
			if _, err := exec.ExecContext(ctx,
				"INSERT OR IGNORE INTO schema_migrations (version) VALUES (?)", version,
			); err != nil {
				return errors.Wrapf(err, "record %s", filename)
			}
			applied++
			return nil
		})
		if err != nil {
			return err
		}
	}

	d.log.Infow("migrations complete", "total_migrations", len(files), "applied", applied)
	return nil
}
