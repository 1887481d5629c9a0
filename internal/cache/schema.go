package cache

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrCacheInit is returned when the cache file cannot be prepared.
var ErrCacheInit = errors.New("can't init RSS cache db")

// InitSchema brings the cache file up to the latest schema version. It is
// safe to call on every start.
func (s *Store) InitSchema(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheInit, err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create cache directory: %w", ErrCacheInit, err)
		}
	}

	d, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheInit, err)
	}

	db, err := open(s.path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheInit, err)
	}
	defer db.Close()

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheInit, err)
	}
	m, err := migrate.NewWithInstance("iofs", d, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCacheInit, err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%w: migrate: %w", ErrCacheInit, err)
	}
	return nil
}
