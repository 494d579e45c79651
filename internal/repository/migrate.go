package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies every pending migration. An up-to-date schema is not an error.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	m, release, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

// Rollback reverts every applied migration
func Rollback(ctx context.Context, db *sqlx.DB) error {
	m, release, err := newMigrator(ctx, db)
	if err != nil {
		return err
	}
	defer release()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}
	return nil
}

// SchemaVersion reports the applied migration version and whether the last run left it dirty
func SchemaVersion(ctx context.Context, db *sqlx.DB) (uint, bool, error) {
	m, release, err := newMigrator(ctx, db)
	if err != nil {
		return 0, false, err
	}
	defer release()

	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read schema version: %w", err)
	}
	return version, dirty, nil
}

// newMigrator wraps db without taking ownership of it. release frees what the migrator holds
// but leaves db open.
func newMigrator(ctx context.Context, db *sqlx.DB) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load migrations: %w", err)
	}

	var driver database.Driver
	release := func() {}
	switch db.DriverName() {
	case DriverSQLite:
		// closing this driver would close db, so only the source is released
		driver, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
		release = func() { src.Close() }
	case DriverPgx:
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return nil, nil, fmt.Errorf("failed to reserve migration connection: %w", connErr)
		}
		driver, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
		if err != nil {
			conn.Close()
		}
	default:
		return nil, nil, fmt.Errorf("no migration driver for %q", db.DriverName())
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, db.DriverName(), driver)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	if db.DriverName() == DriverPgx {
		release = func() { m.Close() }
	}
	return m, release, nil
}
