package repository

import (
	"context"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// database/sql driver names understood by Open
const (
	DriverSQLite = "sqlite3"
	DriverPgx    = "pgx"
)

// Open connects to a SQL database and applies the schema.
func Open(ctx context.Context, driverName, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := Connect(ctx, driverName, dsn, maxOpenConns)
	if err != nil {
		return nil, err
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Connect opens a connection pool without touching the schema.
// SQLite gets a single connection since it doesn't support multiple writers.
func Connect(ctx context.Context, driverName, dsn string, maxOpenConns int) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if driverName == DriverSQLite {
		maxOpenConns = 1
	}
	if maxOpenConns > 0 {
		db.SetMaxOpenConns(maxOpenConns)
		db.SetMaxIdleConns(maxOpenConns)
	}
	return db, nil
}
