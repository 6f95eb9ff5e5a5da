package database

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	pgxv5 "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies pending migrations. With an empty dir the migrations
// compiled into the binary are used, otherwise SQL files are read from dir.
func Migrate(pool *pgxpool.Pool, dir string) error {
	const op = "database.Migrate"

	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()

	driver, err := pgxv5.WithInstance(db, &pgxv5.Config{})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var m *migrate.Migrate
	if dir == "" {
		src, err := iofs.New(migrationsFS, "migrations")
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		m, err = migrate.NewWithInstance("iofs", src, "pgx_v5", driver)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	} else {
		m, err = migrate.NewWithDatabaseInstance("file://"+dir, "pgx_v5", driver)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
