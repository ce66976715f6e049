package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

//go:embed migrations/sqlite/*.sql migrations/mysql/*.sql
var migrations embed.FS

func newMigrator(db *sqlx.DB) (*migrate.Migrate, error) {
	var (
		drv  database.Driver
		name string
		err  error
	)
	switch db.DriverName() {
	case DriverSQLite:
		name = DriverSQLite
		drv, err = sqlite.WithInstance(db.DB, &sqlite.Config{})
	case DriverMySQL:
		name = DriverMySQL
		drv, err = mysql.WithInstance(db.DB, &mysql.Config{})
	default:
		return nil, fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	src, err := iofs.New(migrations, "migrations/"+name)
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, name, drv)
	if err != nil {
		return nil, fmt.Errorf("migration init: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. An up-to-date schema is not an error.
// The migrator is not closed since that would close db.
func MigrateUp(db *sqlx.DB, log *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Debug("no migrations to apply")
			return nil
		}
		return fmt.Errorf("migration up: %w", err)
	}
	v, _, _ := m.Version()
	log.Info("migrations applied", zap.Uint("version", v))
	return nil
}

// MigrateDown rolls back n migrations, or all of them when n <= 0.
func MigrateDown(db *sqlx.DB, n int, log *zap.Logger) error {
	m, err := newMigrator(db)
	if err != nil {
		return err
	}
	if n > 0 {
		err = m.Steps(-n)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down: %w", err)
	}
	log.Info("migrations rolled back", zap.Int("steps", n))
	return nil
}
