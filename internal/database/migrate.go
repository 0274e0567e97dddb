package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratedb "github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	"github.com/keyxmakerx/tasktags/db"
	"github.com/keyxmakerx/tasktags/internal/config"
)

// RunMigrations applies all pending migrations for the connection's dialect
// from the embedded db/migrations/<driver> directory. Uses golang-migrate to
// track which migrations have already been applied, so it is safe to call on
// every startup.
func RunMigrations(conn *sqlx.DB) error {
	driverName := conn.DriverName()

	source, err := iofs.New(db.Migrations, "migrations/"+driverName)
	if err != nil {
		return fmt.Errorf("opening embedded migrations: %w", err)
	}

	var driver migratedb.Driver
	switch driverName {
	case config.DriverMySQL:
		driver, err = migratemysql.WithInstance(conn.DB, &migratemysql.Config{})
	case config.DriverSQLite:
		driver, err = migratesqlite.WithInstance(conn.DB, &migratesqlite.Config{})
	default:
		return fmt.Errorf("no migrations for driver %q", driverName)
	}
	if err != nil {
		return fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, driverName, driver)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, dirty, _ := m.Version()
	slog.Info("migrations applied",
		slog.String("driver", driverName),
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty),
	)

	return nil
}
