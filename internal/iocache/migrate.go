package iocache

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/schema"
)

// migrationsTable is the bookkeeping table golang-migrate maintains.
const migrationsTable = "schema_migrations"

//go:embed migrations
var migrationsFS embed.FS

// migrationDirs maps each SQL backend to its migration directory.
var migrationDirs = map[schema.DatabaseBackend]string{
	schema.SQLiteBackend:     "migrations/sqlite",
	schema.MySQLBackend:      "migrations/mysql",
	schema.PostgreSQLBackend: "migrations/postgres",
}

// MigrateStore runs the sprint store migrations.
// - If targetVersion < 0, it migrates to the latest version.
// - If targetVersion == 0, it rolls back all migrations.
// - If targetVersion > 0, it migrates to the specified version.
func MigrateStore(backend schema.DatabaseBackend, connStr string, dbTimeoutSeconds, targetVersion int) error {
	switch backend {
	case schema.SQLiteBackend:
		if connStr == "" {
			connStr = contract.GetDBFilePath()
		}
		if dbTimeoutSeconds <= 0 {
			dbTimeoutSeconds = contract.DefaultDBTimeout
		}
		return runMigrations(backend, "sqlite", sqliteDSN(connStr, dbTimeoutSeconds), targetVersion)
	case schema.MySQLBackend:
		return runMigrations(backend, "mysql", connStr, targetVersion)
	case schema.PostgreSQLBackend:
		return runMigrations(backend, "pgx", connStr, targetVersion)
	case schema.NoneBackend:
		return fmt.Errorf("migrations are not supported for the %s backend", backend)
	default:
		return fmt.Errorf("unsupported backend: %s", backend)
	}
}

// runMigrations opens a dedicated connection, migrates it and closes it again.
func runMigrations(backend schema.DatabaseBackend, driverName, dsn string, targetVersion int) error {
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return fmt.Errorf("failed to open %s database: %w", backend, err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping %s database: %w", backend, err)
	}

	var driver database.Driver
	switch backend {
	case schema.SQLiteBackend:
		driver, err = migratesqlite.WithInstance(db, &migratesqlite.Config{MigrationsTable: migrationsTable})
	case schema.MySQLBackend:
		driver, err = migratemysql.WithInstance(db, &migratemysql.Config{MigrationsTable: migrationsTable})
	case schema.PostgreSQLBackend:
		driver, err = migratepgx.WithInstance(db, &migratepgx.Config{MigrationsTable: migrationsTable})
	default:
		err = fmt.Errorf("unsupported backend: %s", backend)
	}
	if err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to create %s migrate driver: %w", backend, err)
	}

	sub, err := fs.Sub(migrationsFS, migrationDirs[backend])
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to access migrations directory: %w", err)
	}
	source, err := iofs.New(sub, ".")
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, string(backend), driver)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}
	if dirty {
		return fmt.Errorf("database is in a dirty state at version %d; fix it manually or force a version", current)
	}

	switch {
	case targetVersion < 0:
		err = m.Up()
	case targetVersion == 0:
		err = m.Down()
	default:
		err = m.Migrate(uint(targetVersion))
	}
	if errors.Is(err, migrate.ErrNoChange) {
		logger.Debug().Str("backend", string(backend)).Uint("version", current).Msg("No migration needed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to migrate %s store: %w", backend, err)
	}

	next, _, _ := m.Version()
	logger.Info().Str("backend", string(backend)).Uint("from", current).Uint("to", next).Msg("Migrated sprint store")
	return nil
}
