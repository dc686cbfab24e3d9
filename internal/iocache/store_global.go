package iocache

import (
	"database/sql"
	"fmt"
	"os"
	"sync"

	"github.com/huangsam/opendxi/schema"
)

// Global Manager instance for main logic.
var (
	Manager   = &SprintStoreManager{}
	initOnce  sync.Once
	closeOnce sync.Once
)

// InitStores initializes the global manager with the sprint store.
func InitStores(backend schema.DatabaseBackend, connStr string, dbTimeoutSeconds int) error {
	var initErr error

	initOnce.Do(func() {
		store, err := NewSprintStore(backend, connStr, dbTimeoutSeconds)
		if err != nil {
			initErr = fmt.Errorf("failed to initialize sprint store: %w", err)
			return
		}
		Manager.Lock()
		defer Manager.Unlock()
		Manager.sprints = store
	})

	return initErr
}

// CloseStores should be called on application shutdown.
func CloseStores() { // called in main defer
	closeOnce.Do(func() {
		Manager.Lock()
		defer Manager.Unlock()
		if Manager.sprints != nil {
			_ = Manager.sprints.Close()
		}
	})
}

// ClearStore removes all stored sprints.
// For SQLite, it deletes the database file and its WAL companions.
// For MySQL and PostgreSQL, it drops the tables.
// For the none backend, it does nothing.
func ClearStore(backend schema.DatabaseBackend, dbFilePath, connStr string) error {
	switch backend {
	case schema.SQLiteBackend:
		if dbFilePath == "" {
			return fmt.Errorf("dbFilePath cannot be empty for SQLite backend")
		}
		for _, path := range []string{dbFilePath, dbFilePath + "-wal", dbFilePath + "-shm"} {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove SQLite database file %s: %w", path, err)
			}
		}
		return nil

	case schema.MySQLBackend:
		return dropSQLTables("mysql", connStr, sprintsTable, migrationsTable)

	case schema.PostgreSQLBackend:
		return dropSQLTables("pgx", connStr, sprintsTable, migrationsTable)

	case schema.NoneBackend:
		return nil

	default:
		return fmt.Errorf("unsupported store backend for clearing: %s", backend)
	}
}

// dropSQLTables connects to the SQL database and drops the tables if they exist.
func dropSQLTables(driverName, connStr string, tables ...string) error {
	db, err := sql.Open(driverName, connStr)
	if err != nil {
		return fmt.Errorf("failed to connect to %s database: %w", driverName, err)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to ping %s database: %w", driverName, err)
	}

	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS %s", table)); err != nil {
			return fmt.Errorf("failed to drop table %s: %w", table, err)
		}
	}
	return nil
}
