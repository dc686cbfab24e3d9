package cmd

import (
	"fmt"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/iocache"
	"github.com/huangsam/opendxi/internal/outwriter"
	"github.com/huangsam/opendxi/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for store operations.
// This is used by commands that need store access without full shared setup.
func cacheSetup(open bool) error {
	if err := readConfigFile(); err != nil {
		return err
	}

	backend := schema.DatabaseBackend(viper.GetString("store-backend"))
	if _, ok := schema.ValidDatabaseBackends[backend]; !ok {
		return schema.NewValidationError("store-backend", fmt.Sprintf("invalid store backend '%s'", backend))
	}
	connStr := viper.GetString("store-db-connect")

	// Basic validation for database backends
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return schema.NewValidationError("store-db-connect", err.Error())
	}

	cfg.StoreBackend = backend
	cfg.StoreDBConnect = connStr
	cfg.DBTimeout = viper.GetInt("db-timeout")
	cfg.Output = schema.OutputMode(viper.GetString("output"))
	cfg.OutputFile = viper.GetString("output-file")
	cfg.Precision = viper.GetInt("precision")
	cfg.Width = viper.GetInt("width")
	initLogger(viper.GetString("log-level"))

	if !open {
		return nil
	}
	if err := iocache.InitStores(cfg.StoreBackend, cfg.StoreDBConnect, cfg.DBTimeout); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for store commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup(true)
}

// cacheCmd focused on sprint store management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by sprint commands. This avoids GitHub and cadence
// validation for simple store operations.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the sprint store",
	Long: `Manage the store that keeps one scored aggregate per sprint window.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (no persistence)

Subcommands:
  status  - Show store statistics and connection info
  list    - List stored sprint windows
  clear   - Remove all stored sprints
  migrate - Migrate the store schema to a specific version

Examples:
  opendxi cache status
  opendxi cache clear`,
}

// cacheStatusCmd shows store status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display store statistics and connection details",
	Long: `Show the backend, connection state, schema version, number of stored sprints,
their size and the oldest and newest update.

Examples:
  opendxi cache status
  opendxi cache status --output json`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := storeManager.GetSprintStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get store status", err)
		}
		if err := outwriter.WriteStoreStatus(status, cfg); err != nil {
			contract.LogFatal("Failed to print store status", err)
		}
	},
}

// cacheListCmd lists stored sprints.
var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored sprint windows",
	Long: `List every stored sprint window, newest first, with its last update time.
Nothing is fetched.

Examples:
  opendxi cache list --output csv`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		list, err := storeManager.GetSprintStore().List(rootCtx)
		if err != nil {
			contract.LogFatal("Failed to list stored sprints", err)
		}
		if err := outwriter.WriteCachedSprints(list, cfg); err != nil {
			contract.LogFatal("Failed to print stored sprints", err)
		}
	},
}

// cacheClearCmd clears the store.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored sprints",
	Long: `Delete all stored sprints from the configured backend.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the sprints table

Examples:
  # Clear SQLite store (default)
  opendxi cache clear

  # Clear MySQL store (set connection string via env variable)
  OPENDXI_STORE_BACKEND=mysql OPENDXI_STORE_DB_CONNECT="..." opendxi cache clear`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheSetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		dbFile := cfg.StoreDBConnect
		if dbFile == "" {
			dbFile = contract.GetDBFilePath()
		}
		if err := iocache.ClearStore(cfg.StoreBackend, dbFile, cfg.StoreDBConnect); err != nil {
			contract.LogFatal("Failed to clear store", err)
		}
		fmt.Println("Store cleared successfully.")
	},
}

// cacheMigrateCmd migrates the store schema.
var cacheMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Migrate the store schema to a specific version",
	Long: `Apply or roll back the embedded schema migrations.

A negative --target-version migrates to the latest version, 0 rolls back every
migration, and a positive value migrates to exactly that version.

Examples:
  opendxi cache migrate
  opendxi cache migrate --target-version 0`,
	PreRunE: func(_ *cobra.Command, _ []string) error {
		return cacheSetup(false)
	},
	Run: func(_ *cobra.Command, _ []string) {
		target := viper.GetInt("target-version")
		if err := iocache.MigrateStore(cfg.StoreBackend, cfg.StoreDBConnect, cfg.DBTimeout, target); err != nil {
			contract.LogFatal("Failed to migrate store", err)
		}
		fmt.Println("Store migrated successfully.")
	},
}
