// Package cmd defines the command-line interface for opendxi.
package cmd

import (
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(metricsCmd)
	rootCmd.AddCommand(sprintsCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(developerCmd)
	rootCmd.AddCommand(populateCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(recalcCmd)
	rootCmd.AddCommand(scoringCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheStatusCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().String("github-org", "", "GitHub organization to analyze")
	rootCmd.PersistentFlags().String("github-endpoint", contract.DefaultEndpoint, "GitHub GraphQL endpoint")
	rootCmd.PersistentFlags().Int("max-pages", contract.DefaultMaxPages, "Maximum pages fetched per paginated query")
	rootCmd.PersistentFlags().String("request-timeout", contract.DefaultRequestTimeout.String(), "Timeout of a single GitHub request")
	rootCmd.PersistentFlags().Float64("requests-per-second", 0, "Pace GitHub requests to this rate (0 = unlimited)")
	rootCmd.PersistentFlags().String("sprint-start-date", contract.DefaultSprintStartDate, "First day of sprint 0 (YYYY-MM-DD)")
	rootCmd.PersistentFlags().Int("sprint-duration-days", contract.DefaultSprintDurationDays, "Sprint length in days")
	rootCmd.PersistentFlags().String("store-backend", string(schema.SQLiteBackend), "Store backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("store-db-connect", "", "SQLite path or database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().Int("db-timeout", contract.DefaultDBTimeout, "Database busy/connect timeout in seconds")
	rootCmd.PersistentFlags().String("holiday-region", "", "Mark public holidays as non-working days: US, GB, DE, FR, JP, CA, AU")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of concurrent sprint fetches")
	rootCmd.PersistentFlags().String("start", "", "Sprint start date (YYYY-MM-DD), used with --end")
	rootCmd.PersistentFlags().String("end", "", "Sprint end date (YYYY-MM-DD), used with --start")
	rootCmd.PersistentFlags().Int("sprint", 0, "Sprint relative to the current one (0 = current, -1 = previous)")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultSprintLimit, "Number of sprints to include")
	rootCmd.PersistentFlags().StringP("developer", "d", "", "GitHub login to focus on")
	rootCmd.PersistentFlags().Bool("force", false, "Refetch from GitHub and replace stored sprints")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scheduleCmd to Viper
	scheduleCmd.Flags().String("cron", "0 6 * * *", "Cron expression for the refresh schedule")
	scheduleCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g., :9090)")
	if err := viper.BindPFlags(scheduleCmd.Flags()); err != nil {
		contract.LogFatal("Error binding schedule flags", err)
	}

	// Bind all flags of cacheMigrateCmd to Viper
	cacheMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(cacheMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding cache migrate flags", err)
	}
}
