package cmd

import (
	"github.com/huangsam/opendxi/core"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/spf13/cobra"
)

// sprintsCmd lists sprint windows.
var sprintsCmd = &cobra.Command{
	Use:   "sprints",
	Short: "List the current and previous sprint windows",
	Long: `List sprint windows newest first and mark the ones already in the store.

Examples:
  opendxi sprints --limit 12`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteListSprints(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot list sprints", err)
		}
	},
}

// historyCmd shows the team trend.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the team DXI trend over recent sprints",
	Long: `Load the last --limit sprints and print the team averages, oldest first.

Sprints missing from the store are fetched and stored.

Examples:
  opendxi history --limit 6
  opendxi history --output csv --output-file team.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSprintHistory(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot load sprint history", err)
		}
	},
}

// developerCmd shows one developer's trend.
var developerCmd = &cobra.Command{
	Use:   "developer",
	Short: "Show one developer's DXI trend against the team",
	Long: `Load the last --limit sprints and print one developer's scores next to the team averages.

Sprints in which the developer had no activity are skipped.

Examples:
  opendxi developer --developer alice --limit 8`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDeveloperHistory(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot load developer history", err)
		}
	},
}

// recalcCmd re-scores stored sprints.
var recalcCmd = &cobra.Command{
	Use:   "recalc",
	Short: "Re-score stored sprints with the current scoring configuration",
	Long: `Recompute every score from the stored raw counters and save the result.

Use this after changing thresholds or weights. Nothing is fetched from GitHub.
With --start and --end only that sprint is recalculated.

Examples:
  opendxi recalc
  opendxi recalc --start 2026-01-07 --end 2026-01-20`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteRecalculate(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot recalculate sprints", err)
		}
	},
}

// exportCmd writes stored sprints to parquet.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored sprints to Parquet",
	Long: `Write every stored sprint as two Parquet files: one row per developer per sprint,
and one row per day per sprint.

Examples:
  # Writes sprints.developers.parquet and sprints.daily.parquet
  opendxi export --output-file sprints`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteExport(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot export sprints", err)
		}
	},
}
