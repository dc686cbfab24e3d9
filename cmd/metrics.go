package cmd

import (
	"github.com/huangsam/opendxi/core"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/spf13/cobra"
)

// metricsCmd shows the DXI metrics of one sprint.
var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Show ranked developer DXI scores for one sprint",
	Long: `Load one sprint from the store, or fetch it from GitHub on a miss, and rank its developers.

Each developer gets five dimension scores (review speed, cycle time, PR size,
review coverage, commit frequency) and a weighted DXI composite in [0, 100].

The sprint is chosen by --sprint relative to the current one, or explicitly
with --start and --end.

Examples:
  # Current sprint
  opendxi metrics --github-org acme

  # Previous sprint as JSON
  opendxi metrics --sprint -1 --output json

  # One developer in an explicit window, refetched
  opendxi metrics --start 2026-01-07 --end 2026-01-20 --developer alice --force`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteSprintMetrics(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot load sprint metrics", err)
		}
	},
}

// scoringCmd displays the scoring definitions.
var scoringCmd = &cobra.Command{
	Use:   "scoring",
	Short: "Display the DXI formula, thresholds and weights",
	Long: `Show how each dimension is normalized and how the composite is weighted.

Custom thresholds and weights from the scoring section of .opendxi.yaml are
shown as they will be applied. Nothing is fetched.

Examples:
  opendxi scoring
  opendxi scoring --config .opendxi.yaml --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteScoringDefinitions(rootCtx, cfg, storeManager); err != nil {
			contract.LogFatal("Cannot display scoring", err)
		}
	},
}
