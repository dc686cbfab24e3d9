// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteSprintMetrics prints the metrics of one sprint using the configured output format.
func (ow *OutWriter) WriteSprintMetrics(rec *schema.SprintRecord, cfg *contract.Config, duration time.Duration) error {
	return WriteSprintMetrics(rec, cfg, duration)
}

// WriteSprints prints the selectable sprint windows.
func (ow *OutWriter) WriteSprints(sprints []schema.Sprint, cached map[string]bool, cfg *contract.Config) error {
	return WriteSprints(sprints, cached, cfg)
}

// WriteSprintHistory prints the team series across sprints.
func (ow *OutWriter) WriteSprintHistory(entries []schema.SprintHistoryEntry, cfg *contract.Config) error {
	return WriteSprintHistory(entries, cfg)
}

// WriteDeveloperHistory prints a developer series next to the team series.
func (ow *OutWriter) WriteDeveloperHistory(h schema.DeveloperHistory, cfg *contract.Config) error {
	return WriteDeveloperHistory(h, cfg)
}

// WritePopulateReport prints the outcome of a batch refresh.
func (ow *OutWriter) WritePopulateReport(report schema.PopulateReport, cfg *contract.Config) error {
	return WritePopulateReport(report, cfg)
}

// WriteStoreStatus prints store status information.
func (ow *OutWriter) WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	return WriteStoreStatus(status, cfg)
}

// WriteCachedSprints prints the stored sprint windows.
func (ow *OutWriter) WriteCachedSprints(list []schema.CachedSprint, cfg *contract.Config) error {
	return WriteCachedSprints(list, cfg)
}

// WriteScoringDefinitions prints the active thresholds and weights.
func (ow *OutWriter) WriteScoringDefinitions(cfg *contract.Config) error {
	return WriteScoringDefinitions(cfg)
}

// getMaxNameWidth calculates the maximum width for developer names in table output
// based on terminal width and table configuration.
func getMaxNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank, DXI, label, five dimension scores and activity counters with borders/padding
	const baseWidth = 110

	available := termWidth - baseWidth
	if available < 12 {
		return 12
	}
	if available > 40 {
		return 40
	}
	return available
}
