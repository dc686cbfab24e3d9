package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/olekukonko/tablewriter"
)

// WriteStoreStatus outputs the health and contents summary of the sprint store.
func WriteStoreStatus(status schema.StoreStatus, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, status)
		}, "Wrote JSON")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeStoreStatusText(w, status)
		}, "Wrote text")
	}
}

func writeStoreStatusText(w io.Writer, status schema.StoreStatus) error {
	var sb strings.Builder
	sb.WriteString("=== Sprint Store Status ===\n")
	fmt.Fprintf(&sb, "Backend: %s\n", status.Backend)
	fmt.Fprintf(&sb, "Connected: %v\n", status.Connected)
	if status.Connected {
		fmt.Fprintf(&sb, "Schema version: %d\n", status.SchemaVersion)
		fmt.Fprintf(&sb, "Sprints stored: %d\n", status.EntryCount)
		fmt.Fprintf(&sb, "Size: %s\n", formatBytes(status.TotalBytes))
		if status.EntryCount > 0 {
			fmt.Fprintf(&sb, "Oldest update: %s\n", status.OldestUpdate.Format(time.RFC3339))
			fmt.Fprintf(&sb, "Newest update: %s\n", status.NewestUpdate.Format(time.RFC3339))
		}
		if len(status.PayloadVersions) > 0 {
			versions := make([]string, len(status.PayloadVersions))
			for i, v := range status.PayloadVersions {
				versions[i] = strconv.Itoa(v)
			}
			fmt.Fprintf(&sb, "Payload versions: %s\n", strings.Join(versions, ", "))
		}
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

// formatBytes renders a byte count with a binary unit suffix.
func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// WriteCachedSprints outputs the stored windows, newest first.
func WriteCachedSprints(list []schema.CachedSprint, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, map[string]any{"cached": cachedJSON(list)})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"start_date", "end_date", "updated_at"}, func(cw *csv.Writer) error {
				for _, c := range list {
					if err := cw.Write([]string{c.Range.StartKey(), c.Range.EndKey(), c.UpdatedAt.Format(time.RFC3339)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Start", "End", "Updated"})
			var data [][]string
			for _, c := range list {
				data = append(data, []string{c.Range.StartKey(), c.Range.EndKey(), c.UpdatedAt.Format(time.DateTime)})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			if err := table.Render(); err != nil {
				return err
			}
			_, err := fmt.Fprintf(w, "%d sprints stored\n", len(list))
			return err
		}, "Wrote table")
	}
}

type cachedSprintJSON struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	UpdatedAt time.Time `json:"updated_at"`
}

func cachedJSON(list []schema.CachedSprint) []cachedSprintJSON {
	out := make([]cachedSprintJSON, len(list))
	for i, c := range list {
		out[i] = cachedSprintJSON{StartDate: c.Range.StartKey(), EndDate: c.Range.EndKey(), UpdatedAt: c.UpdatedAt}
	}
	return out
}

// WritePopulateReport outputs the per-sprint outcome of a batch refresh.
func WritePopulateReport(report schema.PopulateReport, cfg *contract.Config) error {
	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"run_id", "start_date", "end_date", "outcome", "duration_ms", "error"}, func(cw *csv.Writer) error {
				for _, r := range report.Results {
					row := []string{
						report.RunID, r.Range.StartKey(), r.Range.EndKey(), string(r.Outcome),
						strconv.FormatInt(r.Duration.Milliseconds(), 10), r.Error,
					}
					if err := cw.Write(row); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePopulateTable(w, report, cfg)
		}, "Wrote table")
	}
}

func writePopulateTable(w io.Writer, report schema.PopulateReport, cfg *contract.Config) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Sprint", "Outcome", "Duration", "Error"})
	var data [][]string
	for _, r := range report.Results {
		outcome := string(r.Outcome)
		if cfg.UseColors && r.Outcome == schema.OutcomeFailed {
			outcome = contract.AttentionColor.Sprint(outcome)
		}
		duration := "-"
		if r.Duration > 0 {
			duration = r.Duration.Round(time.Millisecond).String()
		}
		data = append(data, []string{r.Range.String(), outcome, duration, contract.TruncateText(r.Error, 60)})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Run %s: %d sprints, %d failed in %v\n",
		report.RunID, len(report.Results), report.Failed(), report.Duration.Round(time.Millisecond))
	return err
}
