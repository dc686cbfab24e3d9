package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/parquet"
	"github.com/huangsam/opendxi/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSprintMetrics outputs one sprint, dispatching based on the output format configured.
// Developers are printed in the order given.
func WriteSprintMetrics(rec *schema.SprintRecord, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSprintJSON(w, rec)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSprintCSV(w, rec, fmtFloat, intFmt)
		}, "Wrote CSV")
	case schema.ParquetOut:
		devs, days, err := parquet.Export([]*schema.SprintRecord{rec}, cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
		devPath, dailyPath := parquet.ExportPaths(cfg.OutputFile)
		fmt.Printf("💾 Wrote %d developer rows to %s and %d daily rows to %s\n", devs, devPath, days, dailyPath)
		return nil
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeSprintTable(w, rec, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
}

// sprintJSON is the JSON shape of a sprint: the stored payload plus its window.
type sprintJSON struct {
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	UpdatedAt time.Time `json:"updated_at"`
	schema.SprintAggregate
}

func writeSprintJSON(w io.Writer, rec *schema.SprintRecord) error {
	return writeJSON(w, sprintJSON{
		StartDate:       rec.Range.StartKey(),
		EndDate:         rec.Range.EndKey(),
		UpdatedAt:       rec.UpdatedAt,
		SprintAggregate: rec.Payload,
	})
}

func writeSprintCSV(w io.Writer, rec *schema.SprintRecord, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"rank", "developer", "dxi_score", "label",
		"review_speed", "cycle_time", "pr_size", "review_coverage", "commit_frequency",
		"commits", "prs_opened", "prs_merged", "reviews_given", "lines_added", "lines_deleted",
		"avg_review_time_hours", "avg_cycle_time_hours", "start_date", "end_date",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for i, d := range rec.Payload.Developers {
			row := []string{
				strconv.Itoa(i + 1),
				d.Developer,
				fmtFloat(d.DXIScore),
				contract.GetPlainLabel(d.DXIScore),
			}
			for _, k := range schema.AllDimensions {
				row = append(row, fmtFloat(d.DimensionScores.Get(k)))
			}
			row = append(row,
				fmt.Sprintf(intFmt, d.Commits),
				fmt.Sprintf(intFmt, d.PRsOpened),
				fmt.Sprintf(intFmt, d.PRsMerged),
				fmt.Sprintf(intFmt, d.ReviewsGiven),
				fmt.Sprintf(intFmt, d.LinesAdded),
				fmt.Sprintf(intFmt, d.LinesDeleted),
				csvHours(d.AvgReviewTimeHours, fmtFloat),
				csvHours(d.AvgCycleTimeHours, fmtFloat),
				rec.Range.StartKey(),
				rec.Range.EndKey(),
			)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeSprintTable(w io.Writer, rec *schema.SprintRecord, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Rank", "Developer", "DXI", "Label", "Commits", "PRs", "Merged", "Reviews", "Lines", "Review Time", "Cycle Time"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	nameWidth := getMaxNameWidth(cfg)
	var data [][]string
	for i, d := range rec.Payload.Developers {
		data = append(data, []string{
			strconv.Itoa(i + 1),
			contract.TruncateText(schema.DisplayName(d.Developer), nameWidth),
			fmtFloat(d.DXIScore),
			scoreLabel(cfg, d.DXIScore),
			fmt.Sprintf(intFmt, d.Commits),
			fmt.Sprintf(intFmt, d.PRsOpened),
			fmt.Sprintf(intFmt, d.PRsMerged),
			fmt.Sprintf(intFmt, d.ReviewsGiven),
			fmt.Sprintf("+%d/-%d", d.LinesAdded, d.LinesDeleted),
			formatHours(d.AvgReviewTimeHours, fmtFloat),
			formatHours(d.AvgCycleTimeHours, fmtFloat),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	s := rec.Payload.Summary
	if _, err := fmt.Fprintf(w, "Sprint %s to %s: %d developers, %d commits, %d PRs (%d merged), %d reviews over %d working days\n",
		rec.Range.StartKey(), rec.Range.EndKey(), s.DeveloperCount, s.TotalCommits, s.TotalPRs, s.TotalMerged, s.TotalReviews, s.WorkingDays); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Team DXI: %s (%s) | %s\n",
		fmtFloat(s.AvgDXIScore), scoreLabel(cfg, s.AvgDXIScore), formatDimensions(rec.Payload.TeamDimensionScores, fmtFloat)); err != nil {
		return err
	}
	updated := "never"
	if !rec.UpdatedAt.IsZero() {
		updated = rec.UpdatedAt.Local().Format(time.DateTime)
	}
	_, err := fmt.Fprintf(w, "Loaded in %v. Store backend: %s. Last updated: %s\n", duration.Round(time.Millisecond), cfg.StoreBackend, updated)
	return err
}

// formatDimensions renders dimension scores as "review_speed 92.0, cycle_time 81.3, ...".
func formatDimensions(d schema.DimensionScores, fmtFloat func(float64) string) string {
	parts := make([]string, 0, len(schema.AllDimensions))
	for _, k := range schema.AllDimensions {
		parts = append(parts, fmt.Sprintf("%s %s", k, fmtFloat(d.Get(k))))
	}
	return strings.Join(parts, ", ")
}
