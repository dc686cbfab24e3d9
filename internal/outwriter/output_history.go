package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteSprintHistory outputs the team series, oldest sprint first.
func WriteSprintHistory(entries []schema.SprintHistoryEntry, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, map[string]any{"sprints": entries})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryCSV(w, entries, fmtFloat, intFmt)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeHistoryTable(w, entries, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
}

func writeHistoryCSV(w io.Writer, entries []schema.SprintHistoryEntry, fmtFloat func(float64) string, intFmt string) error {
	header := []string{"sprint", "start_date", "end_date", "avg_dxi_score"}
	for _, k := range schema.AllDimensions {
		header = append(header, string(k))
	}
	header = append(header, "developer_count", "total_commits", "total_prs")

	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range entries {
			row := []string{e.SprintLabel, e.StartDate, e.EndDate, fmtFloat(e.AvgDXIScore)}
			for _, k := range schema.AllDimensions {
				row = append(row, fmtFloat(e.DimensionScores.Get(k)))
			}
			row = append(row,
				fmt.Sprintf(intFmt, e.DeveloperCount),
				fmt.Sprintf(intFmt, e.TotalCommits),
				fmt.Sprintf(intFmt, e.TotalPRs),
			)
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeHistoryTable(w io.Writer, entries []schema.SprintHistoryEntry, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Sprint", "DXI", "Label", "Review", "Cycle", "PR Size", "Coverage", "Commit Freq", "Devs", "Commits", "PRs"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	for _, e := range entries {
		row := []string{e.SprintLabel, fmtFloat(e.AvgDXIScore), scoreLabel(cfg, e.AvgDXIScore)}
		for _, k := range schema.AllDimensions {
			row = append(row, fmtFloat(e.DimensionScores.Get(k)))
		}
		row = append(row,
			fmt.Sprintf(intFmt, e.DeveloperCount),
			fmt.Sprintf(intFmt, e.TotalCommits),
			fmt.Sprintf(intFmt, e.TotalPRs),
		)
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Showing %d sprints, oldest first\n", len(entries))
	return err
}

// WriteDeveloperHistory outputs a developer's series alongside the team averages.
func WriteDeveloperHistory(h schema.DeveloperHistory, cfg *contract.Config) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, h)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDeveloperHistoryCSV(w, h, fmtFloat, intFmt)
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDeveloperHistoryTable(w, h, cfg, fmtFloat, intFmt)
		}, "Wrote table")
	}
}

func writeDeveloperHistoryCSV(w io.Writer, h schema.DeveloperHistory, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"developer", "sprint", "start_date", "end_date", "dxi_score", "team_dxi_score",
		"commits", "prs_opened", "prs_merged", "reviews_given", "lines_added", "lines_deleted",
		"avg_review_time_hours", "avg_cycle_time_hours",
	}
	team := teamByStart(h.TeamHistory)
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, e := range h.Sprints {
			teamScore := ""
			if t, ok := team[e.StartDate]; ok {
				teamScore = fmtFloat(t.AvgDXIScore)
			}
			row := []string{
				h.Developer, e.SprintLabel, e.StartDate, e.EndDate, fmtFloat(e.DXIScore), teamScore,
				fmt.Sprintf(intFmt, e.Commits),
				fmt.Sprintf(intFmt, e.PRsOpened),
				fmt.Sprintf(intFmt, e.PRsMerged),
				fmt.Sprintf(intFmt, e.ReviewsGiven),
				fmt.Sprintf(intFmt, e.LinesAdded),
				fmt.Sprintf(intFmt, e.LinesDeleted),
				csvHours(e.AvgReviewTimeHours, fmtFloat),
				csvHours(e.AvgCycleTimeHours, fmtFloat),
			}
			if err := cw.Write(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeDeveloperHistoryTable(w io.Writer, h schema.DeveloperHistory, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Sprint", "DXI", "Label", "Team DXI", "Delta", "Commits", "PRs", "Reviews", "Review Time", "Cycle Time"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	team := teamByStart(h.TeamHistory)
	var data [][]string
	for _, e := range h.Sprints {
		teamScore, delta := "-", "-"
		if t, ok := team[e.StartDate]; ok {
			teamScore = fmtFloat(t.AvgDXIScore)
			delta = fmt.Sprintf("%+.*f", cfg.Precision, e.DXIScore-t.AvgDXIScore)
		}
		data = append(data, []string{
			e.SprintLabel,
			fmtFloat(e.DXIScore),
			scoreLabel(cfg, e.DXIScore),
			teamScore,
			delta,
			fmt.Sprintf(intFmt, e.Commits),
			fmt.Sprintf(intFmt, e.PRsOpened),
			fmt.Sprintf(intFmt, e.ReviewsGiven),
			formatHours(e.AvgReviewTimeHours, fmtFloat),
			formatHours(e.AvgCycleTimeHours, fmtFloat),
		})
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s was active in %d of %d sprints\n", h.Developer, len(h.Sprints), len(h.TeamHistory))
	return err
}

func teamByStart(entries []schema.SprintHistoryEntry) map[string]schema.SprintHistoryEntry {
	out := make(map[string]schema.SprintHistoryEntry, len(entries))
	for _, e := range entries {
		out[e.StartDate] = e
	}
	return out
}
