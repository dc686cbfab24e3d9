package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/olekukonko/tablewriter"
)

// sprintListEntry adds the cache flag to a sprint window.
type sprintListEntry struct {
	schema.Sprint
	Cached bool `json:"cached"`
}

// WriteSprints outputs the selectable sprint windows, newest first.
// cached is keyed by the "start|end" value of each sprint.
func WriteSprints(sprints []schema.Sprint, cached map[string]bool, cfg *contract.Config) error {
	entries := make([]sprintListEntry, len(sprints))
	for i, s := range sprints {
		entries[i] = sprintListEntry{Sprint: s, Cached: cached[s.Value]}
	}

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, map[string]any{"sprints": entries})
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVWithHeader(w, []string{"label", "value", "start", "end", "is_current", "cached"}, func(cw *csv.Writer) error {
				for _, e := range entries {
					if err := cw.Write([]string{e.Label, e.Value, e.Start, e.End, strconv.FormatBool(e.IsCurrent), strconv.FormatBool(e.Cached)}); err != nil {
						return err
					}
				}
				return nil
			})
		}, "Wrote CSV")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			table := tablewriter.NewWriter(w)
			table.Header([]string{"Sprint", "Start", "End", "Cached"})
			var data [][]string
			for _, e := range entries {
				mark := ""
				if e.Cached {
					mark = "yes"
				}
				data = append(data, []string{e.Label, e.Start, e.End, mark})
			}
			if err := table.Bulk(data); err != nil {
				return err
			}
			return table.Render()
		}, "Wrote table")
	}
}
