package core

import (
	"fmt"
	"time"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
)

// SprintDates returns the window of the sprint at index relative to the one containing now.
// Index 0 is the current sprint and -1 the previous one. Dates before the anchor yield
// negative sprint numbers rather than clamping.
func SprintDates(cfg *contract.Config, now time.Time, index int) schema.SprintRange {
	anchor, days := cadence(cfg)
	elapsed := schema.DaysBetween(anchor, now)
	current := floorDiv(elapsed, days)

	start := anchor.AddDate(0, 0, (current+index)*days)
	return schema.SprintRange{Start: start, End: start.AddDate(0, 0, days-1)}
}

// ListSprints returns the current sprint and the limit-1 before it, newest first.
func ListSprints(cfg *contract.Config, now time.Time, limit int) []schema.Sprint {
	if limit < 1 {
		limit = contract.DefaultSprintLimit
	}
	out := make([]schema.Sprint, 0, limit)
	for i := 0; i < limit; i++ {
		r := SprintDates(cfg, now, -i)
		label := "Current Sprint"
		if i > 0 {
			label = fmt.Sprintf("Sprint %s to %s", r.StartKey(), r.EndKey())
		}
		out = append(out, schema.Sprint{
			Label:     label,
			Value:     r.String(),
			Start:     r.StartKey(),
			End:       r.EndKey(),
			IsCurrent: i == 0,
			Range:     r,
		})
	}
	return out
}

// ShortLabel formats a window for charts: "Jan 7-20" within a month, "Jan 28-Feb 3" across months.
func ShortLabel(r schema.SprintRange) string {
	if r.Start.Year() == r.End.Year() && r.Start.Month() == r.End.Month() {
		return fmt.Sprintf("%s %d-%d", r.Start.Format("Jan"), r.Start.Day(), r.End.Day())
	}
	return r.Start.Format("Jan 2") + "-" + r.End.Format("Jan 2")
}

// SelectRange resolves the window a command should operate on: an explicit --start/--end
// pair wins over --sprint.
func SelectRange(cfg *contract.Config, now time.Time) schema.SprintRange {
	if cfg.Range != nil {
		return *cfg.Range
	}
	return SprintDates(cfg, now, cfg.SprintOffset)
}

func cadence(cfg *contract.Config) (time.Time, int) {
	anchor := cfg.SprintStartDate
	if anchor.IsZero() {
		anchor, _ = time.Parse(schema.DateLayout, contract.DefaultSprintStartDate)
	}
	days := cfg.SprintDurationDays
	if days < 1 {
		days = contract.DefaultSprintDurationDays
	}
	return schema.DateOnly(anchor), days
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
