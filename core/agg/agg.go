// Package agg groups raw GitHub activity per developer and per day.
package agg

import (
	"strings"
	"time"

	"github.com/huangsam/opendxi/schema"
)

// DeveloperTotals holds the raw counters and timing samples of one developer.
type DeveloperTotals struct {
	Login        string
	Commits      int
	PRsOpened    int
	PRsMerged    int
	ReviewsGiven int
	LinesAdded   int
	LinesDeleted int

	ReviewHours []float64 // review submitted minus PR created, positive samples only
	CycleHours  []float64 // PR merged minus PR created
}

// AvgReviewHours returns the mean review turnaround, or nil without samples.
func (d *DeveloperTotals) AvgReviewHours() *float64 { return mean(d.ReviewHours) }

// AvgCycleHours returns the mean cycle time, or nil without samples.
func (d *DeveloperTotals) AvgCycleHours() *float64 { return mean(d.CycleHours) }

// Grouped is the output of Group and the input of scoring.
type Grouped struct {
	Range      schema.SprintRange
	Developers map[string]*DeveloperTotals
	Daily      []schema.DailyActivity
}

// WorkingDays counts the daily entries flagged as workdays.
func (g *Grouped) WorkingDays() int {
	n := 0
	for _, d := range g.Daily {
		if d.Workday {
			n++
		}
	}
	return n
}

type options struct {
	botSuffixes []string
	workdays    *Workdays
}

// Option customizes Group.
type Option func(*options)

// WithBotSuffixes replaces the login suffixes that mark automation accounts.
func WithBotSuffixes(suffixes ...string) Option {
	return func(o *options) { o.botSuffixes = suffixes }
}

// WithHolidayRegion flags public holidays of region as non-workdays.
func WithHolidayRegion(region string) Option {
	return func(o *options) { o.workdays = NewWorkdays(strings.ToUpper(region)) }
}

// Group partitions events by login and by calendar day over [start, end].
// Bot logins contribute nothing. The daily slice is zero-filled so it always
// has one entry per day of the window.
func Group(raw *schema.RawAggregate, start, end time.Time, opts ...Option) *Grouped {
	o := options{botSuffixes: []string{schema.BotSuffix}}
	for _, opt := range opts {
		opt(&o)
	}

	r := schema.SprintRange{Start: schema.DateOnly(start), End: schema.DateOnly(end)}
	g := &Grouped{
		Range:      r,
		Developers: make(map[string]*DeveloperTotals),
		Daily:      zeroFill(r, o.workdays),
	}
	if raw == nil {
		return g
	}

	isBot := func(login string) bool { return schema.IsBot(login, o.botSuffixes...) }
	dev := func(login string) *DeveloperTotals {
		d, ok := g.Developers[login]
		if !ok {
			d = &DeveloperTotals{Login: login}
			g.Developers[login] = d
		}
		return d
	}

	for _, c := range raw.Commits {
		login := c.Identity()
		idx, ok := g.dayIndex(c.AuthoredAt)
		if isBot(login) || !ok {
			continue
		}
		d := dev(login)
		d.Commits++
		d.LinesAdded += c.Additions
		d.LinesDeleted += c.Deletions

		day := &g.Daily[idx]
		day.Commits++
		day.LinesAdded += c.Additions
		day.LinesDeleted += c.Deletions
	}

	for _, pr := range raw.PullRequests {
		createdIdx, ok := g.dayIndex(pr.CreatedAt)
		if !ok {
			continue
		}

		if !isBot(pr.Author) {
			d := dev(pr.Author)
			d.PRsOpened++
			d.LinesAdded += pr.Additions
			d.LinesDeleted += pr.Deletions

			day := &g.Daily[createdIdx]
			day.PRsOpened++
			day.LinesAdded += pr.Additions
			day.LinesDeleted += pr.Deletions

			if pr.MergedAt != nil && !after(*pr.MergedAt, r.End) {
				d.PRsMerged++
				d.CycleHours = append(d.CycleHours, pr.MergedAt.Sub(pr.CreatedAt).Hours())
				if idx, ok := g.dayIndex(*pr.MergedAt); ok {
					g.Daily[idx].PRsMerged++
				}
			}
		}

		// Reviews are attributed to the reviewer, independent of who opened the PR.
		for _, rv := range pr.Reviews {
			if rv.SubmittedAt == nil || isBot(rv.Author) || after(*rv.SubmittedAt, r.End) {
				continue
			}
			d := dev(rv.Author)
			d.ReviewsGiven++
			if hours := rv.SubmittedAt.Sub(pr.CreatedAt).Hours(); hours > 0 {
				d.ReviewHours = append(d.ReviewHours, hours)
			}
			if idx, ok := g.dayIndex(*rv.SubmittedAt); ok {
				g.Daily[idx].ReviewsGiven++
			}
		}
	}

	return g
}

// dayIndex returns the position of t's UTC calendar day in the window.
func (g *Grouped) dayIndex(t time.Time) (int, bool) {
	idx := schema.DaysBetween(g.Range.Start, t.UTC())
	if idx < 0 || idx >= len(g.Daily) {
		return 0, false
	}
	return idx, true
}

func after(t, end time.Time) bool {
	return schema.DateOnly(t.UTC()).After(end)
}

func zeroFill(r schema.SprintRange, w *Workdays) []schema.DailyActivity {
	n := r.Days()
	if n < 0 {
		n = 0
	}
	daily := make([]schema.DailyActivity, n)
	for i := range daily {
		day := r.Start.AddDate(0, 0, i)
		daily[i] = schema.DailyActivity{
			Date:    day.Format(schema.DateLayout),
			Workday: w.IsWorkday(day),
		}
	}
	return daily
}

func mean(samples []float64) *float64 {
	if len(samples) == 0 {
		return nil
	}
	var sum float64
	for _, s := range samples {
		sum += s
	}
	avg := sum / float64(len(samples))
	return &avg
}
