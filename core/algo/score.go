// Package algo has the DXI scoring and ranking logic.
package algo

import (
	"math"

	"github.com/huangsam/opendxi/core/agg"
	"github.com/huangsam/opendxi/schema"
)

// Normalize maps value linearly onto [0,100], where optimal scores 100 and
// poor scores 0. Values beyond either end are clamped.
func Normalize(value, optimal, poor float64) float64 {
	score := 100 - (value-optimal)*100/(poor-optimal)
	return clamp(score)
}

// Saturate scores a count against a target, reaching 100 at the target.
func Saturate(count, target float64) float64 {
	if target <= 0 {
		return 100
	}
	return clamp(count * 100 / target)
}

// DimensionScores computes the unrounded five dimension scores for one developer.
// Missing timing data scores 100, as does a developer with no pull requests.
func DimensionScores(m schema.DeveloperMetrics, cfg schema.ScoringConfig) schema.DimensionScores {
	d := schema.DimensionScores{
		ReviewSpeed:     100,
		CycleTime:       100,
		PRSize:          100,
		ReviewCoverage:  Saturate(float64(m.ReviewsGiven), cfg.ReviewTarget),
		CommitFrequency: Saturate(float64(m.Commits), cfg.CommitTarget),
	}
	if m.AvgReviewTimeHours != nil {
		d.ReviewSpeed = Normalize(*m.AvgReviewTimeHours, cfg.ReviewSpeed.Optimal, cfg.ReviewSpeed.Poor)
	}
	if m.AvgCycleTimeHours != nil {
		d.CycleTime = Normalize(*m.AvgCycleTimeHours, cfg.CycleTime.Optimal, cfg.CycleTime.Poor)
	}
	if m.PRsOpened > 0 {
		avgSize := float64(m.LinesChanged()) / float64(m.PRsOpened)
		d.PRSize = Normalize(avgSize, cfg.PRSize.Optimal, cfg.PRSize.Poor)
	}
	return d
}

// Composite returns the weighted sum of the dimension scores.
func Composite(d schema.DimensionScores, cfg schema.ScoringConfig) float64 {
	var total float64
	for _, k := range schema.AllDimensions {
		total += cfg.Weights[k] * d.Get(k)
	}
	return clamp(total)
}

// ScoreDeveloper fills the dimension and composite scores of m, rounded to one decimal.
func ScoreDeveloper(m *schema.DeveloperMetrics, cfg schema.ScoringConfig) {
	dims := DimensionScores(*m, cfg)
	m.DXIScore = Round1(Composite(dims, cfg))
	m.DimensionScores = roundScores(dims)
}

// Score builds the full sprint payload from grouped activity.
func Score(g *agg.Grouped, cfg schema.ScoringConfig) schema.SprintAggregate {
	devs := make([]schema.DeveloperMetrics, 0, len(g.Developers))
	for _, t := range g.Developers {
		m := schema.DeveloperMetrics{
			Developer:          t.Login,
			Commits:            t.Commits,
			PRsOpened:          t.PRsOpened,
			PRsMerged:          t.PRsMerged,
			ReviewsGiven:       t.ReviewsGiven,
			LinesAdded:         t.LinesAdded,
			LinesDeleted:       t.LinesDeleted,
			AvgReviewTimeHours: t.AvgReviewHours(),
			AvgCycleTimeHours:  t.AvgCycleHours(),
		}
		ScoreDeveloper(&m, cfg)
		devs = append(devs, m)
	}

	daily := make([]schema.DailyActivity, len(g.Daily))
	copy(daily, g.Daily)

	return assemble(devs, daily)
}

// Rescore recomputes every score, the ranking, the team scores, and the summary
// from the raw counters of an existing payload. Counters are left untouched.
func Rescore(a schema.SprintAggregate, cfg schema.ScoringConfig) schema.SprintAggregate {
	devs := make([]schema.DeveloperMetrics, len(a.Developers))
	copy(devs, a.Developers)
	for i := range devs {
		ScoreDeveloper(&devs[i], cfg)
	}

	daily := make([]schema.DailyActivity, len(a.DailyActivity))
	copy(daily, a.DailyActivity)

	return assemble(devs, daily)
}

// TeamScores returns the mean of each dimension across developers,
// or all zeros when there are none.
func TeamScores(devs []schema.DeveloperMetrics) schema.DimensionScores {
	if len(devs) == 0 {
		return schema.DimensionScores{}
	}
	var sum schema.DimensionScores
	for _, d := range devs {
		sum.ReviewSpeed += d.DimensionScores.ReviewSpeed
		sum.CycleTime += d.DimensionScores.CycleTime
		sum.PRSize += d.DimensionScores.PRSize
		sum.ReviewCoverage += d.DimensionScores.ReviewCoverage
		sum.CommitFrequency += d.DimensionScores.CommitFrequency
	}
	n := float64(len(devs))
	return roundScores(schema.DimensionScores{
		ReviewSpeed:     sum.ReviewSpeed / n,
		CycleTime:       sum.CycleTime / n,
		PRSize:          sum.PRSize / n,
		ReviewCoverage:  sum.ReviewCoverage / n,
		CommitFrequency: sum.CommitFrequency / n,
	})
}

// Summarize totals the developer counters and averages the composite scores.
func Summarize(devs []schema.DeveloperMetrics, daily []schema.DailyActivity) schema.Summary {
	s := schema.Summary{DeveloperCount: len(devs)}
	var dxi float64
	for _, d := range devs {
		s.TotalCommits += d.Commits
		s.TotalPRs += d.PRsOpened
		s.TotalMerged += d.PRsMerged
		s.TotalReviews += d.ReviewsGiven
		s.TotalLinesAdded += d.LinesAdded
		s.TotalLinesDeleted += d.LinesDeleted
		dxi += d.DXIScore
	}
	if len(devs) > 0 {
		s.AvgDXIScore = Round1(dxi / float64(len(devs)))
	}
	for _, day := range daily {
		if day.Workday {
			s.WorkingDays++
		}
	}
	return s
}

// Round1 rounds to one decimal place.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func assemble(devs []schema.DeveloperMetrics, daily []schema.DailyActivity) schema.SprintAggregate {
	RankDevelopers(devs)
	return schema.SprintAggregate{
		Developers:          devs,
		DailyActivity:       daily,
		Summary:             Summarize(devs, daily),
		TeamDimensionScores: TeamScores(devs),
	}
}

func roundScores(d schema.DimensionScores) schema.DimensionScores {
	return schema.DimensionScores{
		ReviewSpeed:     Round1(d.ReviewSpeed),
		CycleTime:       Round1(d.CycleTime),
		PRSize:          Round1(d.PRSize),
		ReviewCoverage:  Round1(d.ReviewCoverage),
		CommitFrequency: Round1(d.CommitFrequency),
	}
}

func clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
