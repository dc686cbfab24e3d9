package core

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/huangsam/opendxi/schema"
)

// SprintHistory loads each sprint (from the store when possible) and returns the team series
// oldest first.
func SprintHistory(ctx context.Context, loader *Loader, sprints []schema.Sprint) ([]schema.SprintHistoryEntry, error) {
	entries := make([]schema.SprintHistoryEntry, 0, len(sprints))
	for _, s := range sprints {
		rec, err := loader.FindOrFetch(ctx, s.Range.Start, s.Range.End, false)
		if err != nil {
			return nil, fmt.Errorf("sprint %s: %w", s.Value, err)
		}
		entries = append(entries, teamEntry(rec))
	}
	sortChronological(entries, func(e schema.SprintHistoryEntry) string { return e.StartDate })
	return entries, nil
}

// DeveloperHistory returns the per-sprint series for login alongside the team series.
// Sprints in which login has no activity are skipped. If login appears in none of them,
// schema.ErrNotFound is returned.
func DeveloperHistory(ctx context.Context, loader *Loader, sprints []schema.Sprint, login string) (schema.DeveloperHistory, error) {
	out := schema.DeveloperHistory{
		Developer:   login,
		Sprints:     []schema.DeveloperHistoryEntry{},
		TeamHistory: make([]schema.SprintHistoryEntry, 0, len(sprints)),
	}
	for _, s := range sprints {
		rec, err := loader.FindOrFetch(ctx, s.Range.Start, s.Range.End, false)
		if err != nil {
			return schema.DeveloperHistory{}, fmt.Errorf("sprint %s: %w", s.Value, err)
		}
		out.TeamHistory = append(out.TeamHistory, teamEntry(rec))

		dev, ok := rec.Payload.FindDeveloper(login)
		if !ok {
			continue
		}
		out.Sprints = append(out.Sprints, schema.DeveloperHistoryEntry{
			SprintLabel:        ShortLabel(rec.Range),
			StartDate:          rec.Range.StartKey(),
			EndDate:            rec.Range.EndKey(),
			DXIScore:           dev.DXIScore,
			DimensionScores:    dev.DimensionScores,
			Commits:            dev.Commits,
			PRsOpened:          dev.PRsOpened,
			PRsMerged:          dev.PRsMerged,
			ReviewsGiven:       dev.ReviewsGiven,
			LinesAdded:         dev.LinesAdded,
			LinesDeleted:       dev.LinesDeleted,
			AvgReviewTimeHours: dev.AvgReviewTimeHours,
			AvgCycleTimeHours:  dev.AvgCycleTimeHours,
		})
	}

	if len(out.Sprints) == 0 {
		return schema.DeveloperHistory{}, fmt.Errorf("developer %q in the last %d sprints: %w", login, len(sprints), schema.ErrNotFound)
	}
	sortChronological(out.Sprints, func(e schema.DeveloperHistoryEntry) string { return e.StartDate })
	sortChronological(out.TeamHistory, func(e schema.SprintHistoryEntry) string { return e.StartDate })
	return out, nil
}

func teamEntry(rec *schema.SprintRecord) schema.SprintHistoryEntry {
	s := rec.Payload.Summary
	return schema.SprintHistoryEntry{
		SprintLabel:     ShortLabel(rec.Range),
		StartDate:       rec.Range.StartKey(),
		EndDate:         rec.Range.EndKey(),
		AvgDXIScore:     s.AvgDXIScore,
		DimensionScores: rec.Payload.TeamDimensionScores,
		DeveloperCount:  len(rec.Payload.Developers),
		TotalCommits:    s.TotalCommits,
		TotalPRs:        s.TotalPRs,
	}
}

// sortChronological orders entries by their YYYY-MM-DD start date, oldest first.
func sortChronological[T any](entries []T, key func(T) string) {
	slices.SortStableFunc(entries, func(a, b T) int {
		return cmp.Compare(key(a), key(b))
	})
}
