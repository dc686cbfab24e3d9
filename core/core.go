package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/opendxi/core/algo"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/internal/outwriter"
	"github.com/huangsam/opendxi/internal/parquet"
	"github.com/huangsam/opendxi/schema"
)

// ExecutorFunc defines the function signature for executing the different commands.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error

// errNoStore is returned when the store manager has not been initialized.
var errNoStore = errors.New("sprint store is not initialized")

func sprintStore(mgr contract.StoreManager) (contract.SprintStore, error) {
	if mgr == nil {
		return nil, errNoStore
	}
	store := mgr.GetSprintStore()
	if store == nil {
		return nil, errNoStore
	}
	return store, nil
}

func newLoader(cfg *contract.Config, mgr contract.StoreManager) (*Loader, error) {
	store, err := sprintStore(mgr)
	if err != nil {
		return nil, err
	}
	return NewLoaderFromConfig(cfg, store), nil
}

// ExecuteSprintMetrics loads one sprint and prints its ranked developers.
// It serves as the main entry point for the 'metrics' command.
func ExecuteSprintMetrics(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	start := time.Now()
	loader, err := newLoader(cfg, mgr)
	if err != nil {
		return err
	}

	r := SelectRange(cfg, time.Now())
	rec, err := loader.FindOrFetch(ctx, r.Start, r.End, cfg.Force)
	if err != nil {
		return err
	}

	view, err := rankedView(rec, cfg.Developer)
	if err != nil {
		return err
	}
	return outwriter.WriteSprintMetrics(view, cfg, time.Since(start))
}

// rankedView returns a copy of rec with developers ranked and optionally filtered to one login.
// The loader may share rec between callers, so it is never modified in place.
func rankedView(rec *schema.SprintRecord, developer string) (*schema.SprintRecord, error) {
	view := *rec
	if developer != "" {
		dev, ok := rec.Payload.FindDeveloper(developer)
		if !ok {
			return nil, fmt.Errorf("developer %q in sprint %s: %w", developer, rec.Range, schema.ErrNotFound)
		}
		view.Payload.Developers = []schema.DeveloperMetrics{dev}
		return &view, nil
	}
	view.Payload.Developers = algo.TopDevelopers(rec.Payload.Developers, 0)
	return &view, nil
}

// ExecuteListSprints prints the selectable sprint windows and whether each is stored.
func ExecuteListSprints(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	store, err := sprintStore(mgr)
	if err != nil {
		return err
	}
	sprints := ListSprints(cfg, time.Now(), cfg.Limit)
	cached, err := cachedKeys(ctx, store)
	if err != nil {
		return err
	}
	return outwriter.WriteSprints(sprints, cached, cfg)
}

func cachedKeys(ctx context.Context, store contract.SprintStore) (map[string]bool, error) {
	list, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list stored sprints: %w", err)
	}
	out := make(map[string]bool, len(list))
	for _, c := range list {
		out[c.Range.String()] = true
	}
	return out, nil
}

// ExecuteSprintHistory prints the team series over the last cfg.Limit sprints.
func ExecuteSprintHistory(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	loader, err := newLoader(cfg, mgr)
	if err != nil {
		return err
	}
	entries, err := SprintHistory(ctx, loader, ListSprints(cfg, time.Now(), cfg.Limit))
	if err != nil {
		return err
	}
	return outwriter.WriteSprintHistory(entries, cfg)
}

// ExecuteDeveloperHistory prints one developer's series over the last cfg.Limit sprints.
func ExecuteDeveloperHistory(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	if cfg.Developer == "" {
		return schema.NewValidationError("developer", "a developer login is required")
	}
	loader, err := newLoader(cfg, mgr)
	if err != nil {
		return err
	}
	h, err := DeveloperHistory(ctx, loader, ListSprints(cfg, time.Now(), cfg.Limit), cfg.Developer)
	if err != nil {
		return err
	}
	return outwriter.WriteDeveloperHistory(h, cfg)
}

// ExecutePopulate refreshes the last cfg.Limit sprints and prints the per-sprint outcome.
// Failures of individual sprints are reported but do not fail the run.
func ExecutePopulate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	report, err := RunPopulate(ctx, cfg, mgr)
	if err != nil && len(report.Results) == 0 {
		return err
	}
	if werr := outwriter.WritePopulateReport(report, cfg); werr != nil {
		return werr
	}
	return err
}

// RunPopulate refreshes the last cfg.Limit sprints without printing. It is shared
// by the populate and schedule commands.
func RunPopulate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) (schema.PopulateReport, error) {
	loader, err := newLoader(cfg, mgr)
	if err != nil {
		return schema.PopulateReport{}, err
	}
	sprints := ListSprints(cfg, time.Now(), cfg.Limit)
	ranges := make([]schema.SprintRange, len(sprints))
	for i, s := range sprints {
		ranges[i] = s.Range
	}
	report, err := loader.Populate(ctx, ranges, cfg.Force, cfg.Workers)

	if status, serr := loader.store.GetStatus(); serr == nil {
		logger.Info().
			Str("run_id", report.RunID).
			Str("backend", status.Backend).
			Int("entries", status.EntryCount).
			Int64("bytes", status.TotalBytes).
			Msg("Store after populate")
	}
	return report, err
}

// ExecuteRecalculate re-scores stored sprints with the configured scoring and saves them.
// With an explicit range only that sprint is recalculated. Nothing is fetched.
func ExecuteRecalculate(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	loader, err := newLoader(cfg, mgr)
	if err != nil {
		return err
	}

	var targets []schema.SprintRange
	if cfg.Range != nil {
		targets = []schema.SprintRange{*cfg.Range}
	} else {
		list, err := loader.ListCachedRanges(ctx)
		if err != nil {
			return err
		}
		for _, c := range list {
			targets = append(targets, c.Range)
		}
	}

	updated := make([]schema.CachedSprint, 0, len(targets))
	for _, r := range targets {
		rec, err := loader.RecalculateStored(ctx, r.Start, r.End)
		if err != nil {
			return fmt.Errorf("recalculate %s: %w", r, err)
		}
		updated = append(updated, schema.CachedSprint{Range: rec.Range, UpdatedAt: rec.UpdatedAt})
	}
	logger.Info().Int("sprints", len(updated)).Msg("Recalculated stored sprints")
	return outwriter.WriteCachedSprints(updated, cfg)
}

// ExecuteScoringDefinitions prints the active thresholds and weights.
func ExecuteScoringDefinitions(_ context.Context, cfg *contract.Config, _ contract.StoreManager) error {
	return outwriter.WriteScoringDefinitions(cfg)
}

// ExecuteExport writes every stored sprint to a pair of parquet files.
func ExecuteExport(ctx context.Context, cfg *contract.Config, mgr contract.StoreManager) error {
	store, err := sprintStore(mgr)
	if err != nil {
		return err
	}
	list, err := store.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list stored sprints: %w", err)
	}
	records := make([]*schema.SprintRecord, 0, len(list))
	for _, c := range list {
		rec, err := store.Get(ctx, c.Range.Start, c.Range.End)
		if err != nil {
			return fmt.Errorf("failed to read sprint %s: %w", c.Range, err)
		}
		records = append(records, rec)
	}

	devs, days, err := parquet.Export(records, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("error writing Parquet output: %w", err)
	}
	devPath, dailyPath := parquet.ExportPaths(cfg.OutputFile)
	logger.Info().Int("sprints", len(records)).Int("developer_rows", devs).Int("daily_rows", days).Msg("Exported sprints")
	fmt.Printf("💾 Wrote %d developer rows to %s and %d daily rows to %s\n", devs, devPath, days, dailyPath)
	return nil
}
