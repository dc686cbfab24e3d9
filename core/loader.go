// Package core wires fetching, aggregation, scoring and persistence of sprint metrics.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/huangsam/opendxi/core/agg"
	"github.com/huangsam/opendxi/core/algo"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/github"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/schema"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Loader returns sprint aggregates from the store, computing and persisting them on a miss.
type Loader struct {
	fetcher   contract.Fetcher
	store     contract.SprintStore
	scoring   schema.ScoringConfig
	groupOpts []agg.Option

	// flights coalesces concurrent cold misses for the same window within this process.
	flights singleflight.Group
}

// LoaderOption customizes a Loader.
type LoaderOption func(*Loader)

// WithScoring overrides the default thresholds and weights.
func WithScoring(cfg schema.ScoringConfig) LoaderOption {
	return func(l *Loader) { l.scoring = cfg.Clone() }
}

// WithGroupOptions passes options through to agg.Group.
func WithGroupOptions(opts ...agg.Option) LoaderOption {
	return func(l *Loader) { l.groupOpts = append(l.groupOpts, opts...) }
}

// NewLoader creates a Loader. The store must not be nil; use the none backend to disable persistence.
func NewLoader(fetcher contract.Fetcher, store contract.SprintStore, opts ...LoaderOption) *Loader {
	l := &Loader{
		fetcher: fetcher,
		store:   store,
		scoring: schema.DefaultScoringConfig(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// NewLoaderFromConfig builds the GitHub client and a Loader configured from cfg.
func NewLoaderFromConfig(cfg *contract.Config, store contract.SprintStore) *Loader {
	client := github.NewClient(github.Options{
		Token:             cfg.GitHubToken,
		Org:               cfg.GitHubOrg,
		Endpoint:          cfg.GitHubEndpoint,
		MaxPages:          cfg.MaxPages,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	opts := []LoaderOption{WithScoring(cfg.Scoring)}
	if cfg.HolidayRegion != "" {
		opts = append(opts, WithGroupOptions(agg.WithHolidayRegion(cfg.HolidayRegion)))
	}
	return NewLoader(client, store, opts...)
}

// FindOrFetch returns the stored aggregate for [start, end], fetching and persisting it on a miss.
// With force set, the window is always recomputed and the stored record replaced.
// Records may be shared between concurrent callers and must not be mutated.
func (l *Loader) FindOrFetch(ctx context.Context, start, end time.Time, force bool) (*schema.SprintRecord, error) {
	r := schema.SprintRange{Start: schema.DateOnly(start), End: schema.DateOnly(end)}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	if force {
		return l.refresh(ctx, r)
	}

	rec, err := l.store.Get(ctx, r.Start, r.End)
	if err == nil {
		cacheLookups.WithLabelValues("hit").Inc()
		return rec, nil
	}
	if !errors.Is(err, schema.ErrNotFound) {
		return nil, err
	}
	cacheLookups.WithLabelValues("miss").Inc()

	// The shared fetch outlives any single caller; each caller stops waiting on its own context.
	ch := l.flights.DoChan(r.String(), func() (any, error) {
		return l.populate(context.WithoutCancel(ctx), r)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			logger.Debug().Str("range", r.String()).Msg("Joined in-flight fetch")
		}
		return res.Val.(*schema.SprintRecord), nil
	}
}

// populate computes a missing window and inserts it. A lost insert race returns the winner's record.
func (l *Loader) populate(ctx context.Context, r schema.SprintRange) (*schema.SprintRecord, error) {
	// A flight that finished just before this one started may already have stored the window.
	if rec, err := l.store.Get(ctx, r.Start, r.End); err == nil {
		return rec, nil
	}
	rec, err := l.compute(ctx, r)
	if err != nil {
		return nil, err
	}
	return l.insertOrReread(ctx, rec)
}

func (l *Loader) insertOrReread(ctx context.Context, rec *schema.SprintRecord) (*schema.SprintRecord, error) {
	err := l.store.Insert(ctx, rec)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, schema.ErrConflict) {
		return nil, err
	}

	persistConflicts.Inc()
	logger.Debug().Str("range", rec.Range.String()).Msg("Lost insert race, returning stored record")
	return l.store.Get(ctx, rec.Range.Start, rec.Range.End)
}

// refresh recomputes a window and replaces whatever is stored for it.
func (l *Loader) refresh(ctx context.Context, r schema.SprintRange) (*schema.SprintRecord, error) {
	rec, err := l.compute(ctx, r)
	if err != nil {
		return nil, err
	}
	return l.upsert(ctx, rec)
}

// upsert writes rec and returns the stored version so created_at reflects the original row.
func (l *Loader) upsert(ctx context.Context, rec *schema.SprintRecord) (*schema.SprintRecord, error) {
	if err := l.store.Upsert(ctx, rec); err != nil {
		return nil, err
	}
	stored, err := l.store.Get(ctx, rec.Range.Start, rec.Range.End)
	if errors.Is(err, schema.ErrNotFound) {
		return rec, nil
	}
	return stored, err
}

// compute runs fetch, group and score for a window. No store lock is held here.
func (l *Loader) compute(ctx context.Context, r schema.SprintRange) (*schema.SprintRecord, error) {
	timer := time.Now()
	raw, err := l.fetcher.Fetch(ctx, r.Start, r.End)
	fetchDuration.Observe(time.Since(timer).Seconds())
	if err != nil {
		if wait, ok := github.IsRetryable(err); ok {
			fetchTotal.WithLabelValues("rate_limited").Inc()
			logger.Warn().Str("range", r.String()).Dur("retry_after", wait).Msg("GitHub rate limit reached")
		} else {
			fetchTotal.WithLabelValues("error").Inc()
		}
		return nil, err
	}
	fetchTotal.WithLabelValues("ok").Inc()

	grouped := agg.Group(raw, r.Start, r.End, l.groupOpts...)
	payload := algo.Score(grouped, l.scoring)
	logger.Info().
		Str("range", r.String()).
		Int("developers", len(payload.Developers)).
		Int("pull_requests", len(raw.PullRequests)).
		Int("commits", len(raw.Commits)).
		Dur("elapsed", time.Since(timer)).
		Msg("Computed sprint metrics")

	return &schema.SprintRecord{
		Range:          r,
		Payload:        payload,
		PayloadVersion: schema.PayloadVersion,
	}, nil
}

// RecalculateScores re-derives every score in a from its raw counters. It performs no I/O.
func (l *Loader) RecalculateScores(_ context.Context, a schema.SprintAggregate) (schema.SprintAggregate, error) {
	out := algo.Rescore(a, l.scoring)
	if len(out.DailyActivity) > 0 {
		first, errFirst := time.Parse(schema.DateLayout, out.DailyActivity[0].Date)
		last, errLast := time.Parse(schema.DateLayout, out.DailyActivity[len(out.DailyActivity)-1].Date)
		if errFirst != nil || errLast != nil {
			return schema.SprintAggregate{}, schema.NewValidationError("daily_activity", "dates must be YYYY-MM-DD")
		}
		if err := schema.ValidateAggregate(&out, schema.SprintRange{Start: first, End: last}); err != nil {
			return schema.SprintAggregate{}, err
		}
	}
	return out, nil
}

// RecalculateStored re-scores a stored window with the current scoring config and saves it.
// It never fetches.
func (l *Loader) RecalculateStored(ctx context.Context, start, end time.Time) (*schema.SprintRecord, error) {
	rec, err := l.store.Get(ctx, start, end)
	if err != nil {
		return nil, err
	}
	payload, err := l.RecalculateScores(ctx, rec.Payload)
	if err != nil {
		return nil, err
	}
	updated := *rec
	updated.Payload = payload
	return l.upsert(ctx, &updated)
}

// ListCachedRanges returns the stored windows, newest first. It never fetches.
func (l *Loader) ListCachedRanges(ctx context.Context) ([]schema.CachedSprint, error) {
	return l.store.List(ctx)
}

// Populate refreshes many windows. Fetches fan out over at most workers goroutines;
// persists run serially on the calling goroutine.
func (l *Loader) Populate(ctx context.Context, ranges []schema.SprintRange, force bool, workers int) (schema.PopulateReport, error) {
	report := schema.PopulateReport{RunID: uuid.NewString(), Results: make([]schema.PopulateResult, len(ranges))}
	began := time.Now()
	if workers < 1 {
		workers = contract.DefaultWorkers
	}

	pending := make([]bool, len(ranges))
	for i, r := range ranges {
		report.Results[i].Range = r
		if err := r.Validate(); err != nil {
			report.Results[i].Fail(err)
			continue
		}
		if force {
			pending[i] = true
			continue
		}
		_, err := l.store.Get(ctx, r.Start, r.End)
		switch {
		case err == nil:
			cacheLookups.WithLabelValues("hit").Inc()
			report.Results[i].Outcome = schema.OutcomeCached
		case errors.Is(err, schema.ErrNotFound):
			cacheLookups.WithLabelValues("miss").Inc()
			pending[i] = true
		default:
			report.Results[i].Fail(err)
		}
	}

	computed := make([]*schema.SprintRecord, len(ranges))
	elapsed := make([]time.Duration, len(ranges))
	var g errgroup.Group
	g.SetLimit(workers)
	for i, r := range ranges {
		if !pending[i] {
			continue
		}
		g.Go(func() error {
			populateInflight.Inc()
			defer populateInflight.Dec()
			t := time.Now()
			rec, err := l.compute(ctx, r)
			elapsed[i] = time.Since(t)
			if err != nil {
				report.Results[i].Fail(err)
				return nil
			}
			computed[i] = rec
			return nil
		})
	}
	_ = g.Wait()

	for i, rec := range computed {
		if rec == nil {
			continue
		}
		res := &report.Results[i]
		res.Duration = elapsed[i]
		if force {
			if err := l.store.Upsert(ctx, rec); err != nil {
				res.Fail(err)
				continue
			}
			res.Outcome = schema.OutcomeFetched
			continue
		}
		err := l.store.Insert(ctx, rec)
		switch {
		case err == nil:
			res.Outcome = schema.OutcomeFetched
		case errors.Is(err, schema.ErrConflict):
			persistConflicts.Inc()
			res.Outcome = schema.OutcomeConflict
		default:
			res.Fail(err)
		}
	}

	report.Duration = time.Since(began)
	logger.Info().
		Str("run_id", report.RunID).
		Int("sprints", len(ranges)).
		Int("failed", report.Failed()).
		Dur("elapsed", report.Duration).
		Msg("Populate finished")

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("populate %s interrupted: %w", report.RunID, err)
	}
	return report, nil
}
