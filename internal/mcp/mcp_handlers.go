package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/opendxi/core"
	"github.com/huangsam/opendxi/core/algo"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.StoreManager
}

// toolError renders err with its category so clients can tell bad input from upstream trouble.
func toolError(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("%s failed [%s]: %v", action, schema.ErrorCategory(err), err))
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func (h *toolHandler) store() (contract.SprintStore, error) {
	if h.mgr == nil || h.mgr.GetSprintStore() == nil {
		return nil, errors.New("sprint store is not initialized")
	}
	return h.mgr.GetSprintStore(), nil
}

func (h *toolHandler) loader(cfg *contract.Config) (*core.Loader, error) {
	store, err := h.store()
	if err != nil {
		return nil, err
	}
	return core.NewLoaderFromConfig(cfg, store), nil
}

// sprintLimit reads the limit argument, falling back to the configured or default limit.
func (h *toolHandler) sprintLimit(request mcp.CallToolRequest) (int, error) {
	fallback := h.baseCfg.Limit
	if fallback < 1 {
		fallback = contract.DefaultSprintLimit
	}
	limit := request.GetInt("limit", fallback)
	if limit < 1 || limit > contract.MaxSprintLimit {
		return 0, schema.NewValidationError("limit", fmt.Sprintf("must be between 1 and %d", contract.MaxSprintLimit))
	}
	return limit, nil
}

func (h *toolHandler) handleGetSprintMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.baseCfg.Clone()
	start := request.GetString("start_date", "")
	end := request.GetString("end_date", "")
	switch {
	case start != "" && end != "":
		r, err := schema.NewSprintRange(start, end)
		if err != nil {
			return toolError("sprint metrics", err), nil
		}
		cfg.Range = &r
	case start != "" || end != "":
		return toolError("sprint metrics", schema.NewValidationError("start_date", "start_date and end_date must be given together")), nil
	default:
		cfg.Range = nil
		cfg.SprintOffset = request.GetInt("sprint", 0)
	}
	developer := request.GetString("developer", "")
	force := request.GetBool("force", false)

	loader, err := h.loader(cfg)
	if err != nil {
		return toolError("sprint metrics", err), nil
	}
	r := core.SelectRange(cfg, time.Now())
	rec, err := loader.FindOrFetch(ctx, r.Start, r.End, force)
	if err != nil {
		return toolError("sprint metrics", err), nil
	}

	payload := rec.Payload
	if developer != "" {
		dev, ok := payload.FindDeveloper(developer)
		if !ok {
			return toolError("sprint metrics", fmt.Errorf("developer %q in sprint %s: %w", developer, r, schema.ErrNotFound)), nil
		}
		payload.Developers = []schema.DeveloperMetrics{dev}
	} else {
		payload.Developers = algo.TopDevelopers(payload.Developers, 0)
	}

	return jsonResult(map[string]any{
		"start_date":            r.StartKey(),
		"end_date":              r.EndKey(),
		"sprint_label":          core.ShortLabel(r),
		"updated_at":            rec.UpdatedAt,
		"developers":            payload.Developers,
		"daily_activity":        payload.DailyActivity,
		"summary":               payload.Summary,
		"team_dimension_scores": payload.TeamDimensionScores,
	})
}

func (h *toolHandler) handleListSprints(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := h.sprintLimit(request)
	if err != nil {
		return toolError("list sprints", err), nil
	}
	store, err := h.store()
	if err != nil {
		return toolError("list sprints", err), nil
	}
	stored, err := store.List(ctx)
	if err != nil {
		return toolError("list sprints", err), nil
	}
	cached := make(map[string]bool, len(stored))
	for _, c := range stored {
		cached[c.Range.String()] = true
	}

	type entry struct {
		schema.Sprint
		Cached bool `json:"cached"`
	}
	sprints := core.ListSprints(h.baseCfg, time.Now(), limit)
	out := make([]entry, len(sprints))
	for i, s := range sprints {
		out[i] = entry{Sprint: s, Cached: cached[s.Value]}
	}
	return jsonResult(map[string]any{"sprints": out})
}

func (h *toolHandler) handleGetSprintHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit, err := h.sprintLimit(request)
	if err != nil {
		return toolError("sprint history", err), nil
	}
	loader, err := h.loader(h.baseCfg)
	if err != nil {
		return toolError("sprint history", err), nil
	}
	entries, err := core.SprintHistory(ctx, loader, core.ListSprints(h.baseCfg, time.Now(), limit))
	if err != nil {
		return toolError("sprint history", err), nil
	}
	return jsonResult(map[string]any{"sprints": entries})
}

func (h *toolHandler) handleGetDeveloperHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	developer := request.GetString("developer", "")
	if developer == "" {
		return toolError("developer history", schema.NewValidationError("developer", "a developer login is required")), nil
	}
	limit, err := h.sprintLimit(request)
	if err != nil {
		return toolError("developer history", err), nil
	}
	loader, err := h.loader(h.baseCfg)
	if err != nil {
		return toolError("developer history", err), nil
	}
	history, err := core.DeveloperHistory(ctx, loader, core.ListSprints(h.baseCfg, time.Now(), limit), developer)
	if err != nil {
		return toolError("developer history", err), nil
	}
	return jsonResult(history)
}

func (h *toolHandler) handleListCachedSprints(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	store, err := h.store()
	if err != nil {
		return toolError("list cached sprints", err), nil
	}
	list, err := store.List(ctx)
	if err != nil {
		return toolError("list cached sprints", err), nil
	}

	type entry struct {
		StartDate   string    `json:"start_date"`
		EndDate     string    `json:"end_date"`
		SprintLabel string    `json:"sprint_label"`
		UpdatedAt   time.Time `json:"updated_at"`
	}
	out := make([]entry, len(list))
	for i, c := range list {
		out[i] = entry{StartDate: c.Range.StartKey(), EndDate: c.Range.EndKey(), SprintLabel: core.ShortLabel(c.Range), UpdatedAt: c.UpdatedAt}
	}
	return jsonResult(map[string]any{"cached": out, "count": len(out)})
}
