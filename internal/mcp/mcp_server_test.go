package mcp_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/opendxi/core"
	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/internal/iocache"
	mcp_internal "github.com/huangsam/opendxi/internal/mcp"
	"github.com/huangsam/opendxi/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticFetcher struct{}

func (staticFetcher) Fetch(_ context.Context, start, _ time.Time) (*schema.RawAggregate, error) {
	day := start.AddDate(0, 0, 1).Add(10 * time.Hour)
	return &schema.RawAggregate{Commits: []schema.Commit{
		{Login: "alice", AuthoredAt: day, Additions: 5},
		{Login: "alice", AuthoredAt: day.Add(time.Hour), Additions: 5},
		{Login: "bob", AuthoredAt: day, Additions: 1},
	}}, nil
}

// newSeededServer returns a server whose store already holds the 2026-01-07 sprint.
func newSeededServer(t *testing.T) *server.MCPServer {
	t.Helper()
	store, err := iocache.NewSprintStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "opendxi.db"), 5)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	start := time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC)
	_, err = core.NewLoader(staticFetcher{}, store).FindOrFetch(context.Background(), start, start.AddDate(0, 0, 13), false)
	require.NoError(t, err)

	mgr := &iocache.MockStoreManager{}
	mgr.On("GetSprintStore").Return(store)
	return mcp_internal.NewMCPServer(&contract.Config{Scoring: schema.DefaultScoringConfig()}, mgr, "test")
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerTools(t *testing.T) {
	s := newSeededServer(t)
	for _, name := range []string{"get_sprint_metrics", "list_sprints", "get_sprint_history", "get_developer_history", "list_cached_sprints"} {
		assert.NotNil(t, s.GetTool(name), name)
	}
}

func TestGetSprintMetrics(t *testing.T) {
	s := newSeededServer(t)

	t.Run("from store", func(t *testing.T) {
		res := callTool(t, s, "get_sprint_metrics", map[string]any{"start_date": "2026-01-07", "end_date": "2026-01-20"})
		require.False(t, res.IsError, resultText(res))

		var out struct {
			SprintLabel string                    `json:"sprint_label"`
			Developers  []schema.DeveloperMetrics `json:"developers"`
			Summary     schema.Summary            `json:"summary"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
		assert.Equal(t, "Jan 7-20", out.SprintLabel)
		require.Len(t, out.Developers, 2)
		assert.Equal(t, "alice", out.Developers[0].Developer, "ranked by DXI")
		assert.Equal(t, 3, out.Summary.TotalCommits)
	})

	t.Run("one developer", func(t *testing.T) {
		res := callTool(t, s, "get_sprint_metrics", map[string]any{"start_date": "2026-01-07", "end_date": "2026-01-20", "developer": "bob"})
		require.False(t, res.IsError, resultText(res))
		assert.Contains(t, resultText(res), `"developer": "bob"`)
		assert.NotContains(t, resultText(res), `"developer": "alice"`)
	})

	tests := []struct {
		name string
		args map[string]any
		want string
	}{
		{"start without end", map[string]any{"start_date": "2026-01-07"}, "[bad_input]"},
		{"bad date", map[string]any{"start_date": "2026-13-07", "end_date": "2026-01-20"}, "invalid date"},
		{"reversed", map[string]any{"start_date": "2026-01-20", "end_date": "2026-01-07"}, "[bad_input]"},
		{"unknown developer", map[string]any{"start_date": "2026-01-07", "end_date": "2026-01-20", "developer": "carol"}, "[not_found]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, "get_sprint_metrics", tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestListCachedSprints(t *testing.T) {
	s := newSeededServer(t)
	res := callTool(t, s, "list_cached_sprints", nil)
	require.False(t, res.IsError)

	var out struct {
		Count  int `json:"count"`
		Cached []struct {
			StartDate string `json:"start_date"`
		} `json:"cached"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	assert.Equal(t, 1, out.Count)
	assert.Equal(t, "2026-01-07", out.Cached[0].StartDate)
}

func TestListSprints(t *testing.T) {
	s := newSeededServer(t)

	res := callTool(t, s, "list_sprints", map[string]any{"limit": 3.0})
	require.False(t, res.IsError)
	var out struct {
		Sprints []struct {
			Label string `json:"label"`
		} `json:"sprints"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &out))
	require.Len(t, out.Sprints, 3)
	assert.Equal(t, "Current Sprint", out.Sprints[0].Label)

	for _, limit := range []float64{0, 500} {
		res := callTool(t, s, "list_sprints", map[string]any{"limit": limit})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "limit")
	}
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	// A nil manager is fine: validation happens before the store is touched.
	s := mcp_internal.NewMCPServer(&contract.Config{}, nil, "test")

	t.Run("get_developer_history missing developer", func(t *testing.T) {
		res := callTool(t, s, "get_developer_history", map[string]any{"developer": ""})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "a developer login is required")
	})

	t.Run("get_sprint_history bad limit", func(t *testing.T) {
		res := callTool(t, s, "get_sprint_history", map[string]any{"limit": -1.0})
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "[bad_input]")
	})

	t.Run("list_cached_sprints without store", func(t *testing.T) {
		res := callTool(t, s, "list_cached_sprints", nil)
		assert.True(t, res.IsError)
		assert.Contains(t, resultText(res), "sprint store is not initialized")
	})
}
