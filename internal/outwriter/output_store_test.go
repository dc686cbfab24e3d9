package outwriter

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/huangsam/opendxi/internal/contract"
	"github.com/huangsam/opendxi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteStoreStatusText(t *testing.T) {
	tests := []struct {
		name     string
		status   schema.StoreStatus
		contains []string
		absent   []string
	}{
		{
			name:     "disconnected",
			status:   schema.StoreStatus{Backend: "none"},
			contains: []string{"Backend: none", "Connected: false"},
			absent:   []string{"Sprints stored"},
		},
		{
			name: "populated",
			status: schema.StoreStatus{
				Backend: "sqlite", Connected: true, EntryCount: 3, TotalBytes: 8192, SchemaVersion: 1,
				OldestUpdate:    time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
				NewestUpdate:    time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
				PayloadVersions: []int{1, 2},
			},
			contains: []string{"Sprints stored: 3", "Size: 8.0 KiB", "Schema version: 1", "Payload versions: 1, 2", "2026-02-01T00:00:00Z"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeStoreStatusText(&buf, tt.status))
			for _, s := range tt.contains {
				assert.Contains(t, buf.String(), s)
			}
			for _, s := range tt.absent {
				assert.NotContains(t, buf.String(), s)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatBytes(tt.in))
	}
}

func TestCachedJSON(t *testing.T) {
	r := schema.SprintRange{Start: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)}
	out := cachedJSON([]schema.CachedSprint{{Range: r}})
	require.Len(t, out, 1)
	assert.Equal(t, "2026-01-07", out[0].StartDate)
	assert.Equal(t, "2026-01-20", out[0].EndDate)
	assert.Empty(t, cachedJSON(nil))
}

func TestWritePopulateTable(t *testing.T) {
	r := schema.SprintRange{Start: time.Date(2026, 1, 7, 0, 0, 0, 0, time.UTC), End: time.Date(2026, 1, 20, 0, 0, 0, 0, time.UTC)}
	report := schema.PopulateReport{
		RunID: "run-1",
		Results: []schema.PopulateResult{
			{Range: r, Outcome: schema.OutcomeFetched, Duration: 2 * time.Second},
			{Range: r, Outcome: schema.OutcomeCached},
		},
		Duration: 3 * time.Second,
	}
	report.Results = append(report.Results, schema.PopulateResult{Range: r})
	report.Results[2].Fail(errors.New("boom"))

	var buf bytes.Buffer
	require.NoError(t, writePopulateTable(&buf, report, &contract.Config{}))
	out := buf.String()
	assert.Contains(t, out, "fetched")
	assert.Contains(t, out, "cached")
	assert.Contains(t, out, "boom")
	assert.Contains(t, out, "Run run-1: 3 sprints, 1 failed in 3s")
}
