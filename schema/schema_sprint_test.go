package schema

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSprintRange(t *testing.T) {
	r, err := NewSprintRange("2026-01-07", "2026-01-20")
	require.NoError(t, err)
	assert.Equal(t, 14, r.Days())
	assert.Equal(t, "2026-01-07|2026-01-20", r.String())
	assert.Equal(t, "2026-01-07", r.StartKey())
	assert.Equal(t, "2026-01-20", r.EndKey())

	single, err := NewSprintRange("2026-02-01", "2026-02-01")
	require.NoError(t, err)
	assert.Equal(t, 1, single.Days())

	tests := []struct {
		name       string
		start, end string
	}{
		{"bad start", "2026/01/07", "2026-01-20"},
		{"bad end", "2026-01-07", "tomorrow"},
		{"inverted", "2026-01-20", "2026-01-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSprintRange(tt.start, tt.end)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestDaysBetweenIgnoresTimeOfDay(t *testing.T) {
	a := time.Date(2026, 1, 7, 23, 59, 0, 0, time.UTC)
	b := time.Date(2026, 1, 8, 0, 1, 0, 0, time.UTC)
	assert.Equal(t, 1, DaysBetween(a, b))
	assert.Equal(t, -1, DaysBetween(b, a))
	assert.Equal(t, 0, DaysBetween(a, a))

	assert.Equal(t, 365, DaysBetween(time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFindDeveloper(t *testing.T) {
	agg := SprintAggregate{Developers: []DeveloperMetrics{{Developer: "alice"}, {Developer: "bob", Commits: 3}}}
	d, ok := agg.FindDeveloper("bob")
	require.True(t, ok)
	assert.Equal(t, 3, d.Commits)
	_, ok = agg.FindDeveloper("carol")
	assert.False(t, ok)
}

func TestDimensionScoresMap(t *testing.T) {
	d := DimensionScores{ReviewSpeed: 1, CycleTime: 2, PRSize: 3, ReviewCoverage: 4, CommitFrequency: 5}
	m := d.Map()
	assert.Len(t, m, 5)
	assert.Equal(t, 3.0, m[PRSize])
	assert.Equal(t, 0.0, d.Get("unknown"))
}
