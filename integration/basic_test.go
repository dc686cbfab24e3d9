//go:build basic

// Package integration contains end-to-end tests for the opendxi binary.
// These tests are excluded from normal test runs due to build tags.
// To run these tests: go test -tags basic ./integration
package integration

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// offlineEnv keeps every run away from GitHub and the user's store.
var offlineEnv = []string{
	"OPENDXI_STORE_BACKEND=none",
	"OPENDXI_GITHUB_ORG=acme",
}

func TestVersionCommand(t *testing.T) {
	out, err := runCommand(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "opendxi CLI")
	assert.Contains(t, out, "Runtime:")
}

func TestSprintsCommand(t *testing.T) {
	out, err := runCommand(t, offlineEnv, "sprints", "--output", "json", "--limit", "3")
	require.NoError(t, err)

	var got struct {
		Sprints []struct {
			Label     string `json:"label"`
			Start     string `json:"start"`
			End       string `json:"end"`
			IsCurrent bool   `json:"is_current"`
			Cached    bool   `json:"cached"`
		} `json:"sprints"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Sprints, 3)
	assert.True(t, got.Sprints[0].IsCurrent)
	assert.Equal(t, "Current Sprint", got.Sprints[0].Label)
	for i, s := range got.Sprints {
		assert.Less(t, s.Start, s.End)
		assert.False(t, s.Cached)
		if i > 0 {
			assert.Less(t, s.End, got.Sprints[i-1].Start, "sprints are newest first and do not overlap")
		}
	}
}

func TestScoringCommand(t *testing.T) {
	out, err := runCommand(t, offlineEnv, "scoring", "--output", "json")
	require.NoError(t, err)

	var got struct {
		Dimensions []struct {
			Key    string  `json:"key"`
			Weight float64 `json:"weight"`
		} `json:"dimensions"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	require.Len(t, got.Dimensions, 5)

	var sum float64
	for _, d := range got.Dimensions {
		sum += d.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestInvalidConfigExitCode(t *testing.T) {
	_, err := runCommand(t, offlineEnv, "sprints", "--limit", "0")
	require.Error(t, err)
}
