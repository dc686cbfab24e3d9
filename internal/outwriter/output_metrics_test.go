package outwriter

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/huangsam/opendxi/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildScoringRenderModel(t *testing.T) {
	sc := schema.DefaultScoringConfig()
	model := buildScoringRenderModel(sc)

	require.Len(t, model.Dimensions, len(schema.AllDimensions))
	var sum float64
	for i, d := range model.Dimensions {
		assert.Equal(t, schema.AllDimensions[i], d.Key)
		sum += d.Weight
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
	assert.Equal(t, "0.25*review_speed + 0.25*cycle_time + 0.20*pr_size + 0.15*review_coverage + 0.15*commit_frequency", model.Formula)
	assert.Equal(t, "100 at <= 2h, 0 at >= 24h, linear between", model.Dimensions[0].Rule)
	assert.Equal(t, "min(100, commits / 20 * 100)", model.Dimensions[4].Rule)
}

func TestBuildScoringRenderModelCustom(t *testing.T) {
	sc := schema.DefaultScoringConfig()
	sc.PRSize = schema.LinearThreshold{Optimal: 100, Poor: 500}
	sc.Weights[schema.PRSize] = 0.5
	model := buildScoringRenderModel(sc)
	assert.Equal(t, "100 at <= 100 lines, 0 at >= 500 lines, linear between", model.Dimensions[2].Rule)
	assert.Equal(t, 0.5, model.Dimensions[2].Weight)
}

func TestWriteScoringOutputs(t *testing.T) {
	model := buildScoringRenderModel(schema.DefaultScoringConfig())

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeScoringText(&buf, model))
		assert.Contains(t, buf.String(), "DXI Scoring")
		assert.Contains(t, buf.String(), "review_coverage (weight 0.15)")
		assert.Contains(t, buf.String(), "Needs attention")
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeScoringCSV(&buf, model))
		records, err := csv.NewReader(&buf).ReadAll()
		require.NoError(t, err)
		require.Len(t, records, 6)
		assert.Equal(t, []string{"review_speed", "0.25"}, records[1][:2])
	})
}
