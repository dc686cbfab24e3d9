package schema

import (
	"fmt"
	"math"
)

// LinearThreshold maps a raw value onto [0,100] between an optimal and a poor value.
type LinearThreshold struct {
	Optimal float64 `json:"optimal" mapstructure:"optimal"`
	Poor    float64 `json:"poor" mapstructure:"poor"`
}

// ScoringConfig holds the thresholds and weights used by the score engine.
// It is passed explicitly so that alternate weightings never touch shared state.
type ScoringConfig struct {
	ReviewSpeed LinearThreshold // hours from PR open to review submit
	CycleTime   LinearThreshold // hours from PR open to merge
	PRSize      LinearThreshold // lines changed per PR

	// Saturation targets: a count at or above target scores 100.
	ReviewTarget float64
	CommitTarget float64

	Weights map[DimensionKey]float64
}

// DefaultScoringConfig returns the standard DXI thresholds and weights.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		ReviewSpeed:  LinearThreshold{Optimal: 2, Poor: 24},
		CycleTime:    LinearThreshold{Optimal: 8, Poor: 72},
		PRSize:       LinearThreshold{Optimal: 200, Poor: 1000},
		ReviewTarget: 10,
		CommitTarget: 20,
		Weights: map[DimensionKey]float64{
			ReviewSpeed:     0.25,
			CycleTime:       0.25,
			PRSize:          0.20,
			ReviewCoverage:  0.15,
			CommitFrequency: 0.15,
		},
	}
}

// Clone returns a deep copy.
func (c ScoringConfig) Clone() ScoringConfig {
	out := c
	out.Weights = make(map[DimensionKey]float64, len(c.Weights))
	for k, v := range c.Weights {
		out.Weights[k] = v
	}
	return out
}

// Validate ensures weights are non-negative and sum to 1, and thresholds are usable.
func (c ScoringConfig) Validate() error {
	var sum float64
	for _, k := range AllDimensions {
		w, ok := c.Weights[k]
		if !ok {
			return NewValidationError("scoring.weights", fmt.Sprintf("missing weight for %s", k))
		}
		if w < 0 {
			return NewValidationError("scoring.weights", fmt.Sprintf("weight for %s is negative (%.2f)", k, w))
		}
		sum += w
	}
	if len(c.Weights) != len(AllDimensions) {
		return NewValidationError("scoring.weights", "unknown dimension in weights")
	}
	if math.Abs(sum-1.0) > 1e-9 {
		return NewValidationError("scoring.weights", fmt.Sprintf("weights must sum to 1.0 (got %.4f)", sum))
	}
	for name, th := range map[string]LinearThreshold{
		"review_speed": c.ReviewSpeed,
		"cycle_time":   c.CycleTime,
		"pr_size":      c.PRSize,
	} {
		if th.Poor == th.Optimal {
			return NewValidationError("scoring."+name, "poor and optimal thresholds must differ")
		}
	}
	if c.ReviewTarget <= 0 || c.CommitTarget <= 0 {
		return NewValidationError("scoring.targets", "review and commit targets must be positive")
	}
	return nil
}
