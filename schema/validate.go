package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// PayloadVersion is the current version of the serialized SprintAggregate.
const PayloadVersion = 1

// EncodeAggregate validates the payload and serializes it.
func EncodeAggregate(a SprintAggregate, r SprintRange) ([]byte, error) {
	if a.Developers == nil {
		a.Developers = []DeveloperMetrics{}
	}
	if a.DailyActivity == nil {
		a.DailyActivity = []DailyActivity{}
	}
	if err := ValidateAggregate(&a, r); err != nil {
		return nil, err
	}
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode sprint payload: %w", err)
	}
	return data, nil
}

// DecodeAggregate parses and validates a stored payload.
func DecodeAggregate(data []byte, r SprintRange) (SprintAggregate, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return SprintAggregate{}, NewValidationError("payload", err.Error())
	}
	for _, key := range []string{"developers", "daily_activity"} {
		raw, ok := fields[key]
		if !ok || !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("[")) {
			return SprintAggregate{}, NewValidationError(key, "must be an array")
		}
	}

	var a SprintAggregate
	if err := json.Unmarshal(data, &a); err != nil {
		return SprintAggregate{}, NewValidationError("payload", err.Error())
	}
	if err := ValidateAggregate(&a, r); err != nil {
		return SprintAggregate{}, err
	}
	return a, nil
}

// ValidateAggregate checks shape and range invariants of a payload.
func ValidateAggregate(a *SprintAggregate, r SprintRange) error {
	if err := r.Validate(); err != nil {
		return err
	}
	for i, d := range a.Developers {
		field := fmt.Sprintf("developers[%d]", i)
		if d.Developer == "" {
			return NewValidationError(field+".developer", "must not be empty")
		}
		if err := nonNegative(field, d.Commits, d.PRsOpened, d.PRsMerged, d.ReviewsGiven, d.LinesAdded, d.LinesDeleted); err != nil {
			return err
		}
		for _, h := range []*float64{d.AvgReviewTimeHours, d.AvgCycleTimeHours} {
			if h != nil && (*h < 0 || math.IsNaN(*h)) {
				return NewValidationError(field, "timing averages must be non-negative")
			}
		}
		if err := scoresInRange(field+".dimension_scores", d.DimensionScores); err != nil {
			return err
		}
		if !inRange(d.DXIScore) {
			return NewValidationError(field+".dxi_score", fmt.Sprintf("%v outside [0,100]", d.DXIScore))
		}
	}

	if len(a.DailyActivity) != r.Days() {
		return NewValidationError("daily_activity", fmt.Sprintf("expected %d entries, got %d", r.Days(), len(a.DailyActivity)))
	}
	for i, day := range a.DailyActivity {
		want := r.Start.AddDate(0, 0, i).Format(DateLayout)
		if day.Date != want {
			return NewValidationError(fmt.Sprintf("daily_activity[%d].date", i), fmt.Sprintf("expected %s, got %s", want, day.Date))
		}
		if err := nonNegative(fmt.Sprintf("daily_activity[%d]", i), day.Commits, day.PRsOpened, day.PRsMerged, day.ReviewsGiven, day.LinesAdded, day.LinesDeleted); err != nil {
			return err
		}
	}

	s := a.Summary
	if err := nonNegative("summary", s.TotalCommits, s.TotalPRs, s.TotalMerged, s.TotalReviews, s.TotalLinesAdded, s.TotalLinesDeleted, s.DeveloperCount, s.WorkingDays); err != nil {
		return err
	}
	if !inRange(s.AvgDXIScore) {
		return NewValidationError("summary.avg_dxi_score", fmt.Sprintf("%v outside [0,100]", s.AvgDXIScore))
	}
	return scoresInRange("team_dimension_scores", a.TeamDimensionScores)
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 100
}

func scoresInRange(field string, d DimensionScores) error {
	for _, k := range AllDimensions {
		if v := d.Get(k); !inRange(v) {
			return NewValidationError(fmt.Sprintf("%s.%s", field, k), fmt.Sprintf("%v outside [0,100]", v))
		}
	}
	return nil
}

func nonNegative(field string, counters ...int) error {
	for _, c := range counters {
		if c < 0 {
			return NewValidationError(field, fmt.Sprintf("counter is negative (%d)", c))
		}
	}
	return nil
}
