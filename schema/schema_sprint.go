package schema

import (
	"fmt"
	"time"
)

// DimensionScores holds the five normalized [0,100] sub-scores.
type DimensionScores struct {
	ReviewSpeed     float64 `json:"review_speed"`
	CycleTime       float64 `json:"cycle_time"`
	PRSize          float64 `json:"pr_size"`
	ReviewCoverage  float64 `json:"review_coverage"`
	CommitFrequency float64 `json:"commit_frequency"`
}

// Get returns the score for a dimension key.
func (d DimensionScores) Get(key DimensionKey) float64 {
	switch key {
	case ReviewSpeed:
		return d.ReviewSpeed
	case CycleTime:
		return d.CycleTime
	case PRSize:
		return d.PRSize
	case ReviewCoverage:
		return d.ReviewCoverage
	case CommitFrequency:
		return d.CommitFrequency
	default:
		return 0
	}
}

// Map returns the scores keyed by dimension.
func (d DimensionScores) Map() map[DimensionKey]float64 {
	out := make(map[DimensionKey]float64, len(AllDimensions))
	for _, k := range AllDimensions {
		out[k] = d.Get(k)
	}
	return out
}

// DeveloperMetrics is the per-developer slice of a sprint payload.
type DeveloperMetrics struct {
	Developer          string          `json:"developer"`
	Commits            int             `json:"commits"`
	PRsOpened          int             `json:"prs_opened"`
	PRsMerged          int             `json:"prs_merged"`
	ReviewsGiven       int             `json:"reviews_given"`
	LinesAdded         int             `json:"lines_added"`
	LinesDeleted       int             `json:"lines_deleted"`
	AvgReviewTimeHours *float64        `json:"avg_review_time_hours"`
	AvgCycleTimeHours  *float64        `json:"avg_cycle_time_hours"`
	DimensionScores    DimensionScores `json:"dimension_scores"`
	DXIScore           float64         `json:"dxi_score"`
}

// LinesChanged returns lines added plus lines deleted.
func (d DeveloperMetrics) LinesChanged() int {
	return d.LinesAdded + d.LinesDeleted
}

// DailyActivity holds team-wide counters for one calendar day.
type DailyActivity struct {
	Date         string `json:"date"`
	Commits      int    `json:"commits"`
	PRsOpened    int    `json:"prs_opened"`
	PRsMerged    int    `json:"prs_merged"`
	ReviewsGiven int    `json:"reviews_given"`
	LinesAdded   int    `json:"lines_added"`
	LinesDeleted int    `json:"lines_deleted"`
	Workday      bool   `json:"workday"`
}

// Summary holds sprint-wide totals.
type Summary struct {
	TotalCommits      int     `json:"total_commits"`
	TotalPRs          int     `json:"total_prs"`
	TotalMerged       int     `json:"total_merged"`
	TotalReviews      int     `json:"total_reviews"`
	TotalLinesAdded   int     `json:"total_lines_added"`
	TotalLinesDeleted int     `json:"total_lines_deleted"`
	AvgDXIScore       float64 `json:"avg_dxi_score"`
	DeveloperCount    int     `json:"developer_count"`
	WorkingDays       int     `json:"working_days"`
}

// SprintAggregate is the payload persisted for a sprint window.
type SprintAggregate struct {
	Developers          []DeveloperMetrics `json:"developers"`
	DailyActivity       []DailyActivity    `json:"daily_activity"`
	Summary             Summary            `json:"summary"`
	TeamDimensionScores DimensionScores    `json:"team_dimension_scores"`
}

// FindDeveloper returns the metrics for login, if present.
func (a *SprintAggregate) FindDeveloper(login string) (DeveloperMetrics, bool) {
	for _, d := range a.Developers {
		if d.Developer == login {
			return d, true
		}
	}
	return DeveloperMetrics{}, false
}

// SprintRange is a closed calendar date range used as the store key.
type SprintRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewSprintRange parses two YYYY-MM-DD dates into a range.
func NewSprintRange(start, end string) (SprintRange, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return SprintRange{}, NewValidationError("start_date", fmt.Sprintf("invalid date %q", start))
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return SprintRange{}, NewValidationError("end_date", fmt.Sprintf("invalid date %q", end))
	}
	r := SprintRange{Start: s, End: e}
	return r, r.Validate()
}

// Validate checks start <= end.
func (r SprintRange) Validate() error {
	if r.Start.After(r.End) {
		return NewValidationError("start_date", fmt.Sprintf("%s is after end date %s", r.StartKey(), r.EndKey()))
	}
	return nil
}

// StartKey returns the start date as YYYY-MM-DD.
func (r SprintRange) StartKey() string { return r.Start.Format(DateLayout) }

// EndKey returns the end date as YYYY-MM-DD.
func (r SprintRange) EndKey() string { return r.End.Format(DateLayout) }

// Days returns the number of calendar days covered, inclusive.
func (r SprintRange) Days() int {
	return DaysBetween(r.Start, r.End) + 1
}

// String renders the range as "start|end".
func (r SprintRange) String() string {
	return r.StartKey() + "|" + r.EndKey()
}

// SprintRecord is the only persisted entity.
type SprintRecord struct {
	Range          SprintRange     `json:"range"`
	Payload        SprintAggregate `json:"payload"`
	PayloadVersion int             `json:"payload_version"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// CachedSprint is a listing entry for a stored range.
type CachedSprint struct {
	Range     SprintRange `json:"range"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// DaysBetween returns the number of whole calendar days from a to b,
// ignoring time of day.
func DaysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}

// DateOnly truncates t to its calendar day in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
