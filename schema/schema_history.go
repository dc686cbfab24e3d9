package schema

// Sprint describes a sprint window for range selectors.
type Sprint struct {
	Label     string      `json:"label"`
	Value     string      `json:"value"`
	Start     string      `json:"start"`
	End       string      `json:"end"`
	IsCurrent bool        `json:"is_current"`
	Range     SprintRange `json:"-"`
}

// SprintHistoryEntry is one team data point in a history series.
type SprintHistoryEntry struct {
	SprintLabel     string          `json:"sprint_label"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	AvgDXIScore     float64         `json:"avg_dxi_score"`
	DimensionScores DimensionScores `json:"dimension_scores"`
	DeveloperCount  int             `json:"developer_count"`
	TotalCommits    int             `json:"total_commits"`
	TotalPRs        int             `json:"total_prs"`
}

// DeveloperHistoryEntry is one developer data point in a history series.
type DeveloperHistoryEntry struct {
	SprintLabel        string          `json:"sprint_label"`
	StartDate          string          `json:"start_date"`
	EndDate            string          `json:"end_date"`
	DXIScore           float64         `json:"dxi_score"`
	DimensionScores    DimensionScores `json:"dimension_scores"`
	Commits            int             `json:"commits"`
	PRsOpened          int             `json:"prs_opened"`
	PRsMerged          int             `json:"prs_merged"`
	ReviewsGiven       int             `json:"reviews_given"`
	LinesAdded         int             `json:"lines_added"`
	LinesDeleted       int             `json:"lines_deleted"`
	AvgReviewTimeHours *float64        `json:"avg_review_time_hours"`
	AvgCycleTimeHours  *float64        `json:"avg_cycle_time_hours"`
}

// DeveloperHistory is a developer series alongside the team series for comparison.
type DeveloperHistory struct {
	Developer   string                  `json:"developer"`
	Sprints     []DeveloperHistoryEntry `json:"sprints"`
	TeamHistory []SprintHistoryEntry    `json:"team_history"`
}
