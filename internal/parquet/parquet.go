// Package parquet exports stored sprint aggregates to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/opendxi/schema"
	"github.com/parquet-go/parquet-go"
)

// DeveloperRow is one developer in one sprint.
type DeveloperRow struct {
	// SprintStart and SprintEnd are the YYYY-MM-DD window bounds
	SprintStart string `parquet:"sprint_start,snappy"`
	SprintEnd   string `parquet:"sprint_end,snappy"`

	Developer    string `parquet:"developer,snappy"`
	Commits      int32  `parquet:"commits,snappy"`
	PRsOpened    int32  `parquet:"prs_opened,snappy"`
	PRsMerged    int32  `parquet:"prs_merged,snappy"`
	ReviewsGiven int32  `parquet:"reviews_given,snappy"`
	LinesAdded   int32  `parquet:"lines_added,snappy"`
	LinesDeleted int32  `parquet:"lines_deleted,snappy"`

	// Timing averages are null when the developer had no samples
	AvgReviewTimeHours *float64 `parquet:"avg_review_time_hours,optional,snappy"`
	AvgCycleTimeHours  *float64 `parquet:"avg_cycle_time_hours,optional,snappy"`

	ScoreReviewSpeed     float64 `parquet:"score_review_speed,snappy"`
	ScoreCycleTime       float64 `parquet:"score_cycle_time,snappy"`
	ScorePRSize          float64 `parquet:"score_pr_size,snappy"`
	ScoreReviewCoverage  float64 `parquet:"score_review_coverage,snappy"`
	ScoreCommitFrequency float64 `parquet:"score_commit_frequency,snappy"`
	DXIScore             float64 `parquet:"dxi_score,snappy"`

	// UpdatedAt is when the sprint record was last written
	UpdatedAt time.Time `parquet:"updated_at,snappy"`
}

// DailyRow is the team activity of one calendar day.
type DailyRow struct {
	SprintStart  string `parquet:"sprint_start,snappy"`
	SprintEnd    string `parquet:"sprint_end,snappy"`
	Date         string `parquet:"date,snappy"`
	Workday      bool   `parquet:"workday,snappy"`
	Commits      int32  `parquet:"commits,snappy"`
	PRsOpened    int32  `parquet:"prs_opened,snappy"`
	PRsMerged    int32  `parquet:"prs_merged,snappy"`
	ReviewsGiven int32  `parquet:"reviews_given,snappy"`
	LinesAdded   int32  `parquet:"lines_added,snappy"`
	LinesDeleted int32  `parquet:"lines_deleted,snappy"`
}

// ConvertDeveloperRows flattens the developers of every record.
func ConvertDeveloperRows(records []*schema.SprintRecord) []DeveloperRow {
	var rows []DeveloperRow
	for _, rec := range records {
		for _, d := range rec.Payload.Developers {
			rows = append(rows, DeveloperRow{
				SprintStart:          rec.Range.StartKey(),
				SprintEnd:            rec.Range.EndKey(),
				Developer:            d.Developer,
				Commits:              int32(d.Commits),
				PRsOpened:            int32(d.PRsOpened),
				PRsMerged:            int32(d.PRsMerged),
				ReviewsGiven:         int32(d.ReviewsGiven),
				LinesAdded:           int32(d.LinesAdded),
				LinesDeleted:         int32(d.LinesDeleted),
				AvgReviewTimeHours:   d.AvgReviewTimeHours,
				AvgCycleTimeHours:    d.AvgCycleTimeHours,
				ScoreReviewSpeed:     d.DimensionScores.ReviewSpeed,
				ScoreCycleTime:       d.DimensionScores.CycleTime,
				ScorePRSize:          d.DimensionScores.PRSize,
				ScoreReviewCoverage:  d.DimensionScores.ReviewCoverage,
				ScoreCommitFrequency: d.DimensionScores.CommitFrequency,
				DXIScore:             d.DXIScore,
				UpdatedAt:            rec.UpdatedAt,
			})
		}
	}
	return rows
}

// ConvertDailyRows flattens the daily activity of every record.
func ConvertDailyRows(records []*schema.SprintRecord) []DailyRow {
	var rows []DailyRow
	for _, rec := range records {
		for _, day := range rec.Payload.DailyActivity {
			rows = append(rows, DailyRow{
				SprintStart:  rec.Range.StartKey(),
				SprintEnd:    rec.Range.EndKey(),
				Date:         day.Date,
				Workday:      day.Workday,
				Commits:      int32(day.Commits),
				PRsOpened:    int32(day.PRsOpened),
				PRsMerged:    int32(day.PRsMerged),
				ReviewsGiven: int32(day.ReviewsGiven),
				LinesAdded:   int32(day.LinesAdded),
				LinesDeleted: int32(day.LinesDeleted),
			})
		}
	}
	return rows
}

// WriteDevelopersParquet writes developer rows to a Parquet file.
func WriteDevelopersParquet(data []DeveloperRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// WriteDailyParquet writes daily rows to a Parquet file.
func WriteDailyParquet(data []DailyRow, outputPath string) error {
	return writeRows(data, outputPath)
}

// writeRows writes rows using struct schema inference from the parquet tags of T.
func writeRows[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ExportPaths returns the developer and daily file names derived from base.
func ExportPaths(base string) (developers, daily string) {
	return base + ".developers.parquet", base + ".daily.parquet"
}

// Export writes both row sets for records next to base and returns the row counts.
func Export(records []*schema.SprintRecord, base string) (devRows, dailyRows int, err error) {
	if base == "" {
		return 0, 0, schema.NewValidationError("output-file", "required for parquet export")
	}
	devPath, dailyPath := ExportPaths(base)

	devs := ConvertDeveloperRows(records)
	if err := WriteDevelopersParquet(devs, devPath); err != nil {
		return 0, 0, err
	}
	days := ConvertDailyRows(records)
	if err := WriteDailyParquet(days, dailyPath); err != nil {
		return 0, 0, err
	}
	return len(devs), len(days), nil
}
