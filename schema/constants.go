package schema

// Custom string types for type safety.
type (
	// DimensionKey represents one of the five DXI scoring dimensions.
	DimensionKey string

	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for the sprint store.
	DatabaseBackend string

	// PopulateOutcome describes what happened to one sprint during a batch refresh.
	PopulateOutcome string
)

// Dimension keys used in scoring breakdowns and payloads.
const (
	ReviewSpeed     DimensionKey = "review_speed"
	CycleTime       DimensionKey = "cycle_time"
	PRSize          DimensionKey = "pr_size"
	ReviewCoverage  DimensionKey = "review_coverage"
	CommitFrequency DimensionKey = "commit_frequency"
)

// AllDimensions lists the dimensions in display order.
var AllDimensions = []DimensionKey{ReviewSpeed, CycleTime, PRSize, ReviewCoverage, CommitFrequency}

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All store backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// Outcomes reported by a batch refresh.
const (
	OutcomeCached   PopulateOutcome = "cached"
	OutcomeFetched  PopulateOutcome = "fetched"
	OutcomeConflict PopulateOutcome = "conflict"
	OutcomeFailed   PopulateOutcome = "failed"
)

// DateLayout is the canonical calendar date representation used in keys and payloads.
const DateLayout = "2006-01-02"

// BotSuffix marks automation accounts on GitHub.
const BotSuffix = "[bot]"

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidDatabaseBackends lists all valid store backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidHolidayRegions lists the regions with public holiday calendars.
var ValidHolidayRegions = map[string]struct{}{
	"US": {},
	"GB": {},
	"DE": {},
	"FR": {},
	"JP": {},
	"CA": {},
	"AU": {},
}
