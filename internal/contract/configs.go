package contract

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/huangsam/opendxi/schema"
)

// Default values for configuration.
const (
	DefaultEndpoint           = "https://api.github.com/graphql"
	DefaultMaxPages           = 10
	DefaultRequestTimeout     = 60 * time.Second
	DefaultSprintStartDate    = "2026-01-07"
	DefaultSprintDurationDays = 14
	DefaultDBTimeout          = 30
	DefaultWorkers            = 3
	DefaultSprintLimit        = 6
	MaxSprintLimit            = 104
	DefaultPrecision          = 1
)

// ThresholdRaw holds an optional override for one linear scoring dimension.
type ThresholdRaw struct {
	Optimal *float64 `mapstructure:"optimal"`
	Poor    *float64 `mapstructure:"poor"`
}

// ScoringRawInput holds the scoring overrides from the YAML config file.
// Use float64 pointers for optional fields.
type ScoringRawInput struct {
	ReviewSpeed  ThresholdRaw `mapstructure:"review_speed"`
	CycleTime    ThresholdRaw `mapstructure:"cycle_time"`
	PRSize       ThresholdRaw `mapstructure:"pr_size"`
	ReviewTarget *float64     `mapstructure:"review_target"`
	CommitTarget *float64     `mapstructure:"commit_target"`

	// Weights keyed by dimension name. A partial map replaces only the named weights.
	Weights map[string]float64 `mapstructure:"weights"`
}

// Config holds the final, validated runtime configuration.
type Config struct {
	GitHubOrg         string
	GitHubToken       string // Please use env var as this is plaintext
	GitHubEndpoint    string
	MaxPages          int
	RequestTimeout    time.Duration
	RequestsPerSecond float64

	SprintStartDate    time.Time
	SprintDurationDays int

	// Range is set when both --start and --end were given.
	Range *schema.SprintRange
	// SprintOffset selects a sprint relative to the current one (0 = current, -1 = previous).
	SprintOffset int
	Limit        int
	Developer    string
	Force        bool

	StoreBackend   schema.DatabaseBackend
	StoreDBConnect string // Please use env var as this is plaintext
	DBTimeout      int    // seconds

	Workers       int
	HolidayRegion string
	LogLevel      string

	Output     schema.OutputMode
	OutputFile string
	Precision  int
	UseColors  bool
	Width      int // Terminal width override (0 = auto-detect)

	Scoring schema.ScoringConfig
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	GitHubOrg         string  `mapstructure:"github-org"`
	GitHubToken       string  `mapstructure:"github-token"`
	GitHubEndpoint    string  `mapstructure:"github-endpoint"`
	MaxPages          int     `mapstructure:"max-pages"`
	RequestTimeout    string  `mapstructure:"request-timeout"`
	RequestsPerSecond float64 `mapstructure:"requests-per-second"`

	SprintStartDate    string `mapstructure:"sprint-start-date"`
	SprintDurationDays int    `mapstructure:"sprint-duration-days"`

	StoreBackend   string `mapstructure:"store-backend"`
	StoreDBConnect string `mapstructure:"store-db-connect"`
	DBTimeout      int    `mapstructure:"db-timeout"`

	Workers       int    `mapstructure:"workers"`
	HolidayRegion string `mapstructure:"holiday-region"`
	LogLevel      string `mapstructure:"log-level"`

	Output     string `mapstructure:"output"`
	OutputFile string `mapstructure:"output-file"`
	Precision  int    `mapstructure:"precision"`
	Color      string `mapstructure:"color"`
	Width      int    `mapstructure:"width"`

	// --- Fields from sprint-scoped command flags ---
	Start     string `mapstructure:"start"`
	End       string `mapstructure:"end"`
	Sprint    int    `mapstructure:"sprint"`
	Limit     int    `mapstructure:"limit"`
	Developer string `mapstructure:"developer"`
	Force     bool   `mapstructure:"force"`

	// --- Scoring overrides from config file ---
	Scoring ScoringRawInput `mapstructure:"scoring"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Range != nil {
		r := *c.Range
		clone.Range = &r
	}
	clone.Scoring = c.Scoring.Clone()
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processGitHub(cfg, input); err != nil {
		return err
	}
	if err := processCadence(cfg, input); err != nil {
		return err
	}
	if err := processSprintRange(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	scoring, err := ProcessScoringRawInput(input.Scoring)
	if err != nil {
		return err
	}
	cfg.Scoring = scoring
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("store-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// ProcessScoringRawInput applies the raw overrides on top of the default scoring config
// and validates the result.
func ProcessScoringRawInput(raw ScoringRawInput) (schema.ScoringConfig, error) {
	sc := schema.DefaultScoringConfig()

	apply := func(th *schema.LinearThreshold, in ThresholdRaw) {
		if in.Optimal != nil {
			th.Optimal = *in.Optimal
		}
		if in.Poor != nil {
			th.Poor = *in.Poor
		}
	}
	apply(&sc.ReviewSpeed, raw.ReviewSpeed)
	apply(&sc.CycleTime, raw.CycleTime)
	apply(&sc.PRSize, raw.PRSize)

	if raw.ReviewTarget != nil {
		sc.ReviewTarget = *raw.ReviewTarget
	}
	if raw.CommitTarget != nil {
		sc.CommitTarget = *raw.CommitTarget
	}
	for name, w := range raw.Weights {
		sc.Weights[schema.DimensionKey(strings.ToLower(name))] = w
	}

	if err := sc.Validate(); err != nil {
		return schema.ScoringConfig{}, err
	}
	return sc, nil
}

// validateSimpleInputs processes and validates the presentation and worker fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Developer = strings.TrimSpace(input.Developer)
	cfg.Force = input.Force
	cfg.LogLevel = strings.ToLower(input.LogLevel)

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Limit <= 0 || input.Limit > MaxSprintLimit {
		return fmt.Errorf("limit must be greater than 0 and cannot exceed %d (received %d)", MaxSprintLimit, input.Limit)
	}
	cfg.Limit = input.Limit

	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}

	cfg.HolidayRegion = strings.ToUpper(strings.TrimSpace(input.HolidayRegion))
	if cfg.HolidayRegion != "" {
		if _, ok := schema.ValidHolidayRegions[cfg.HolidayRegion]; !ok {
			return fmt.Errorf("invalid holiday region '%s'. must be one of US, GB, DE, FR, JP, CA, AU", input.HolidayRegion)
		}
	}
	return nil
}

// processGitHub fills the fetcher settings. Token and org are checked lazily by the fetcher.
func processGitHub(cfg *Config, input *ConfigRawInput) error {
	cfg.GitHubOrg = strings.TrimSpace(input.GitHubOrg)
	cfg.GitHubToken = strings.TrimSpace(input.GitHubToken)
	if cfg.GitHubToken == "" {
		cfg.GitHubToken = strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
	}

	cfg.GitHubEndpoint = strings.TrimSpace(input.GitHubEndpoint)
	if cfg.GitHubEndpoint == "" {
		cfg.GitHubEndpoint = DefaultEndpoint
	}
	if !strings.HasPrefix(cfg.GitHubEndpoint, "http://") && !strings.HasPrefix(cfg.GitHubEndpoint, "https://") {
		return fmt.Errorf("github-endpoint must be an http(s) URL (received %q)", input.GitHubEndpoint)
	}

	if input.MaxPages <= 0 {
		return fmt.Errorf("max-pages must be greater than 0 (received %d)", input.MaxPages)
	}
	cfg.MaxPages = input.MaxPages

	cfg.RequestTimeout = DefaultRequestTimeout
	if input.RequestTimeout != "" {
		d, err := time.ParseDuration(input.RequestTimeout)
		if err != nil || d <= 0 {
			return fmt.Errorf("invalid request-timeout '%s'. expected a positive duration like 60s", input.RequestTimeout)
		}
		cfg.RequestTimeout = d
	}

	if input.RequestsPerSecond < 0 {
		return fmt.Errorf("requests-per-second cannot be negative (received %.2f)", input.RequestsPerSecond)
	}
	cfg.RequestsPerSecond = input.RequestsPerSecond
	return nil
}

// processCadence parses the sprint anchor and length.
func processCadence(cfg *Config, input *ConfigRawInput) error {
	anchor := input.SprintStartDate
	if anchor == "" {
		anchor = DefaultSprintStartDate
	}
	t, err := time.Parse(schema.DateLayout, anchor)
	if err != nil {
		return fmt.Errorf("invalid sprint-start-date '%s'. expected YYYY-MM-DD", input.SprintStartDate)
	}
	cfg.SprintStartDate = t

	if input.SprintDurationDays <= 0 {
		return fmt.Errorf("sprint-duration-days must be greater than 0 (received %d)", input.SprintDurationDays)
	}
	cfg.SprintDurationDays = input.SprintDurationDays
	return nil
}

// processSprintRange handles the explicit --start/--end window and the --sprint offset.
func processSprintRange(cfg *Config, input *ConfigRawInput) error {
	cfg.SprintOffset = input.Sprint
	if cfg.SprintOffset > 0 {
		return fmt.Errorf("sprint offset must be 0 or negative (received %d)", input.Sprint)
	}

	start, end := strings.TrimSpace(input.Start), strings.TrimSpace(input.End)
	switch {
	case start == "" && end == "":
		cfg.Range = nil
		return nil
	case start == "" || end == "":
		return fmt.Errorf("--start and --end must be given together")
	}
	r, err := schema.NewSprintRange(start, end)
	if err != nil {
		return err
	}
	cfg.Range = &r
	return nil
}

// validateBackendConfigs validates the store backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.StoreBackend = schema.DatabaseBackend(strings.ToLower(input.StoreBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.StoreBackend]; !ok {
		return fmt.Errorf("invalid store backend '%s'. must be sqlite, mysql, postgresql, none", input.StoreBackend)
	}
	cfg.StoreDBConnect = input.StoreDBConnect
	if err := ValidateDatabaseConnectionString(cfg.StoreBackend, cfg.StoreDBConnect); err != nil {
		return err
	}

	if input.DBTimeout <= 0 {
		return fmt.Errorf("db-timeout must be greater than 0 (received %d)", input.DBTimeout)
	}
	cfg.DBTimeout = input.DBTimeout
	return nil
}
