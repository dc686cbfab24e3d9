package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/opendxi/internal/logger"
	"github.com/huangsam/opendxi/schema"
)

// DXI label constants.
const (
	ExcellentValue = "Excellent"       // Excellent value
	GoodValue      = "Good"            // Good value
	ModerateValue  = "Moderate"        // Moderate value
	AttentionValue = "Needs attention" // Attention value
)

// Color variables for console output.
var (
	ExcellentColor = color.New(color.FgGreen, color.Bold) // excellentColor marks a healthy score.
	GoodColor      = color.New(color.FgCyan)              // goodColor marks a solid score.
	ModerateColor  = color.New(color.FgYellow)            // moderateColor represents standard caution, not bold.
	AttentionColor = color.New(color.FgRed, color.Bold)   // attentionColor represents standard danger.
)

// Process exit codes per error category.
const (
	ExitInternal            = 1
	ExitBadInput            = 2
	ExitUnauthorized        = 3
	ExitRateLimited         = 4
	ExitUpstreamUnavailable = 5
	ExitNotFound            = 6
)

// GetPlainLabel returns a plain text label for a DXI or dimension score.
// This is the core logic used for CSV, JSON, and table printing.
func GetPlainLabel(score float64) string {
	switch {
	case score >= 80:
		return ExcellentValue
	case score >= 60:
		return GoodValue
	case score >= 40:
		return ModerateValue
	default:
		return AttentionValue
	}
}

// GetColorLabel returns a colored text label for console output (table).
func GetColorLabel(score float64) string {
	text := GetPlainLabel(score)

	switch text {
	case ExcellentValue:
		return ExcellentColor.Sprint(text)
	case GoodValue:
		return GoodColor.Sprint(text)
	case ModerateValue:
		return ModerateColor.Sprint(text)
	default:
		return AttentionColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output.
// An empty path selects os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// ExitCode maps an error to a process exit code by its category.
func ExitCode(err error) int {
	switch schema.ErrorCategory(err) {
	case "":
		return 0
	case schema.CategoryBadInput:
		return ExitBadInput
	case schema.CategoryUnauthorized:
		return ExitUnauthorized
	case schema.CategoryRateLimited:
		return ExitRateLimited
	case schema.CategoryUpstreamUnavailable:
		return ExitUpstreamUnavailable
	case schema.CategoryNotFound:
		return ExitNotFound
	default:
		return ExitInternal
	}
}

// LogFatal logs an error with its category and exits the program.
func LogFatal(msg string, err error) {
	logger.Error().Err(err).Str("category", schema.ErrorCategory(err)).Msg(msg)
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s [%s]: %v\n", msg, schema.ErrorCategory(err), err)
	code := ExitCode(err)
	if code == 0 {
		code = ExitInternal
	}
	os.Exit(code)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	logger.Warn().Err(err).Msg(msg)
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetDBFilePath returns the default path to the SQLite DB file for sprint storage.
func GetDBFilePath() string {
	return filepath.Join(".data", "opendxi.db")
}

// TruncateText truncates a value to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the ellipsis and some content.
func TruncateText(s string, maxWidth int) string {
	runes := []rune(s)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return s
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
