package oews

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the failure classes of an import run.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	report, err := importer.Run(ctx, cfg)
//	if errors.Is(err, oews.ErrConnectionFailed) {
//	    // database unreachable even after creating it
//	}
var (
	// ErrInvalidConfig indicates missing credentials or an invalid configuration value.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the database could not be reached,
	// including after the create-database recovery attempt.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrNoSources indicates discovery found no input with a resolvable year.
	ErrNoSources = errors.New("no importable sources found")

	// ErrYearFailed marks the failure of a single year's load.
	ErrYearFailed = errors.New("year load failed")

	// ErrEmptySource indicates the selected file or sheet contained no data rows.
	ErrEmptySource = errors.New("source contains no rows")

	// ErrNoDataFile indicates an archive held no spreadsheet or CSV file.
	ErrNoDataFile = errors.New("no data file in archive")

	// ErrUnsupportedFormat indicates a file extension no reader handles.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrUnsupportedAuthMethod indicates the requested authentication method is not supported.
	ErrUnsupportedAuthMethod = errors.New("unsupported authentication method")

	// ErrUnsupportedDriver indicates a database driver other than mysql or postgres.
	ErrUnsupportedDriver = errors.New("unsupported database driver")

	// ErrApprovalDenied indicates the user denied approval for a destructive operation.
	ErrApprovalDenied = errors.New("approval denied")
)

// Load stages reported in YearError.
const (
	StageLocate    = "locate"
	StageParse     = "parse"
	StageNormalize = "normalize"
	StageDelete    = "delete"
	StageAppend    = "append"
	StageChecksum  = "checksum"
)

// YearError is the failure of one year at one stage of the Year Loader.
// It matches ErrYearFailed with errors.Is and unwraps to the cause.
type YearError struct {
	Year  int
	Stage string
	Err   error
}

func (e *YearError) Error() string {
	return fmt.Sprintf("year %d: %s: %v", e.Year, e.Stage, e.Err)
}

func (e *YearError) Unwrap() error { return e.Err }

// Is reports ErrYearFailed as a match so callers need not know the concrete type.
func (e *YearError) Is(target error) bool {
	return target == ErrYearFailed
}

// NewYearError wraps err for the given year and stage. A nil err yields nil.
func NewYearError(year int, stage string, err error) error {
	if err == nil {
		return nil
	}
	return &YearError{Year: year, Stage: stage, Err: err}
}

// usagePatterns are cobra/pflag messages produced for command-line misuse.
var usagePatterns = []string{
	"unknown flag",
	"unknown shorthand flag",
	"unknown command",
	"arg(s), received",
	"required flag",
	"invalid argument",
	"flag needs an argument",
	"missing required argument",
}

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig),
		errors.Is(err, ErrUnsupportedAuthMethod),
		errors.Is(err, ErrUnsupportedDriver):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrApprovalDenied):
		return ExitApprovalDenied
	case errors.Is(err, ErrYearFailed):
		return ExitYearFailed
	case errors.Is(err, ErrNoSources):
		return ExitNoSources
	}

	errStr := err.Error()
	for _, p := range usagePatterns {
		if strings.Contains(errStr, p) {
			return ExitUsageError
		}
	}

	if strings.Contains(errStr, "failed to connect") ||
		strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}
