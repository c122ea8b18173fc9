package oews

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Mode selects the input shape scanned in the data directory.
type Mode string

const (
	// ModeArchive scans for zip archives, one per year, each holding the year's data files.
	ModeArchive Mode = "archive"
	// ModeFiles scans for loose spreadsheet or CSV files, one per year.
	ModeFiles Mode = "files"
)

// ParseMode converts a flag or config value into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "archive", "archives", "zip":
		return ModeArchive, nil
	case "files", "file", "loose", "spreadsheet":
		return ModeFiles, nil
	}
	return "", fmt.Errorf("unknown mode %q (expected archive or files): %w", s, ErrInvalidConfig)
}

// Driver names the relational store backend.
type Driver string

const (
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

// ParseDriver converts a flag or config value into a Driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mysql", "mariadb":
		return DriverMySQL, nil
	case "postgres", "postgresql", "pg":
		return DriverPostgres, nil
	}
	return "", fmt.Errorf("%q: %w", s, ErrUnsupportedDriver)
}

// DefaultPort returns the conventional port for the driver.
func (d Driver) DefaultPort() int {
	if d == DriverPostgres {
		return DefaultPostgresPort
	}
	return DefaultMySQLPort
}

// AuthMethod represents the type of authentication to use.
type AuthMethod int

const (
	AuthMethodStandard     AuthMethod = iota // Username/Password
	AuthMethodAWSIAM                         // AWS RDS IAM Database Authentication
	AuthMethodGoogleIAM                      // Google Cloud SQL IAM
	AuthMethodAzureEntraID                   // Azure Active Directory (Entra ID)
)

// String returns a human-readable string representation of the AuthMethod.
func (a AuthMethod) String() string {
	switch a {
	case AuthMethodStandard:
		return "Standard"
	case AuthMethodAWSIAM:
		return "AWS IAM"
	case AuthMethodGoogleIAM:
		return "Google IAM"
	case AuthMethodAzureEntraID:
		return "Azure Entra ID"
	default:
		return fmt.Sprintf("Unknown(%d)", a)
	}
}

// IsValid returns true if the AuthMethod is a valid, defined value.
func (a AuthMethod) IsValid() bool {
	return a >= AuthMethodStandard && a <= AuthMethodAzureEntraID
}

// ParseAuthMethod converts a flag or config value into an AuthMethod.
func ParseAuthMethod(s string) (AuthMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "standard", "password":
		return AuthMethodStandard, nil
	case "aws", "aws-iam", "awsiam":
		return AuthMethodAWSIAM, nil
	case "google", "gcp", "google-iam", "cloudsql":
		return AuthMethodGoogleIAM, nil
	case "azure", "entra", "azure-entra-id":
		return AuthMethodAzureEntraID, nil
	}
	return AuthMethodStandard, fmt.Errorf("%q: %w", s, ErrUnsupportedAuthMethod)
}

// ConnectionConfig represents resolved connection parameters.
type ConnectionConfig struct {
	Driver   Driver
	Host     string
	Port     int
	Database string
	Username string
	Password string

	// SSLMode is the PostgreSQL sslmode, or for MySQL the tls parameter
	// ("true", "false", "skip-verify", "preferred").
	SSLMode string

	// AuthMethod indicates the authentication mechanism to use
	AuthMethod AuthMethod

	ConnectTimeout   time.Duration
	AdditionalParams map[string]string

	// AWS RDS IAM
	AWSRegion string

	// Google Cloud SQL instance connection name (project:region:instance)
	GoogleInstance string

	// Azure Entra ID. If all three are set, Service Principal authentication is used,
	// otherwise the DefaultAzureCredential chain.
	AzureTenantID     string
	AzureClientID     string
	AzureClientSecret string
}

// Address returns host:port.
func (c ConnectionConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Validate fails fast on missing credentials before any store contact.
func (c *ConnectionConfig) Validate() error {
	var errs []error

	if c.Driver != DriverMySQL && c.Driver != DriverPostgres {
		errs = append(errs, fmt.Errorf("driver %q: %w", c.Driver, ErrUnsupportedDriver))
	}
	if c.Username == "" {
		errs = append(errs, fmt.Errorf("database user is required (set DB_USER or -U): %w", ErrInvalidConfig))
	}
	if c.AuthMethod == AuthMethodStandard && c.Password == "" {
		errs = append(errs, fmt.Errorf("database password is required (set DB_PASSWORD): %w", ErrInvalidConfig))
	}
	if c.Host == "" && c.AuthMethod != AuthMethodGoogleIAM {
		errs = append(errs, fmt.Errorf("database host is required: %w", ErrInvalidConfig))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range: %w", c.Port, ErrInvalidConfig))
	}
	if c.Database == "" {
		errs = append(errs, fmt.Errorf("database name is required: %w", ErrInvalidConfig))
	}
	if !c.AuthMethod.IsValid() {
		errs = append(errs, fmt.Errorf("auth method %v: %w", c.AuthMethod, ErrUnsupportedAuthMethod))
	}
	if c.AuthMethod == AuthMethodGoogleIAM && c.GoogleInstance == "" {
		errs = append(errs, fmt.Errorf("Google Cloud SQL auth requires an instance connection name: %w", ErrInvalidConfig))
	}
	if c.AuthMethod == AuthMethodAWSIAM && c.AWSRegion == "" {
		errs = append(errs, fmt.Errorf("AWS IAM auth requires a region (--aws-region or $AWS_REGION): %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ImportConfig is the single configuration value for an import run.
// It is built once at process entry and passed to every component that needs it.
type ImportConfig struct {
	// DataDir is scanned for inputs and created if absent.
	DataDir string

	// Mode selects archive or loose-file discovery.
	Mode Mode

	Connection ConnectionConfig

	// BatchSize is the number of records per INSERT batch.
	BatchSize int

	// Atomic wraps each year's delete and appends in one transaction.
	Atomic bool

	// SkipUnchanged skips a year whose input checksum matches its last successful import.
	SkipUnchanged bool

	// DryRun discovers, parses and normalizes without contacting the store.
	DryRun bool

	// Years restricts the run to these years when non-empty.
	Years []int

	// Timeout bounds the whole run (0 = no limit).
	Timeout time.Duration

	Verbose bool
}

// Validate checks every field and returns all violations joined.
func (c *ImportConfig) Validate() error {
	var errs []error

	if c.DataDir == "" {
		errs = append(errs, fmt.Errorf("data directory is required: %w", ErrInvalidConfig))
	}
	if c.Mode != ModeArchive && c.Mode != ModeFiles {
		errs = append(errs, fmt.Errorf("mode %q: %w", c.Mode, ErrInvalidConfig))
	}
	if c.BatchSize <= 0 {
		errs = append(errs, fmt.Errorf("batch size must be positive, got %d: %w", c.BatchSize, ErrInvalidConfig))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}
	if !c.DryRun {
		if err := c.Connection.Validate(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// WantsYear reports whether the Years filter admits year.
func (c *ImportConfig) WantsYear(year int) bool {
	if len(c.Years) == 0 {
		return true
	}
	for _, y := range c.Years {
		if y == year {
			return true
		}
	}
	return false
}

// YearSource associates a target year with the concrete input that supplies it.
// It lives for one run only.
type YearSource struct {
	Year int
	Path string
	Mode Mode

	// Sheet pins the worksheet for loose-file inputs; empty lets the selector choose.
	Sheet string
}

// YearOutcome is the result of loading one year: success with a row count,
// a skip with its reason, or a failure carrying a *YearError.
type YearOutcome struct {
	Year   int
	Source string

	// File is the data file actually parsed (inside the archive for archive mode).
	File  string
	Sheet string

	Rows     int64
	Deleted  int64
	Checksum string

	Skipped    bool
	SkipReason error

	Err      error
	Duration time.Duration
}

// Succeeded reports whether the year loaded (a skip is not a failure).
func (o YearOutcome) Succeeded() bool {
	return o.Err == nil
}

// Status returns the import log status for the outcome.
func (o YearOutcome) Status() string {
	switch {
	case o.Err != nil:
		return StatusFailed
	case o.Skipped && errors.Is(o.SkipReason, ErrUnchanged):
		return StatusUnchanged
	case o.Skipped:
		return StatusSkipped
	default:
		return StatusLoaded
	}
}

// Import log statuses.
const (
	StatusLoaded    = "loaded"
	StatusSkipped   = "skipped"
	StatusUnchanged = "unchanged"
	StatusFailed    = "failed"
)

// ErrUnchanged is the skip reason when an input matches its last successful import.
var ErrUnchanged = errors.New("input unchanged since last import")

// Summary describes what the store holds after a run.
type Summary struct {
	TotalRecords int64
	Years        []int
}

// RunReport aggregates everything an import run observed.
type RunReport struct {
	RunID uuid.UUID

	// Discovered lists every candidate input, lexicographically.
	Discovered []string
	// Unresolved lists candidates whose file name yields no year.
	Unresolved []string
	// Duplicates lists candidates dropped because an earlier one claimed the year.
	Duplicates []string

	Outcomes []YearOutcome
	Summary  Summary

	Started  time.Time
	Finished time.Time
}

// Loaded returns the outcomes that completed without error and were not skipped.
func (r *RunReport) Loaded() []YearOutcome {
	var out []YearOutcome
	for _, o := range r.Outcomes {
		if o.Err == nil && !o.Skipped {
			out = append(out, o)
		}
	}
	return out
}

// Failed returns the outcomes that ended in error.
func (r *RunReport) Failed() []YearOutcome {
	var out []YearOutcome
	for _, o := range r.Outcomes {
		if o.Err != nil {
			out = append(out, o)
		}
	}
	return out
}

// Err joins the per-year failures, or returns nil when every year succeeded.
func (r *RunReport) Err() error {
	var errs []error
	for _, o := range r.Failed() {
		errs = append(errs, o.Err)
	}
	return errors.Join(errs...)
}

// ImportLogEntry is one row of the import log.
type ImportLogEntry struct {
	RunID        uuid.UUID
	Year         int
	SourceFile   string
	DataFile     string
	SheetName    string
	Checksum     string
	RowsLoaded   int64
	Status       string
	ErrorMessage string
	StartedAt    time.Time
	FinishedAt   time.Time
}

// NewImportLogEntry builds the log row for an outcome.
func NewImportLogEntry(runID uuid.UUID, o YearOutcome, started time.Time) ImportLogEntry {
	entry := ImportLogEntry{
		RunID:      runID,
		Year:       o.Year,
		SourceFile: o.Source,
		DataFile:   o.File,
		SheetName:  o.Sheet,
		Checksum:   o.Checksum,
		RowsLoaded: o.Rows,
		Status:     o.Status(),
		StartedAt:  started,
		FinishedAt: started.Add(o.Duration),
	}
	switch {
	case o.Err != nil:
		entry.ErrorMessage = o.Err.Error()
	case o.SkipReason != nil:
		entry.ErrorMessage = o.SkipReason.Error()
	}
	return entry
}
