package oews

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess         = 0  // Import completed (per-year failures are reported, not fatal)
	ExitGeneralError    = 1  // Unknown or unclassified error
	ExitUsageError      = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic           = 3  // Internal panic (unexpected crash)
	ExitConfigError     = 10 // Missing credentials or invalid configuration
	ExitConnectionError = 11 // Failed to connect to database, recovery included
	ExitApprovalDenied  = 12 // User denied purge approval
	ExitYearFailed      = 13 // One or more years failed (only with --strict)
	ExitNoSources       = 14 // Nothing to import (only with --strict)
)

const (
	// TableName is the target table holding normalized records.
	TableName = "oews_data"

	// ImportLogTable records one row per year per import run.
	ImportLogTable = "oews_import_log"

	// DefaultBatchSize is the number of records appended per INSERT batch.
	DefaultBatchSize = 1000

	// DefaultHost is used when neither flag, environment nor oews.yaml name a host.
	DefaultHost = "localhost"

	// DefaultDatabase is the database name used when none is configured.
	DefaultDatabase = "oews"

	// DefaultMySQLPort is the default port (MySQL is the default driver).
	DefaultMySQLPort = 3306

	// DefaultPostgresPort is used when the driver is postgres and no port is configured.
	DefaultPostgresPort = 5432

	// DefaultManagementDB is the PostgreSQL database used to create a missing target database.
	DefaultManagementDB = "postgres"

	// DefaultDataDir is the directory scanned for inputs.
	DefaultDataDir = "data"

	// DefaultForceApprovalCountdown is the countdown before a forced purge proceeds.
	DefaultForceApprovalCountdown = 5 * time.Second

	// DefaultRetryInitialDelay is the initial delay before the first retry attempt.
	DefaultRetryInitialDelay = 250 * time.Millisecond

	// DefaultRetryMaxDelay caps the delay between retry attempts.
	DefaultRetryMaxDelay = 30 * time.Second

	// DefaultRetryMaxAttempts is the default maximum number of retry attempts.
	DefaultRetryMaxAttempts = 3

	// TwoDigitYearPivot splits two-digit years: NN >= pivot is 19NN, otherwise 20NN.
	TwoDigitYearPivot = 97
)
