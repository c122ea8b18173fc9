package db

import (
	"context"
	"time"
)

// TokenProvider abstracts cloud token acquisition for database authentication.
type TokenProvider interface {
	// GetToken acquires a short-lived token used as the database password.
	GetToken(ctx context.Context) (token string, expiresOn time.Time, err error)

	// String describes the provider for logs. It never includes secrets.
	String() string
}

// AzureDatabaseScope is the OAuth scope for Azure Database for MySQL and
// PostgreSQL flexible servers.
const AzureDatabaseScope = "https://ossrdbms-aad.database.windows.net/.default"

// tokenExpiryWarning is the remaining lifetime below which a fresh token is reported.
const tokenExpiryWarning = 5 * time.Minute
