// Package manager provides database lifecycle operations for the supported
// drivers.
//
// The import command uses it for one thing: when the target database does not
// exist, the connection layer connects to the server without a database
// (MySQL) or to the maintenance database (PostgreSQL), checks existence and
// creates the target before reconnecting.
//
// Identifiers are quoted with the driver's own rules (backticks for MySQL,
// pgx.Identifier.Sanitize for PostgreSQL), so names with spaces, quotes or
// semicolons are handled without injection.
//
// # Example Usage
//
//	mgr, err := manager.New(oews.DriverMySQL)
//
//	exists, err := mgr.Exists(ctx, admin, "oews")
//	if !exists {
//	    err = mgr.Create(ctx, admin, "oews")
//	}
package manager
