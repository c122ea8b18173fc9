// Package store implements oews.Store over database/sql for MySQL and
// PostgreSQL.
//
// The SQL differences between the two servers are isolated in a Dialect:
// placeholder syntax, identifier quoting, DDL and the bind parameter limit.
// Everything else (the replace-by-year protocol, multi-row inserts, the
// import log and summary queries) is shared.
//
// # Replace protocol
//
// A year is replaced by deleting every row with that year and appending the
// new records in batches. WithinYear runs both steps inside one transaction
// when atomic is true, so a failed append leaves the previous data in place.
// Without atomic, each statement commits on its own.
package store
