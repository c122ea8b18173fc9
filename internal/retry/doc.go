// Package retry retries transient database failures with exponential backoff.
//
// # Example Usage
//
//	executor := retry.NewExecutor(retry.NewClassifier(), retry.DefaultBackoff()).
//	    WithLogger(logger, "connect")
//
//	db, err := retry.Do(ctx, executor, func(ctx context.Context) (*sql.DB, error) {
//	    return open(ctx)
//	})
//
// # Error Classification
//
// Classifier recognizes transient MySQL server errors (too many connections,
// lock wait timeout, deadlock), transient PostgreSQL SQLSTATE classes
// (08, 40, 53, 57), driver-level bad connections and network failures.
// Authentication failures and unknown databases are fatal.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. WithOnRetry and WithLogger
// return new instances.
package retry
