// Package logging provides concrete implementations of the oews.Logger interface.
//
// Available implementations:
//   - ConsoleLogger: writes prefixed lines to stderr (or any writer)
//   - JSONLogger: writes one JSON object per line via logrus, for CI log shippers
//   - NullLogger: discards all messages (useful for testing)
//
// All logger implementations are safe for concurrent use by multiple goroutines.
package logging
