// Package scanner discovers OEWS source candidates in the data directory.
//
// The scanner is responsible for:
//   - Listing archives (*.zip) or loose spreadsheets (.xlsx, .xls, .csv)
//   - Ignoring hidden files and Office lock files
//   - Returning candidates in lexicographic order so that year
//     deduplication is deterministic across platforms
//
// The scanner is filesystem-agnostic through filesystem.FileSystemProvider,
// enabling tests against an in-memory tree.
package scanner
