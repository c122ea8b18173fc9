// Package filesystem abstracts the data directory so discovery can be tested
// against an in-memory tree.
//
// Key interfaces:
//   - FileSystemProvider: opens directories, lists, stats and creates them
//   - Directory: a directory that can be walked in lexical order
//   - File: an individual entry with metadata
//
// Implementations:
//   - OSFileSystem: production implementation using the OS filesystem
//   - MemoryFileSystem: in-memory implementation for tests
package filesystem
