package filesystem

import (
	"io/fs"
)

// FileInfo is an alias for fs.FileInfo from the standard library.
type FileInfo = fs.FileInfo

// File represents an entry discovered under a directory.
type File interface {
	// Path returns the absolute path to the file
	Path() string

	// RelativePath returns the path relative to the walked root
	RelativePath() string

	// Info returns file metadata
	Info() FileInfo
}

// Directory represents a directory that can be traversed to discover files.
type Directory interface {
	// Path returns the absolute path to the directory
	Path() string

	// Walk visits every entry under the directory in lexical order.
	// If fn returns an error, walking stops. fs.SkipDir skips a directory.
	Walk(fn func(File, error) error) error
}

// FileSystemProvider is a factory for Directory instances plus the handful
// of direct operations discovery needs.
type FileSystemProvider interface {
	// Open opens a directory at the specified path
	Open(path string) (Directory, error)

	// ReadDir lists the immediate entries of path, sorted by name.
	ReadDir(path string) ([]FileInfo, error)

	// Stat returns file information for the given path
	Stat(path string) (FileInfo, error)

	// MkdirAll creates path and any missing parents.
	MkdirAll(path string) error
}
