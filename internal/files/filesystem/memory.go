package filesystem

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// memoryFileInfo implements fs.FileInfo for in-memory entries
type memoryFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
	isDir   bool
}

func (f *memoryFileInfo) Name() string       { return f.name }
func (f *memoryFileInfo) Size() int64        { return f.size }
func (f *memoryFileInfo) Mode() fs.FileMode  { return f.mode }
func (f *memoryFileInfo) ModTime() time.Time { return f.modTime }
func (f *memoryFileInfo) IsDir() bool        { return f.isDir }
func (f *memoryFileInfo) Sys() interface{}   { return nil }

// memoryFile implements File for in-memory entries
type memoryFile struct {
	absPath string
	relPath string
	info    fs.FileInfo
}

func (f *memoryFile) Path() string         { return f.absPath }
func (f *memoryFile) RelativePath() string { return f.relPath }
func (f *memoryFile) Info() FileInfo       { return f.info }

// memoryDirectory implements Directory for the in-memory filesystem
type memoryDirectory struct {
	absPath string
	fs      *MemoryFileSystem
}

func (d *memoryDirectory) Path() string { return d.absPath }

func (d *memoryDirectory) Walk(fn func(File, error) error) error {
	entries := d.fs.entriesUnder(d.absPath)
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].absPath < entries[j].absPath
	})

	var skipped []string
	for _, entry := range entries {
		if underAny(entry.absPath, skipped) {
			continue
		}

		rel := strings.TrimPrefix(strings.TrimPrefix(entry.absPath, d.absPath), "/")
		if rel == "" {
			rel = "."
		}
		view := &memoryFile{absPath: entry.absPath, relPath: rel, info: entry.info}

		var callbackErr error
		func() {
			defer func() {
				if r := recover(); r != nil {
					callbackErr = fmt.Errorf("walk callback panicked at %s: %v", entry.absPath, r)
				}
			}()
			callbackErr = fn(view, nil)
		}()

		if callbackErr == fs.SkipDir && entry.info.IsDir() {
			skipped = append(skipped, entry.absPath)
			continue
		}
		if callbackErr != nil {
			return callbackErr
		}
	}
	return nil
}

func underAny(p string, dirs []string) bool {
	for _, d := range dirs {
		if strings.HasPrefix(p, d+"/") {
			return true
		}
	}
	return false
}

// MemoryFileSystem implements FileSystemProvider for in-memory testing
type MemoryFileSystem struct {
	mu    sync.RWMutex
	files map[string]*memoryFile // absolute path -> entry
	root  string
}

// NewMemoryFileSystem creates a new in-memory filesystem rooted at root.
// Paths use forward slashes regardless of platform.
func NewMemoryFileSystem(root string) *MemoryFileSystem {
	root = path.Clean(filepath.ToSlash(root))
	mfs := &MemoryFileSystem{
		files: make(map[string]*memoryFile),
		root:  root,
	}
	mfs.files[root] = newMemoryDir(root)
	return mfs
}

func newMemoryDir(abs string) *memoryFile {
	return &memoryFile{
		absPath: abs,
		info: &memoryFileInfo{
			name:    path.Base(abs),
			mode:    0o755 | fs.ModeDir,
			modTime: time.Now(),
			isDir:   true,
		},
	}
}

// AddFile adds a file of the given size.
func (mfs *MemoryFileSystem) AddFile(filePath string, size int64) {
	mfs.AddFileWithTime(filePath, size, time.Now())
}

// AddFileWithTime adds a file with a specific modification time
func (mfs *MemoryFileSystem) AddFileWithTime(filePath string, size int64, modTime time.Time) {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	abs := mfs.abs(filePath)
	mfs.files[abs] = &memoryFile{
		absPath: abs,
		info: &memoryFileInfo{
			name:    path.Base(abs),
			size:    size,
			mode:    0o644,
			modTime: modTime,
		},
	}
	mfs.ensureParents(abs)
}

func (mfs *MemoryFileSystem) abs(p string) string {
	p = filepath.ToSlash(p)
	if p == "" || p == "." {
		return mfs.root
	}
	if path.IsAbs(p) {
		return path.Clean(p)
	}
	return path.Clean(path.Join(mfs.root, p))
}

func (mfs *MemoryFileSystem) ensureParents(abs string) {
	for dir := path.Dir(abs); dir != "/" && dir != "."; dir = path.Dir(dir) {
		if _, ok := mfs.files[dir]; ok {
			return
		}
		mfs.files[dir] = newMemoryDir(dir)
	}
}

func (mfs *MemoryFileSystem) entriesUnder(base string) []*memoryFile {
	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	var entries []*memoryFile
	for p, f := range mfs.files {
		if p == base || strings.HasPrefix(p, strings.TrimSuffix(base, "/")+"/") {
			entries = append(entries, f)
		}
	}
	return entries
}

// Open implements FileSystemProvider.Open
func (mfs *MemoryFileSystem) Open(openPath string) (Directory, error) {
	abs := mfs.abs(openPath)

	mfs.mu.RLock()
	f, ok := mfs.files[abs]
	mfs.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("directory not found: %s", openPath)
	}
	if !f.info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", openPath)
	}
	return &memoryDirectory{absPath: abs, fs: mfs}, nil
}

// ReadDir implements FileSystemProvider.ReadDir
func (mfs *MemoryFileSystem) ReadDir(dirPath string) ([]FileInfo, error) {
	abs := mfs.abs(dirPath)

	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	f, ok := mfs.files[abs]
	if !ok {
		return nil, fmt.Errorf("failed to read directory: %s: %w", dirPath, fs.ErrNotExist)
	}
	if !f.info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dirPath)
	}

	var result []FileInfo
	for p, entry := range mfs.files {
		if p != abs && path.Dir(p) == abs {
			result = append(result, entry.info)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result, nil
}

// Stat implements FileSystemProvider.Stat
func (mfs *MemoryFileSystem) Stat(statPath string) (FileInfo, error) {
	abs := mfs.abs(statPath)

	mfs.mu.RLock()
	defer mfs.mu.RUnlock()

	f, ok := mfs.files[abs]
	if !ok {
		return nil, fmt.Errorf("path not found: %s: %w", statPath, fs.ErrNotExist)
	}
	return f.info, nil
}

// MkdirAll implements FileSystemProvider.MkdirAll
func (mfs *MemoryFileSystem) MkdirAll(dirPath string) error {
	mfs.mu.Lock()
	defer mfs.mu.Unlock()

	abs := mfs.abs(dirPath)
	if f, ok := mfs.files[abs]; ok {
		if !f.info.IsDir() {
			return fmt.Errorf("path is a file: %s", dirPath)
		}
		return nil
	}
	mfs.files[abs] = newMemoryDir(abs)
	mfs.ensureParents(abs)
	return nil
}
