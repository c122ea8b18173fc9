package scanner

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vvka-141/oews/internal/files/filesystem"
	"github.com/vvka-141/oews/internal/files/selector"
	"github.com/vvka-141/oews/pkg/oews"
)

// Candidate is a discovered source file.
type Candidate struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Scanner discovers source candidates. It is safe for concurrent use as long
// as the underlying provider is.
type Scanner struct {
	fsProvider filesystem.FileSystemProvider
	recursive  bool
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithRecursive descends into subdirectories of the data directory.
func WithRecursive(recursive bool) Option {
	return func(s *Scanner) { s.recursive = recursive }
}

// NewScanner creates a scanner over the OS filesystem.
func NewScanner(opts ...Option) *Scanner {
	return NewScannerWithFS(filesystem.NewOSFileSystem(), opts...)
}

// NewScannerWithFS creates a scanner over a custom filesystem provider.
// Panics if fsProvider is nil.
func NewScannerWithFS(fsProvider filesystem.FileSystemProvider, opts ...Option) *Scanner {
	if fsProvider == nil {
		panic("fsProvider cannot be nil")
	}
	s := &Scanner{fsProvider: fsProvider}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureDir creates dir when it does not exist yet.
func (s *Scanner) EnsureDir(dir string) (created bool, err error) {
	info, err := s.fsProvider.Stat(dir)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%w: data dir %s is not a directory", oews.ErrInvalidConfig, dir)
		}
		return false, nil
	}
	if err := s.fsProvider.MkdirAll(dir); err != nil {
		return false, err
	}
	return true, nil
}

// Discover lists the candidates for mode under dir, sorted by path.
func (s *Scanner) Discover(dir string, mode oews.Mode) ([]Candidate, error) {
	match, err := matcherFor(mode)
	if err != nil {
		return nil, err
	}

	var candidates []Candidate
	if s.recursive {
		candidates, err = s.walk(dir, match)
	} else {
		candidates, err = s.list(dir, match)
	}
	if err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Path < candidates[j].Path
	})
	return candidates, nil
}

func (s *Scanner) list(dir string, match func(string) bool) ([]Candidate, error) {
	infos, err := s.fsProvider.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list data dir %s: %w", dir, err)
	}

	var out []Candidate
	for _, info := range infos {
		if info.IsDir() || !match(info.Name()) {
			continue
		}
		out = append(out, Candidate{
			Path:    filepath.Join(dir, info.Name()),
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return out, nil
}

func (s *Scanner) walk(dir string, match func(string) bool) ([]Candidate, error) {
	root, err := s.fsProvider.Open(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open data dir %s: %w", dir, err)
	}

	var out []Candidate
	err = root.Walk(func(file filesystem.File, err error) error {
		if err != nil {
			return fmt.Errorf("error walking path: %w", err)
		}
		info := file.Info()
		if info.IsDir() {
			if file.RelativePath() != "." && isHidden(info.Name()) {
				return fs.SkipDir
			}
			return nil
		}
		if !match(info.Name()) {
			return nil
		}
		out = append(out, Candidate{
			Path:    file.Path(),
			Name:    info.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func matcherFor(mode oews.Mode) (func(string) bool, error) {
	switch mode {
	case oews.ModeArchive:
		return func(name string) bool {
			return !isHidden(name) && strings.EqualFold(filepath.Ext(name), ".zip")
		}, nil
	case oews.ModeFiles:
		return func(name string) bool {
			return !isHidden(name) && selector.IsDataFile(name)
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown mode %q", oews.ErrInvalidConfig, mode)
	}
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$")
}
