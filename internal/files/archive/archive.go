// Package archive extracts OEWS release archives into a scratch directory.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/zip"
)

// MaxEntrySize caps the uncompressed size of a single entry. The largest
// all-data workbooks BLS publishes are well under 200 MiB.
const MaxEntrySize int64 = 1 << 30

// ErrUnsafePath is returned for entries that would land outside the destination.
var ErrUnsafePath = errors.New("archive entry escapes destination")

// ErrEntryTooLarge is returned when an entry exceeds MaxEntrySize.
var ErrEntryTooLarge = errors.New("archive entry too large")

// Extract unpacks every regular file in zipPath under destDir and returns the
// extracted paths sorted lexicographically. Cancellation is checked between entries.
func Extract(ctx context.Context, zipPath, destDir string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", zipPath, err)
	}
	defer zr.Close()

	root, err := filepath.Abs(destDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", destDir, err)
	}

	var paths []string
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if f.FileInfo().IsDir() {
			continue
		}

		target, err := safeJoin(root, f.Name)
		if err != nil {
			return nil, err
		}
		if f.UncompressedSize64 > uint64(MaxEntrySize) {
			return nil, fmt.Errorf("%w: %s (%d bytes)", ErrEntryTooLarge, f.Name, f.UncompressedSize64)
		}
		if err := extractFile(f, target); err != nil {
			return nil, err
		}
		paths = append(paths, target)
	}

	sort.Strings(paths)
	return paths, nil
}

func safeJoin(root, name string) (string, error) {
	cleaned := filepath.FromSlash(strings.ReplaceAll(name, "\\", "/"))
	if filepath.IsAbs(cleaned) || filepath.VolumeName(cleaned) != "" {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	target := filepath.Join(root, cleaned)
	rel, err := filepath.Rel(root, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}
	return target, nil
}

func extractFile(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", f.Name, err)
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to open entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", target, err)
	}

	n, copyErr := io.Copy(out, io.LimitReader(rc, MaxEntrySize+1))
	closeErr := out.Close()
	if copyErr != nil {
		return fmt.Errorf("failed to extract %s: %w", f.Name, copyErr)
	}
	if n > MaxEntrySize {
		return fmt.Errorf("%w: %s", ErrEntryTooLarge, f.Name)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to write %s: %w", target, closeErr)
	}
	return nil
}
