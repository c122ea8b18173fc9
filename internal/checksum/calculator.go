package checksum

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Calculator computes content fingerprints.
type Calculator interface {
	// Sum hashes everything readable from r.
	Sum(r io.Reader) (string, error)
	// SumFile hashes the file at path.
	SumFile(path string) (string, error)
	// Name identifies the algorithm.
	Name() string
}

// XXHash is the default calculator, using 64-bit xxHash.
type XXHash struct{}

// SHA256 is a cryptographic alternative for audit trails.
type SHA256 struct{}

// New returns the default calculator.
func New() XXHash {
	return XXHash{}
}

// ForName returns the calculator registered under name ("xxh64" or "sha256").
func ForName(name string) (Calculator, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "xxh64", "xxhash":
		return XXHash{}, nil
	case "sha256":
		return SHA256{}, nil
	default:
		return nil, fmt.Errorf("unknown checksum algorithm %q (supported: xxh64, sha256)", name)
	}
}

func (XXHash) Name() string { return "xxh64" }

func (c XXHash) Sum(r io.Reader) (string, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return c.Name() + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func (c XXHash) SumFile(path string) (string, error) {
	return sumFile(c, path)
}

func (SHA256) Name() string { return "sha256" }

func (c SHA256) Sum(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("failed to hash content: %w", err)
	}
	return c.Name() + ":" + hex.EncodeToString(h.Sum(nil)), nil
}

func (c SHA256) SumFile(path string) (string, error) {
	return sumFile(c, path)
}

func sumFile(c Calculator, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer f.Close()

	sum, err := c.Sum(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return sum, nil
}
