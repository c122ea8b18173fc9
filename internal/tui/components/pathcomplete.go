package components

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/oews/internal/files/selector"
)

// PathFilter decides which directory entries a PathCompleter offers.
type PathFilter func(name string, isDir bool) bool

// DirsOnly offers directories, for the data directory field.
func DirsOnly(_ string, isDir bool) bool { return isDir }

// DataFiles offers directories and the inputs an import can read
// (.zip, .xlsx, .xls, .csv), for picking a single release file.
func DataFiles(name string, isDir bool) bool {
	if isDir {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".zip") || selector.IsDataFile(name)
}

// PathCompleter provides tab-completion and cycling for filesystem paths.
// It tracks state across Tab presses to cycle through matches.
//
//	completer := NewPathCompleter(DirsOnly)
//	input.SetValue(completer.Next(input.Value())) // on Tab
//	completer.Reset()                             // on any other key
type PathCompleter struct {
	matches    []string
	cycleIndex int
	lastInput  string
	filter     PathFilter
}

// NewPathCompleter creates a completer offering the entries filter admits.
// A nil filter admits everything except hidden entries.
func NewPathCompleter(filter PathFilter) *PathCompleter {
	return &PathCompleter{filter: filter}
}

// Next returns the next completion for the given input.
// On first call (or after input changes), it computes matches.
// On subsequent calls with the same base input, it cycles through matches.
func (c *PathCompleter) Next(input string) string {
	parent, prefix := splitPath(input)

	if parent != c.lastInput || c.matches == nil {
		c.matches = c.findMatches(parent, prefix)
		c.cycleIndex = 0
		c.lastInput = parent

		if len(c.matches) == 0 {
			return input
		}

		// Extend to the common prefix first when it is longer than the input.
		if len(c.matches) > 1 {
			common := longestCommonPrefix(c.matches)
			candidate := filepath.Join(parent, common)
			if len(candidate) > len(input) {
				return candidate
			}
		}
		return c.formatMatch(parent, c.matches[c.cycleIndex])
	}

	if len(c.matches) == 0 {
		return input
	}
	c.cycleIndex = (c.cycleIndex + 1) % len(c.matches)
	return c.formatMatch(parent, c.matches[c.cycleIndex])
}

// Reset clears the cycle state. Call this when the user types a non-Tab key.
func (c *PathCompleter) Reset() {
	c.matches = nil
	c.cycleIndex = 0
	c.lastInput = ""
}

func (c *PathCompleter) findMatches(parent, prefix string) []string {
	if parent == "" {
		parent = "."
	}

	entries, err := os.ReadDir(parent)
	if err != nil {
		return nil
	}

	var matches []string
	lowPrefix := strings.ToLower(prefix)
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !strings.HasPrefix(prefix, ".") {
			continue
		}
		if c.filter != nil && !c.filter(name, entry.IsDir()) {
			continue
		}
		if strings.HasPrefix(strings.ToLower(name), lowPrefix) {
			matches = append(matches, name)
		}
	}

	sort.Strings(matches)
	return matches
}

func (c *PathCompleter) formatMatch(parent, name string) string {
	result := filepath.Join(parent, name)

	info, err := os.Stat(result)
	if err == nil && info.IsDir() {
		result += string(filepath.Separator)
	}
	return result
}

// splitPath splits an input into parent directory and name prefix.
//
//	"./data/oes" → ("data", "oes")
//	"./data/"    → ("./data", "")
//	"da"         → (".", "da")
//	""           → (".", "")
func splitPath(input string) (parent, prefix string) {
	if input == "" || input == "." {
		return ".", ""
	}

	if strings.HasSuffix(input, string(filepath.Separator)) || strings.HasSuffix(input, "/") {
		return strings.TrimRight(input, `/\`), ""
	}

	return filepath.Dir(input), filepath.Base(input)
}

// longestCommonPrefix finds the longest common prefix among strs, compared
// case-insensitively and returned in the case of the first entry.
func longestCommonPrefix(strs []string) string {
	if len(strs) == 0 {
		return ""
	}
	if len(strs) == 1 {
		return strs[0]
	}

	lowered := make([]string, len(strs))
	for i, s := range strs {
		lowered[i] = strings.ToLower(s)
	}

	first := lowered[0]
	for i := 0; i < len(first); i++ {
		for _, s := range lowered[1:] {
			if i >= len(s) || s[i] != first[i] {
				return strs[0][:i]
			}
		}
	}
	return strs[0]
}
