// Package selector picks the data-bearing file inside an extracted OEWS
// archive and the data-bearing sheet inside a workbook.
package selector

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vvka-141/oews/pkg/oews"
)

var dataExtensions = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
}

// nationalHints mark the national-scope workbook in multi-file releases.
var nationalHints = []string{"national", "nat"}

// sheetKeywords are tried in order; the first keyword with any match wins.
var sheetKeywords = []string{"data", "national", "all", "oews", "employment"}

// IsDataFile reports whether name has a tabular data extension and is not an
// OS metadata artifact such as __MACOSX/ entries, AppleDouble "._" files or
// Office "~$" lock files.
func IsDataFile(name string) bool {
	slashed := filepath.ToSlash(name)
	if strings.Contains(slashed, "__MACOSX/") || strings.HasPrefix(slashed, "__MACOSX") {
		return false
	}
	base := filepath.Base(name)
	if strings.HasPrefix(base, "._") || strings.HasPrefix(base, "~$") {
		return false
	}
	return dataExtensions[strings.ToLower(filepath.Ext(base))]
}

// SelectDataFile returns the national-scope data file when one exists, otherwise
// the first data file in lexicographic order.
func SelectDataFile(paths []string) (string, error) {
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var data []string
	for _, p := range sorted {
		if IsDataFile(p) {
			data = append(data, p)
		}
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: none of %d entries is .xlsx, .xls or .csv", oews.ErrNoDataFile, len(paths))
	}

	for _, p := range data {
		base := strings.ToLower(filepath.Base(p))
		for _, hint := range nationalHints {
			if strings.Contains(base, hint) {
				return p, nil
			}
		}
	}
	return data[0], nil
}

// SelectSheet returns the sheet most likely to hold the data table. Empty input yields "".
func SelectSheet(names []string) string {
	if len(names) == 0 {
		return ""
	}
	for _, kw := range sheetKeywords {
		for _, name := range names {
			if strings.Contains(strings.ToLower(name), kw) {
				return name
			}
		}
	}
	return names[0]
}
