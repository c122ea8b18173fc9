// Package year attributes an OEWS release year to an input file from its name.
package year

import (
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/vvka-141/oews/pkg/oews"
)

var (
	// A run of exactly four digits, not embedded in a longer digit run.
	fourDigits = regexp.MustCompile(`(?:^|[^0-9])([0-9]{4})(?:[^0-9]|$)`)

	// oes_NN, oesmNN, oesNN with exactly two digits.
	twoDigits = regexp.MustCompile(`(?i)oes(?:_|m)?([0-9]{2})(?:[^0-9]|$)`)
)

// Resolve extracts the release year from filename. Directory components are ignored.
// The four-digit rule wins over the two-digit rule; false means no rule matched.
func Resolve(filename string) (int, bool) {
	base := filepath.Base(filename)

	if m := fourDigits.FindStringSubmatch(base); m != nil {
		y, err := strconv.Atoi(m[1])
		if err == nil {
			return y, true
		}
	}

	if m := twoDigits.FindStringSubmatch(base); m != nil {
		nn, err := strconv.Atoi(m[1])
		if err == nil {
			return expandTwoDigit(nn), true
		}
	}

	return 0, false
}

func expandTwoDigit(nn int) int {
	if nn >= oews.TwoDigitYearPivot {
		return 1900 + nn
	}
	return 2000 + nn
}
