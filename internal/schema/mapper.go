package schema

import (
	"strings"

	"github.com/vvka-141/oews/pkg/oews"
)

// aliases maps lower-cased source headers to canonical column names.
var aliases = map[string]string{
	"area":      "area",
	"st":        "area",
	"msa":       "area",
	"area_code": "area",

	"area_title": "area_title",
	"area_name":  "area_title",
	"state":      "area_title",
	"msa_name":   "area_title",
	"st_name":    "area_title",

	"naics":       "naics",
	"naics_title": "naics_title",
	"i_group":     "i_group",
	"own_code":    "own_code",

	"occ_code":  "occ_code",
	"occ_title": "occ_title",
	"occ_titl":  "occ_title",
	"o_group":   "o_group",
	"occ_group": "o_group",
	"group":     "o_group",

	"tot_emp":        "tot_emp",
	"emp_prse":       "emp_prse",
	"jobs_1000":      "jobs_1000",
	"jobs_1000_orig": "jobs_1000",
	"jobs_1000_prse": "jobs_1000_prse",
	"jobs_prse":      "jobs_1000_prse",

	"h_mean":    "h_mean",
	"a_mean":    "a_mean",
	"mean_prse": "mean_prse",

	"h_pct10":  "h_pct10",
	"h_wpct10": "h_pct10",
	"h_pct25":  "h_pct25",
	"h_wpct25": "h_pct25",
	"h_median": "h_median",
	"h_pct50":  "h_median",
	"h_wpct50": "h_median",
	"h_pct75":  "h_pct75",
	"h_wpct75": "h_pct75",
	"h_pct90":  "h_pct90",
	"h_wpct90": "h_pct90",

	"a_pct10":  "a_pct10",
	"a_wpct10": "a_pct10",
	"a_pct25":  "a_pct25",
	"a_wpct25": "a_pct25",
	"a_median": "a_median",
	"a_pct50":  "a_median",
	"a_wpct50": "a_median",
	"a_pct75":  "a_pct75",
	"a_wpct75": "a_pct75",
	"a_pct90":  "a_pct90",
	"a_wpct90": "a_pct90",

	"annual": "annual",
	"hourly": "hourly",
}

// MapHeader returns the canonical name for a raw source header.
// Unknown headers come back trimmed and lower-cased; it never fails.
func MapHeader(raw string) string {
	key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, "\uFEFF")))
	if canonical, ok := aliases[key]; ok {
		return canonical
	}
	return key
}

// IsCanonical reports whether name is one of the canonical data columns.
func IsCanonical(name string) bool {
	_, ok := oews.LookupColumn(name)
	return ok
}

// Aliases returns a copy of the alias table.
func Aliases() map[string]string {
	out := make(map[string]string, len(aliases))
	for k, v := range aliases {
		out[k] = v
	}
	return out
}
