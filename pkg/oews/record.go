package oews

import "math"

// ColumnKind is the storage type of a canonical column.
type ColumnKind int

const (
	KindText    ColumnKind = iota // free text or code, stored as VARCHAR
	KindInteger                   // whole number (total employment)
	KindDecimal                   // wage, percentile or ratio
	KindFlag                      // single character marker
)

// String returns a human-readable name for the kind.
func (k ColumnKind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindDecimal:
		return "decimal"
	case KindFlag:
		return "flag"
	default:
		return "unknown"
	}
}

// IsNumeric reports whether values of this kind are coerced from text to numbers.
func (k ColumnKind) IsNumeric() bool {
	return k == KindInteger || k == KindDecimal
}

// Column describes one canonical data column.
type Column struct {
	Name string
	Kind ColumnKind
}

// YearColumn is the name of the constant column injected for every record.
const YearColumn = "year"

// Columns is the canonical data column set in canonical order, excluding year.
var Columns = []Column{
	{"area", KindText},
	{"area_title", KindText},
	{"naics", KindText},
	{"naics_title", KindText},
	{"i_group", KindText},
	{"own_code", KindText},
	{"occ_code", KindText},
	{"occ_title", KindText},
	{"o_group", KindText},
	{"tot_emp", KindInteger},
	{"emp_prse", KindText},
	{"jobs_1000", KindDecimal},
	{"jobs_1000_prse", KindText},
	{"h_mean", KindDecimal},
	{"a_mean", KindDecimal},
	{"mean_prse", KindText},
	{"h_pct10", KindDecimal},
	{"h_pct25", KindDecimal},
	{"h_median", KindDecimal},
	{"h_pct75", KindDecimal},
	{"h_pct90", KindDecimal},
	{"a_pct10", KindDecimal},
	{"a_pct25", KindDecimal},
	{"a_median", KindDecimal},
	{"a_pct75", KindDecimal},
	{"a_pct90", KindDecimal},
	{"annual", KindFlag},
	{"hourly", KindFlag},
}

// ColumnNames returns year followed by the canonical data columns, in insert order.
func ColumnNames() []string {
	names := make([]string, 0, len(Columns)+1)
	names = append(names, YearColumn)
	for _, c := range Columns {
		names = append(names, c.Name)
	}
	return names
}

// LookupColumn returns the canonical column with the given name.
func LookupColumn(name string) (Column, bool) {
	for _, c := range Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Record is one row of oews_data. Nil pointers are stored as NULL.
type Record struct {
	Year int

	Area          *string
	AreaTitle     *string
	NAICS         *string
	NAICSTitle    *string
	IndustryGroup *string
	OwnershipCode *string
	OccCode       *string
	OccTitle      *string
	OccGroup      *string

	TotalEmployment *int64
	EmploymentPRSE  *string
	JobsPer1000     *float64
	JobsPer1000PRSE *string

	HourlyMean *float64
	AnnualMean *float64
	MeanPRSE   *string

	HourlyPct10  *float64
	HourlyPct25  *float64
	HourlyMedian *float64
	HourlyPct75  *float64
	HourlyPct90  *float64

	AnnualPct10  *float64
	AnnualPct25  *float64
	AnnualMedian *float64
	AnnualPct75  *float64
	AnnualPct90  *float64

	AnnualFlag *string
	HourlyFlag *string
}

// field returns a pointer to the field backing the named column,
// typed **string, **int64 or **float64. Unknown names return nil.
func (r *Record) field(name string) interface{} {
	switch name {
	case "area":
		return &r.Area
	case "area_title":
		return &r.AreaTitle
	case "naics":
		return &r.NAICS
	case "naics_title":
		return &r.NAICSTitle
	case "i_group":
		return &r.IndustryGroup
	case "own_code":
		return &r.OwnershipCode
	case "occ_code":
		return &r.OccCode
	case "occ_title":
		return &r.OccTitle
	case "o_group":
		return &r.OccGroup
	case "tot_emp":
		return &r.TotalEmployment
	case "emp_prse":
		return &r.EmploymentPRSE
	case "jobs_1000":
		return &r.JobsPer1000
	case "jobs_1000_prse":
		return &r.JobsPer1000PRSE
	case "h_mean":
		return &r.HourlyMean
	case "a_mean":
		return &r.AnnualMean
	case "mean_prse":
		return &r.MeanPRSE
	case "h_pct10":
		return &r.HourlyPct10
	case "h_pct25":
		return &r.HourlyPct25
	case "h_median":
		return &r.HourlyMedian
	case "h_pct75":
		return &r.HourlyPct75
	case "h_pct90":
		return &r.HourlyPct90
	case "a_pct10":
		return &r.AnnualPct10
	case "a_pct25":
		return &r.AnnualPct25
	case "a_median":
		return &r.AnnualMedian
	case "a_pct75":
		return &r.AnnualPct75
	case "a_pct90":
		return &r.AnnualPct90
	case "annual":
		return &r.AnnualFlag
	case "hourly":
		return &r.HourlyFlag
	}
	return nil
}

// SetText assigns a text or flag column. It reports false for unknown or non-text columns.
func (r *Record) SetText(name string, v *string) bool {
	p, ok := r.field(name).(**string)
	if !ok {
		return false
	}
	*p = v
	return true
}

// SetNumber assigns a numeric column. Integer columns are rounded to the nearest whole number.
// It reports false for unknown or non-numeric columns.
func (r *Record) SetNumber(name string, v *float64) bool {
	switch p := r.field(name).(type) {
	case **float64:
		*p = v
		return true
	case **int64:
		if v == nil {
			*p = nil
			return true
		}
		n := int64(math.Round(*v))
		*p = &n
		return true
	}
	return false
}

// Get returns the value of a column (year included) as a plain value, or nil when NULL.
func (r *Record) Get(name string) interface{} {
	if name == YearColumn {
		return r.Year
	}
	switch p := r.field(name).(type) {
	case **string:
		if *p == nil {
			return nil
		}
		return **p
	case **int64:
		if *p == nil {
			return nil
		}
		return **p
	case **float64:
		if *p == nil {
			return nil
		}
		return **p
	}
	return nil
}

// Values returns year followed by every canonical column value, matching ColumnNames.
func (r *Record) Values() []interface{} {
	values := make([]interface{}, 0, len(Columns)+1)
	values = append(values, r.Year)
	for _, c := range Columns {
		values = append(values, r.Get(c.Name))
	}
	return values
}
