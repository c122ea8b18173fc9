// Package loader replaces one year of OEWS data in the store.
//
// The loader package is responsible for:
//   - Locating the data file (extracting archives into a per-year temp dir)
//   - Parsing and normalizing it into canonical records
//   - Deleting the year's existing rows and appending the new ones in batches
//
// Each step's failure is reported as an *oews.YearError naming the stage, and
// never aborts the surrounding import run.
package loader
