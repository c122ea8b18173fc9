// Package schema maps the header spellings used by historical OEWS releases
// onto the canonical column names of oews_data.
//
// BLS changed header names several times between 1997 and today (ST vs AREA,
// OCC_TITL vs OCC_TITLE, H_WPCT10 vs H_PCT10, ...). MapHeader folds every known
// spelling onto one name and passes anything else through lower-cased, so the
// normalizer still has to project strictly onto oews.Columns.
package schema
