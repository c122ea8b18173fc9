// Package files groups the sub-packages that turn a data directory into
// loaded years:
//   - filesystem: filesystem abstraction (OS and in-memory) used by the scanner
//   - scanner: deterministic discovery of candidate archives or loose files
//   - archive: safe extraction of yearly zip archives
//   - selector: choice of the national data file and its data sheet
//   - loader: per-year delete-then-append into the store
//
// # Usage
//
//	s := scanner.NewScanner(scanner.WithRecursive(false))
//	candidates, err := s.Discover("./data", oews.ModeArchive)
//
//	l := loader.New(store, sheet.Open, loader.WithBatchSize(1000))
//	outcome := l.LoadYear(ctx, oews.YearSource{Year: 2019, Path: candidates[0].Path, Mode: oews.ModeArchive})
package files
