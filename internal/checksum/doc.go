// Package checksum fingerprints OEWS source files.
//
// Fingerprints are stored in oews_import_log and compared by
// "oews import --skip-unchanged" to avoid reloading a year whose source
// archive has not changed since its last successful load.
//
// Every fingerprint is prefixed with its algorithm ("xxh64:" or "sha256:"),
// so switching algorithms never produces a false "unchanged" match.
//
// # Example Usage
//
//	calc := checksum.New()
//	sum, err := calc.SumFile("data/oesm23nat.zip")
//
// # Thread Safety
//
// XXHash and SHA256 are zero-size values and safe for concurrent use.
package checksum
