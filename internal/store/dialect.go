package store

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/vvka-141/oews/pkg/oews"
)

// Dialect captures the SQL differences between supported servers.
type Dialect interface {
	// Name is the driver name.
	Name() oews.Driver

	// Placeholder returns the bind marker for the n-th parameter (1-based).
	Placeholder(n int) string

	// Quote quotes an identifier.
	Quote(ident string) string

	// CreateTableStatements returns the idempotent DDL for the data and import log tables.
	CreateTableStatements() []string

	// MaxParams is the largest number of bind parameters one statement may carry.
	MaxParams() int
}

// ForDriver returns the dialect for driver.
func ForDriver(driver oews.Driver) (Dialect, error) {
	switch driver {
	case oews.DriverMySQL:
		return MySQL{}, nil
	case oews.DriverPostgres:
		return Postgres{}, nil
	}
	return nil, fmt.Errorf("%q: %w", driver, oews.ErrUnsupportedDriver)
}

// maxBindParams is the protocol limit shared by MySQL prepared statements and
// the PostgreSQL extended protocol (a uint16 count).
const maxBindParams = 65535

// MySQL is the dialect for MySQL 5.7+ and MariaDB.
type MySQL struct{}

func (MySQL) Name() oews.Driver      { return oews.DriverMySQL }
func (MySQL) Placeholder(int) string { return "?" }
func (MySQL) MaxParams() int         { return maxBindParams }

func (MySQL) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func (d MySQL) CreateTableStatements() []string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.Quote(oews.TableName))
	b.WriteString("  `id` BIGINT NOT NULL AUTO_INCREMENT,\n")
	b.WriteString("  `year` INT NOT NULL,\n")
	for _, c := range oews.Columns {
		fmt.Fprintf(&b, "  %s %s NULL,\n", d.Quote(c.Name), columnType(c))
	}
	b.WriteString("  `created_at` TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,\n")
	b.WriteString("  PRIMARY KEY (`id`),\n")
	b.WriteString("  INDEX `idx_oews_year` (`year`),\n")
	b.WriteString("  INDEX `idx_oews_occ_code` (`occ_code`),\n")
	b.WriteString("  INDEX `idx_oews_area` (`area`),\n")
	b.WriteString("  INDEX `idx_oews_year_occ` (`year`, `occ_code`)\n")
	b.WriteString(") ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci")

	importLog := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGINT NOT NULL AUTO_INCREMENT,
  run_id CHAR(36) NOT NULL,
  year INT NOT NULL,
  source_file VARCHAR(1024) NOT NULL,
  data_file VARCHAR(1024) NOT NULL DEFAULT '',
  sheet_name VARCHAR(255) NOT NULL DEFAULT '',
  checksum VARCHAR(100) NOT NULL DEFAULT '',
  rows_loaded BIGINT NOT NULL DEFAULT 0,
  status VARCHAR(20) NOT NULL,
  error_message TEXT NULL,
  started_at DATETIME(6) NOT NULL,
  finished_at DATETIME(6) NOT NULL,
  PRIMARY KEY (id),
  INDEX idx_oews_import_year (year, status, finished_at)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`, d.Quote(oews.ImportLogTable))

	return []string{b.String(), importLog}
}

// Postgres is the dialect for PostgreSQL 12+.
type Postgres struct{}

func (Postgres) Name() oews.Driver        { return oews.DriverPostgres }
func (Postgres) Placeholder(n int) string { return "$" + strconv.Itoa(n) }
func (Postgres) MaxParams() int           { return maxBindParams }

func (Postgres) Quote(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

func (d Postgres) CreateTableStatements() []string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", d.Quote(oews.TableName))
	b.WriteString("  id BIGSERIAL PRIMARY KEY,\n")
	b.WriteString("  year INTEGER NOT NULL,\n")
	for _, c := range oews.Columns {
		fmt.Fprintf(&b, "  %s %s NULL,\n", d.Quote(c.Name), columnType(c))
	}
	b.WriteString("  created_at TIMESTAMPTZ NOT NULL DEFAULT now()\n")
	b.WriteString(")")

	table := d.Quote(oews.TableName)
	stmts := []string{
		b.String(),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_oews_year ON %s (year)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_oews_occ_code ON %s (occ_code)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_oews_area ON %s (area)", table),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_oews_year_occ ON %s (year, occ_code)", table),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
  id BIGSERIAL PRIMARY KEY,
  run_id UUID NOT NULL,
  year INTEGER NOT NULL,
  source_file VARCHAR(1024) NOT NULL,
  data_file VARCHAR(1024) NOT NULL DEFAULT '',
  sheet_name VARCHAR(255) NOT NULL DEFAULT '',
  checksum VARCHAR(100) NOT NULL DEFAULT '',
  rows_loaded BIGINT NOT NULL DEFAULT 0,
  status VARCHAR(20) NOT NULL,
  error_message TEXT NULL,
  started_at TIMESTAMPTZ NOT NULL,
  finished_at TIMESTAMPTZ NOT NULL
)`, d.Quote(oews.ImportLogTable)),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_oews_import_year ON %s (year, status, finished_at)", d.Quote(oews.ImportLogTable)),
	}
	return stmts
}

// columnType is the SQL type of a canonical column, valid for both dialects.
func columnType(c oews.Column) string {
	switch c.Kind {
	case oews.KindInteger:
		return "BIGINT"
	case oews.KindFlag:
		return "CHAR(1)"
	case oews.KindDecimal:
		if c.Name == "jobs_1000" {
			return "DECIMAL(10,3)"
		}
		return "DECIMAL(12,2)"
	}
	switch {
	case strings.HasSuffix(c.Name, "_title"):
		return "VARCHAR(255)"
	case strings.HasSuffix(c.Name, "_group"):
		return "VARCHAR(50)"
	case strings.HasSuffix(c.Name, "_prse"):
		return "VARCHAR(10)"
	}
	return "VARCHAR(20)"
}

// rebind rewrites ? markers into the dialect's placeholders.
// Queries passed here never contain literal question marks.
func rebind(d Dialect, query string) string {
	if d.Placeholder(1) == "?" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(d.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// insertStatement builds a multi-row INSERT of rows records into oews_data.
func insertStatement(d Dialect, rows int) string {
	names := oews.ColumnNames()
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = d.Quote(n)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES ", d.Quote(oews.TableName), strings.Join(quoted, ", "))
	n := 0
	for r := 0; r < rows; r++ {
		if r > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for c := range names {
			if c > 0 {
				b.WriteString(", ")
			}
			n++
			b.WriteString(d.Placeholder(n))
		}
		b.WriteByte(')')
	}
	return b.String()
}

// rowsPerStatement is how many records fit in one INSERT under the parameter limit.
func rowsPerStatement(d Dialect) int {
	return d.MaxParams() / len(oews.ColumnNames())
}
