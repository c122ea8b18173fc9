package store

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/oews/pkg/oews"
)

func TestForDriver(t *testing.T) {
	d, err := ForDriver(oews.DriverMySQL)
	require.NoError(t, err)
	assert.Equal(t, oews.DriverMySQL, d.Name())

	d, err = ForDriver(oews.DriverPostgres)
	require.NoError(t, err)
	assert.Equal(t, oews.DriverPostgres, d.Name())

	_, err = ForDriver("sqlite")
	assert.True(t, errors.Is(err, oews.ErrUnsupportedDriver))
}

func TestPlaceholdersAndQuoting(t *testing.T) {
	assert.Equal(t, "?", MySQL{}.Placeholder(7))
	assert.Equal(t, "$7", Postgres{}.Placeholder(7))

	assert.Equal(t, "`oews_data`", MySQL{}.Quote("oews_data"))
	assert.Equal(t, "`a``b`", MySQL{}.Quote("a`b"))
	assert.Equal(t, `"oews_data"`, Postgres{}.Quote("oews_data"))
	assert.Equal(t, `"a""b"`, Postgres{}.Quote(`a"b`))
}

func TestRebind(t *testing.T) {
	q := "SELECT * FROM t WHERE year = ? AND status = ?"
	assert.Equal(t, q, rebind(MySQL{}, q))
	assert.Equal(t, "SELECT * FROM t WHERE year = $1 AND status = $2", rebind(Postgres{}, q))
}

func TestInsertStatement(t *testing.T) {
	cols := len(oews.ColumnNames())

	stmt := insertStatement(MySQL{}, 2)
	assert.True(t, strings.HasPrefix(stmt, "INSERT INTO `oews_data` (`year`, `area`, `area_title`"), stmt)
	assert.Equal(t, 2*cols, strings.Count(stmt, "?"))
	assert.Equal(t, 2, strings.Count(stmt, "("+strings.Repeat("?, ", cols-1)+"?)"))

	stmt = insertStatement(Postgres{}, 2)
	assert.Contains(t, stmt, `INSERT INTO "oews_data" ("year", "area"`)
	assert.Contains(t, stmt, "($1, $2,")
	assert.Contains(t, stmt, "$58)")
	assert.NotContains(t, stmt, "$59")
}

func TestRowsPerStatement(t *testing.T) {
	cols := len(oews.ColumnNames())
	for _, d := range []Dialect{MySQL{}, Postgres{}} {
		n := rowsPerStatement(d)
		assert.LessOrEqual(t, n*cols, d.MaxParams())
		assert.Greater(t, (n+1)*cols, d.MaxParams())
		assert.GreaterOrEqual(t, n, oews.DefaultBatchSize, "a default batch fits in one statement")
	}
}

func TestColumnType(t *testing.T) {
	tests := map[string]string{
		"area":           "VARCHAR(20)",
		"occ_code":       "VARCHAR(20)",
		"area_title":     "VARCHAR(255)",
		"occ_title":      "VARCHAR(255)",
		"o_group":        "VARCHAR(50)",
		"i_group":        "VARCHAR(50)",
		"emp_prse":       "VARCHAR(10)",
		"jobs_1000_prse": "VARCHAR(10)",
		"tot_emp":        "BIGINT",
		"jobs_1000":      "DECIMAL(10,3)",
		"a_mean":         "DECIMAL(12,2)",
		"h_median":       "DECIMAL(12,2)",
		"annual":         "CHAR(1)",
		"hourly":         "CHAR(1)",
	}
	for name, want := range tests {
		c, ok := oews.LookupColumn(name)
		require.True(t, ok, name)
		assert.Equal(t, want, columnType(c), name)
	}
}

func TestCreateTableStatements(t *testing.T) {
	for _, d := range []Dialect{MySQL{}, Postgres{}} {
		t.Run(string(d.Name()), func(t *testing.T) {
			stmts := d.CreateTableStatements()
			all := strings.Join(stmts, "\n")

			assert.Contains(t, stmts[0], "CREATE TABLE IF NOT EXISTS "+d.Quote(oews.TableName))
			for _, c := range oews.Columns {
				assert.Contains(t, stmts[0], d.Quote(c.Name)+" "+columnType(c), c.Name)
			}
			for _, idx := range []string{"idx_oews_year", "idx_oews_occ_code", "idx_oews_area", "idx_oews_year_occ"} {
				assert.Contains(t, all, idx)
			}
			assert.Contains(t, all, "CREATE TABLE IF NOT EXISTS "+d.Quote(oews.ImportLogTable))
			assert.Contains(t, all, "created_at")
		})
	}

	assert.Contains(t, MySQL{}.CreateTableStatements()[0], "AUTO_INCREMENT")
	assert.Contains(t, MySQL{}.CreateTableStatements()[0], "utf8mb4")
	assert.Contains(t, Postgres{}.CreateTableStatements()[0], "BIGSERIAL")
	assert.Contains(t, Postgres{}.CreateTableStatements()[0], "TIMESTAMPTZ")
}
