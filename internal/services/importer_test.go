package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/oews/internal/files/loader"
	"github.com/vvka-141/oews/internal/files/scanner"
	"github.com/vvka-141/oews/internal/logging"
	"github.com/vvka-141/oews/internal/testing/fakes"
	"github.com/vvka-141/oews/internal/testing/fixtures"
	"github.com/vvka-141/oews/pkg/oews"
)

func importConfig(dir string) oews.ImportConfig {
	return oews.ImportConfig{
		DataDir:   dir,
		Mode:      oews.ModeArchive,
		BatchSize: oews.DefaultBatchSize,
		Atomic:    true,
		Connection: oews.ConnectionConfig{
			Driver:   oews.DriverMySQL,
			Host:     "localhost",
			Port:     3306,
			Database: "oews",
			Username: "oews",
			Password: "secret",
		},
	}
}

func unreachableOpener(t *testing.T) oews.StoreOpener {
	return func(context.Context, oews.ConnectionConfig) (oews.Store, error) {
		t.Error("store must not be opened")
		return nil, errors.New("unexpected open")
	}
}

func newService(opener oews.StoreOpener, opts ...Option) *ImportService {
	opts = append(opts, WithLoaderOptions(loader.WithTempDir(os.TempDir())))
	return NewImportService(opener, scanner.NewScanner(), logging.NewNullLogger(), opts...)
}

func TestNewImportService_NilDeps(t *testing.T) {
	opener := fakes.NewStore().Opener()
	sc := scanner.NewScanner()
	lg := logging.NewNullLogger()

	tests := []struct {
		name string
		fn   func()
	}{
		{"nil opener", func() { NewImportService(nil, sc, lg) }},
		{"nil scanner", func() { NewImportService(opener, nil, lg) }},
		{"nil logger", func() { NewImportService(opener, sc, nil) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, tt.fn)
		})
	}
}

func TestPlan(t *testing.T) {
	candidates := []scanner.Candidate{
		{Path: "data/a_M2016_dl.csv", Name: "a_M2016_dl.csv"},
		{Path: "data/b_M2015_dl.csv", Name: "b_M2015_dl.csv"},
		{Path: "data/c_M2015_dl.csv", Name: "c_M2015_dl.csv"},
		{Path: "data/field_descriptions.csv", Name: "field_descriptions.csv"},
		{Path: "data/oesm14nat.csv", Name: "oesm14nat.csv"},
	}

	plan := Plan(candidates, oews.ModeFiles)

	assert.Equal(t, []oews.YearSource{
		{Year: 2014, Path: "data/oesm14nat.csv", Mode: oews.ModeFiles},
		{Year: 2015, Path: "data/b_M2015_dl.csv", Mode: oews.ModeFiles},
		{Year: 2016, Path: "data/a_M2016_dl.csv", Mode: oews.ModeFiles},
	}, plan.Sources)
	assert.Equal(t, []string{"data/c_M2015_dl.csv"}, plan.Duplicates, "first file in lexicographic order wins")
	assert.Equal(t, []string{"data/field_descriptions.csv"}, plan.Unresolved)
}

func TestPlan_Empty(t *testing.T) {
	plan := Plan(nil, oews.ModeArchive)
	assert.Empty(t, plan.Sources)
	assert.Empty(t, plan.Duplicates)
	assert.Empty(t, plan.Unresolved)
}

func TestRun_ArchiveEndToEnd(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()

	report, err := newService(store.Opener()).Run(context.Background(), importConfig(dir))
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	out := report.Outcomes[0]
	require.NoError(t, out.Err)
	assert.Equal(t, 2015, out.Year)
	assert.Equal(t, int64(5), out.Rows)

	assert.Equal(t, oews.Summary{TotalRecords: 5, Years: []int{2015}}, report.Summary)
	assert.Equal(t, []string{filepath.Join(dir, "oesm15nat.zip")}, report.Discovered)
	assert.False(t, report.Finished.Before(report.Started))

	assert.Equal(t, 1, store.EnsureSchemaCalls)
	assert.True(t, store.Closed)

	log := store.Log()
	require.Len(t, log, 1)
	assert.Equal(t, report.RunID, log[0].RunID)
	assert.Equal(t, oews.StatusLoaded, log[0].Status)
	assert.Equal(t, int64(5), log[0].RowsLoaded)
	assert.Equal(t, out.Checksum, log[0].Checksum)
}

func TestRun_Idempotent(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()
	svc := newService(store.Opener())

	for i := 0; i < 2; i++ {
		report, err := svc.Run(context.Background(), importConfig(dir))
		require.NoError(t, err)
		assert.Equal(t, int64(5), report.Summary.TotalRecords)
	}
	assert.Len(t, store.Rows(2015), 5)
}

func TestRun_ThreeColumnArchiveLoadedTwice(t *testing.T) {
	dir := t.TempDir()
	wb := fixtures.NewWorkbook().Sheet("national_dl", []string{"AREA", "OCC_CODE", "A_MEAN"},
		[]string{"99", "00-0000", "48,320"},
		[]string{"99", "11-0000", "115,020"},
		[]string{"99", "11-1011", "N/A"},
		[]string{"99", "27-2011", "$51,240.50"},
		[]string{"99", "53-7199", "34300"},
	)
	fixtures.NewArchive().
		AddWorkbook("oesm15nat/national_M2015_dl.xlsx", wb).
		Write(t, dir, "oesm15nat.zip")
	store := fakes.NewStore()
	svc := newService(store.Opener())

	for i := 0; i < 2; i++ {
		report, err := svc.Run(context.Background(), importConfig(dir))
		require.NoError(t, err)
		require.Len(t, report.Outcomes, 1)
		require.NoError(t, report.Outcomes[0].Err)
		assert.Equal(t, oews.Summary{TotalRecords: 5, Years: []int{2015}}, report.Summary)
	}

	rows := store.Rows(2015)
	require.Len(t, rows, 5)
	for _, r := range rows {
		assert.Equal(t, 2015, r.Year)
		require.NotNil(t, r.Area)
		assert.Equal(t, "99", *r.Area)
		assert.Len(t, r.Values(), len(oews.Columns)+1)
		assert.Nil(t, r.OccTitle)
	}

	assert.Nil(t, rows[2].AnnualMean, "N/A is stored as NULL")
	require.NotNil(t, rows[0].AnnualMean)
	assert.InDelta(t, 48320, *rows[0].AnnualMean, 1e-9)
	require.NotNil(t, rows[3].AnnualMean)
	assert.InDelta(t, 51240.5, *rows[3].AnnualMean, 1e-9)
}

func TestRun_NoSources(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	report, err := newService(unreachableOpener(t)).Run(context.Background(), importConfig(dir))
	require.NoError(t, err)

	assert.Empty(t, report.Outcomes)
	assert.Zero(t, report.Summary.TotalRecords)
	assert.DirExists(t, dir, "missing data dir is created")
}

func TestRun_OnlyUnresolvedInputs(t *testing.T) {
	dir := t.TempDir()
	fixtures.NewArchive().Add("readme.txt", []byte("x")).Write(t, dir, "release.zip")

	report, err := newService(unreachableOpener(t)).Run(context.Background(), importConfig(dir))
	require.NoError(t, err)

	assert.Empty(t, report.Outcomes)
	assert.Equal(t, []string{filepath.Join(dir, "release.zip")}, report.Unresolved)
}

func TestRun_InvalidConfig(t *testing.T) {
	cfg := importConfig(t.TempDir())
	cfg.Connection.Password = ""

	report, err := newService(unreachableOpener(t)).Run(context.Background(), cfg)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, oews.ErrInvalidConfig))
	assert.Equal(t, oews.ExitConfigError, oews.ExitCodeForError(err))
}

func TestRun_ConnectionFailure(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)
	opener := func(context.Context, oews.ConnectionConfig) (oews.Store, error) {
		return nil, errors.Join(oews.ErrConnectionFailed, errors.New("dial tcp: connection refused"))
	}

	report, err := newService(opener).Run(context.Background(), importConfig(dir))
	require.Error(t, err)
	assert.True(t, errors.Is(err, oews.ErrConnectionFailed))
	assert.Empty(t, report.Outcomes)
}

func TestRun_SchemaFailure(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()
	store.EnsureErr = fakes.ErrInjected

	_, err := newService(store.Opener()).Run(context.Background(), importConfig(dir))
	assert.True(t, errors.Is(err, fakes.ErrInjected))
	assert.True(t, store.Closed)
}

func TestRun_FailedYearDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	fixtures.NewArchive().Add("oesm14nat/readme.txt", []byte("no data here")).Write(t, dir, "oesm14nat.zip")
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()

	report, err := newService(store.Opener()).Run(context.Background(), importConfig(dir))
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, 2014, report.Outcomes[0].Year)
	assert.True(t, errors.Is(report.Outcomes[0].Err, oews.ErrYearFailed))
	assert.True(t, errors.Is(report.Outcomes[0].Err, oews.ErrNoDataFile))
	require.NoError(t, report.Outcomes[1].Err)

	assert.Len(t, report.Failed(), 1)
	assert.Len(t, report.Loaded(), 1)
	assert.Equal(t, oews.ExitYearFailed, oews.ExitCodeForError(report.Err()))

	log := store.Log()
	require.Len(t, log, 2)
	assert.Equal(t, oews.StatusFailed, log[0].Status)
	assert.NotEmpty(t, log[0].ErrorMessage)
	assert.Equal(t, oews.StatusLoaded, log[1].Status)
}

func TestRun_YearsFilter(t *testing.T) {
	dir := t.TempDir()
	fixtures.NewArchive().Add("oesm14nat/readme.txt", []byte("no data here")).Write(t, dir, "oesm14nat.zip")
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()

	cfg := importConfig(dir)
	cfg.Years = []int{2015}
	report, err := newService(store.Opener()).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, 2015, report.Outcomes[0].Year)
}

func TestRun_SkipUnchanged(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()
	svc := newService(store.Opener())

	cfg := importConfig(dir)
	cfg.SkipUnchanged = true

	_, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)
	report, err := svc.Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	assert.True(t, report.Outcomes[0].Skipped)
	assert.True(t, errors.Is(report.Outcomes[0].SkipReason, oews.ErrUnchanged))
	assert.Equal(t, []int{5}, store.Batches, "second run appends nothing")

	log := store.Log()
	require.Len(t, log, 2)
	assert.Equal(t, oews.StatusUnchanged, log[1].Status)
}

func TestRun_DryRun(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)

	cfg := importConfig(dir)
	cfg.DryRun = true
	cfg.Connection = oews.ConnectionConfig{}

	report, err := newService(unreachableOpener(t)).Run(context.Background(), cfg)
	require.NoError(t, err)
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, int64(5), report.Outcomes[0].Rows)
}

func TestRun_LooseFiles(t *testing.T) {
	dir := t.TempDir()
	fixtures.NewWorkbook().
		Sheet("national_M2016_dl", fixtures.NationalHeader, fixtures.National2015Rows...).
		WriteCSV(t, dir, "national_M2016_dl.csv")
	store := fakes.NewStore()

	cfg := importConfig(dir)
	cfg.Mode = oews.ModeFiles
	report, err := newService(store.Opener()).Run(context.Background(), cfg)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, 1)
	require.NoError(t, report.Outcomes[0].Err)
	assert.Equal(t, 2016, report.Outcomes[0].Year)
	assert.Len(t, store.Rows(2016), 5)
}

func TestRun_YearHook(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)

	var seen []int
	hook := WithYearHook(func(o oews.YearOutcome) { seen = append(seen, o.Year) })
	_, err := newService(fakes.NewStore().Opener(), hook).Run(context.Background(), importConfig(dir))
	require.NoError(t, err)
	assert.Equal(t, []int{2015}, seen)
}

func TestRun_Cancelled(t *testing.T) {
	dir := t.TempDir()
	fixtures.National2015Archive(t, dir)
	store := fakes.NewStore()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := newService(store.Opener()).Run(ctx, importConfig(dir))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, report.Outcomes)
	assert.Empty(t, store.Rows(2015))
}
