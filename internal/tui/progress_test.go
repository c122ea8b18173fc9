package tui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/oews/pkg/oews"
)

func loadedOutcome() oews.YearOutcome {
	return oews.YearOutcome{
		Year:     2015,
		Source:   "data/oesm15nat.zip",
		File:     "oesm15nat/national_M2015_dl.xlsx",
		Sheet:    "national_dl",
		Rows:     1234,
		Duration: 1500 * time.Millisecond,
	}
}

func TestFormatOutcome(t *testing.T) {
	tests := []struct {
		name    string
		outcome oews.YearOutcome
		want    []string
	}{
		{
			name:    "loaded",
			outcome: loadedOutcome(),
			want:    []string{SymbolCheck, "2015 loaded 1,234 rows", "oesm15nat.zip > oesm15nat/national_M2015_dl.xlsx [national_dl]", "1.5s"},
		},
		{
			name:    "unchanged",
			outcome: oews.YearOutcome{Year: 2016, Source: "data/oesm16nat.zip", Skipped: true, SkipReason: oews.ErrUnchanged},
			want:    []string{SymbolSkip, "2016 skipped", "unchanged", "oesm16nat.zip"},
		},
		{
			name: "failed",
			outcome: oews.YearOutcome{Year: 2014, Source: "data/oesm14nat.zip",
				Err: oews.NewYearError(2014, oews.StageLocate, oews.ErrNoDataFile)},
			want: []string{SymbolCross, "2014 failed: locate: no data file in archive"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := FormatOutcome(tt.outcome)
			for _, w := range tt.want {
				assert.Contains(t, line, w)
			}
			assert.NotContains(t, line, "year 2014:", "year is not repeated")
		})
	}
}

func TestRunImport_NonInteractive(t *testing.T) {
	var out bytes.Buffer
	want := &oews.RunReport{}

	report, err := RunImport(context.Background(), false, &out, func(ctx context.Context, h Hooks) (*oews.RunReport, error) {
		assert.Nil(t, h.OnRows, "row counts are not printed line by line")
		h.OnYear(loadedOutcome())
		h.OnYear(oews.YearOutcome{Year: 2016, Skipped: true, SkipReason: oews.ErrEmptySource, Source: "x_2016.csv"})
		return want, nil
	})
	require.NoError(t, err)
	assert.Same(t, want, report)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "2015 loaded")
	assert.Contains(t, lines[1], "2016 skipped")
}

func TestRunImport_NonInteractivePropagatesError(t *testing.T) {
	boom := errors.Join(oews.ErrConnectionFailed, errors.New("refused"))
	_, err := RunImport(context.Background(), false, &bytes.Buffer{}, func(context.Context, Hooks) (*oews.RunReport, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, oews.ErrConnectionFailed)
}

func TestProgressModel(t *testing.T) {
	cancelled := false
	m := newProgressModel(func() { cancelled = true })

	next, cmd := m.Update(rowsMsg{year: 2015, rows: 3000})
	m = next.(progressModel)
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Importing 2015")
	assert.Contains(t, m.View(), "3,000 rows")

	next, cmd = m.Update(yearMsg{outcome: loadedOutcome()})
	m = next.(progressModel)
	assert.NotNil(t, cmd, "finished years are printed above the spinner")
	assert.NotContains(t, m.View(), "3,000 rows")

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	m = next.(progressModel)
	assert.True(t, cancelled)
	assert.Contains(t, m.View(), "Cancelling")

	next, cmd = m.Update(finishedMsg{})
	m = next.(progressModel)
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.Empty(t, m.View())
}
