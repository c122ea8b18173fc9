package tui

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vvka-141/oews/internal/tui/components"
	"github.com/vvka-141/oews/pkg/oews"
)

// Hooks receive progress from an import run. They are called from the
// goroutine running the import.
type Hooks struct {
	OnRows func(year, rows int)
	OnYear func(oews.YearOutcome)
}

// ImportFunc runs one import, reporting progress through hooks.
type ImportFunc func(ctx context.Context, hooks Hooks) (*oews.RunReport, error)

// RunImport runs fn while showing progress on w: a spinner with a running row
// count when interactive, one plain line per finished year otherwise.
// Ctrl+C in the spinner cancels the import between batches.
func RunImport(ctx context.Context, interactive bool, w io.Writer, fn ImportFunc) (*oews.RunReport, error) {
	if !interactive {
		return fn(ctx, Hooks{
			OnYear: func(o oews.YearOutcome) { fmt.Fprintln(w, FormatOutcome(o)) },
		})
	}
	return runWithSpinner(ctx, w, fn)
}

type importResult struct {
	report *oews.RunReport
	err    error
}

func runWithSpinner(ctx context.Context, w io.Writer, fn ImportFunc) (*oews.RunReport, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(cancel), tea.WithOutput(w))

	results := make(chan importResult, 1)
	go func() {
		report, err := fn(ctx, Hooks{
			OnRows: func(year, rows int) { p.Send(rowsMsg{year: year, rows: rows}) },
			OnYear: func(o oews.YearOutcome) { p.Send(yearMsg{outcome: o}) },
		})
		results <- importResult{report: report, err: err}
		p.Send(finishedMsg{})
	}()

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(w, "progress display stopped: %v\n", err)
	}
	res := <-results
	return res.report, res.err
}

type rowsMsg struct{ year, rows int }

type yearMsg struct{ outcome oews.YearOutcome }

type finishedMsg struct{}

type progressModel struct {
	spinner components.Spinner
	cancel  context.CancelFunc
	done    bool
}

func newProgressModel(cancel context.CancelFunc) progressModel {
	return progressModel{spinner: components.NewSpinner("Discovering inputs..."), cancel: cancel}
}

func (m progressModel) Init() tea.Cmd {
	return m.spinner.Init()
}

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case rowsMsg:
		m.spinner.SetMessage(fmt.Sprintf("Importing %d", msg.year))
		m.spinner.SetDetail(fmt.Sprintf("%s rows", FormatCount(int64(msg.rows))))
		return m, nil
	case yearMsg:
		m.spinner.SetMessage("Importing next year...")
		return m, tea.Println(styledOutcome(msg.outcome))
	case finishedMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancel()
			m.spinner.SetMessage("Cancelling after the current batch...")
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m progressModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + "\n"
}

// FormatOutcome renders one year's outcome as a plain line.
func FormatOutcome(o oews.YearOutcome) string {
	_, symbol := statusStyle(o.Status())
	return symbol + " " + outcomeText(o)
}

func styledOutcome(o oews.YearOutcome) string {
	style, symbol := statusStyle(o.Status())
	return style.Render(symbol) + " " + outcomeText(o)
}

func outcomeText(o oews.YearOutcome) string {
	switch {
	case o.Err != nil:
		return fmt.Sprintf("%d failed: %v", o.Year, unwrapYear(o.Err))
	case o.Skipped:
		return fmt.Sprintf("%d skipped: %v (%s)", o.Year, o.SkipReason, filepath.Base(o.Source))
	}
	text := fmt.Sprintf("%d loaded %s rows from %s", o.Year, FormatCount(o.Rows), sourceLabel(o))
	if o.Duration > 0 {
		text += fmt.Sprintf(" in %s", o.Duration.Round(10*time.Millisecond))
	}
	return text
}

// unwrapYear drops the "year N:" prefix the line already shows.
func unwrapYear(err error) string {
	if ye, ok := err.(*oews.YearError); ok {
		return fmt.Sprintf("%s: %v", ye.Stage, ye.Err)
	}
	return err.Error()
}

func sourceLabel(o oews.YearOutcome) string {
	label := filepath.Base(o.Source)
	if o.File != "" && o.File != o.Source {
		label += " > " + o.File
	}
	if o.Sheet != "" {
		label += " [" + o.Sheet + "]"
	}
	return label
}
