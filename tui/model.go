// Package tui provides the Bubble Tea progress display for a link check
// run and a styled summary of its failures.
package tui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/boillodmanuel/markdown-link-check/linkcheck"
	"github.com/boillodmanuel/markdown-link-check/result"
)

// RunFunc performs the link check. It is called once, off the UI goroutine.
type RunFunc func(ctx context.Context) (*result.Result, error)

// Model is the Bubble Tea model for the link check progress display.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	run        RunFunc
	spinner    spinner.Model
	bar        progress.Model
	progressCh <-chan linkcheck.Event

	checked  int
	total    int
	failures int
	current  string
	quitting bool
	done     bool
	result   *result.Result
	err      error
	width    int
}

// NewModel creates a model that calls run and follows its progress events.
func NewModel(ctx context.Context, cancel context.CancelFunc, run RunFunc, progressCh <-chan linkcheck.Event) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		run:        run,
		spinner:    spin,
		bar:        progress.New(progress.WithDefaultGradient(), progress.WithWidth(40)),
		progressCh: progressCh,
	}
}

// Init starts the spinner, the run and the progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startRun(), waitForProgress(m.progressCh))
}

func (m Model) startRun() tea.Cmd {
	return func() tea.Msg {
		res, err := m.run(m.ctx)
		if err != nil {
			err = fmt.Errorf("link check: %w", err)
		}
		return DoneMsg{Result: res, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		if w := msg.Width - 4; w > 10 && w < 80 {
			m.bar.Width = w
		}

	case ProgressMsg:
		m.checked = msg.Checked
		m.total = msg.Total
		m.failures = msg.Failures
		m.current = msg.Link
		return m, waitForProgress(m.progressCh)

	case DoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current state.
func (m Model) View() string {
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.done && m.result != nil {
		return RenderSummary(m.result)
	}
	percent := 0.0
	if m.total > 0 {
		percent = float64(m.checked) / float64(m.total)
	}
	return fmt.Sprintf("%s Checking links... %d/%d, %d failed\n%s\n%s\n",
		m.spinner.View(), m.checked, m.total, m.failures,
		m.bar.ViewAs(percent),
		dimStyle.Render("  "+m.current))
}

// HasFailures reports whether the run found dead or error links, or failed.
func (m Model) HasFailures() bool {
	return m.err != nil || (m.result != nil && m.result.Stats.Failures() > 0)
}

// Result returns the final result, nil until the run completes.
func (m Model) Result() *result.Result {
	return m.result
}

// Err returns the run-level error, if any.
func (m Model) Err() error {
	return m.err
}

// Interrupted reports whether the user quit before the run completed.
func (m Model) Interrupted() bool {
	return m.quitting && !m.done
}
