package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/boillodmanuel/markdown-link-check/linkcheck"
	"github.com/boillodmanuel/markdown-link-check/result"
)

// ProgressMsg reports progress for a single verified link.
type ProgressMsg struct {
	Input    string
	Link     string
	Status   result.Status
	Checked  int
	Total    int
	Failures int
}

// DoneMsg signals the run has completed.
type DoneMsg struct {
	Result *result.Result
	Err    error
}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel. A closed channel produces no message; completion is reported by
// the run itself.
func waitForProgress(ch <-chan linkcheck.Event) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return nil
		}
		return ProgressMsg{
			Input:    evt.Input,
			Link:     evt.Result.Link,
			Status:   evt.Result.Status,
			Checked:  evt.Checked,
			Total:    evt.Total,
			Failures: evt.Failures,
		}
	}
}
