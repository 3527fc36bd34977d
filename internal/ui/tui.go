// ABOUTME: TUI initialization and control
// ABOUTME: Wraps bubbletea program for batch progress and forwards events
package ui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Resonate-Protocol/glc-go/internal/batch"
)

// Control carries the user's request to stop the batch
type Control struct {
	Quit chan struct{}
}

// NewControl creates a new control handler
func NewControl() *Control {
	return &Control{
		Quit: make(chan struct{}, 1),
	}
}

// NewModel creates a new TUI model listing every file of the batch
func NewModel(runID string, mode batch.Mode, paths []string, ctrl *Control) Model {
	files := make([]fileState, len(paths))
	for i, p := range paths {
		files[i].name = displayName(p)
	}
	return Model{
		runID:   runID,
		mode:    mode.String(),
		files:   files,
		control: ctrl,
	}
}

// Run creates the TUI program
func Run(model Model) (*tea.Program, error) {
	p := tea.NewProgram(model, tea.WithAltScreen())
	return p, nil
}

// Forward sends batch events to the program until events is closed
func Forward(p *tea.Program, events <-chan batch.Event, mode batch.Mode) {
	for ev := range events {
		p.Send(FromEvent(ev, mode))
	}
}
