// ABOUTME: Bubbletea model for the batch progress TUI
// ABOUTME: Defines per-file state and update logic driven by batch events
package ui

import (
	"fmt"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Resonate-Protocol/glc-go/internal/batch"
)

// fileState is the display state of one file in the batch
type fileState struct {
	name    string
	phase   string
	done    int
	total   int
	ratio   float64
	message string
	failed  bool
	ok      bool
}

// Model represents the TUI state
type Model struct {
	runID    string
	mode     string
	files    []fileState
	finished bool
	quitting bool
	control  *Control

	// Dimensions
	width  int
	height int
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StatusMsg:
		m.applyStatus(msg)
	case DoneMsg:
		m.finished = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Stopping after the current file...\n"
	}

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("205")).
		MarginBottom(1)

	headerStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("86"))

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("250"))

	okStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196"))

	var b strings.Builder
	b.WriteString(titleStyle.Render("GLC " + m.mode))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Run: "))
	b.WriteString(valueStyle.Render(m.runID))
	b.WriteString("\n")

	ok, failed := m.counts()
	b.WriteString(headerStyle.Render("Files: "))
	b.WriteString(valueStyle.Render(fmt.Sprintf("%d done, %d failed, %d total", ok, failed, len(m.files))))
	b.WriteString("\n\n")

	for _, f := range m.files {
		name := truncate(f.name, 32)
		switch {
		case f.ok:
			line := fmt.Sprintf("  ✓ %-32s", name)
			if f.ratio > 0 {
				line += fmt.Sprintf(" %.2fx", f.ratio)
			}
			b.WriteString(okStyle.Render(line))
		case f.failed:
			b.WriteString(errStyle.Render(fmt.Sprintf("  ✗ %-32s %s", name, truncate(f.message, 40))))
		case f.total > 0:
			b.WriteString(fmt.Sprintf("  • %-32s [%s] %s %d/%d", name, renderBar(f.done, f.total, 20), f.phase, f.done, f.total))
		case f.phase != "":
			b.WriteString(valueStyle.Render(fmt.Sprintf("  • %-32s %s", name, f.phase)))
		default:
			b.WriteString(valueStyle.Render(fmt.Sprintf("    %-32s waiting", name)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press 'q' or Ctrl+C to stop"))
	return b.String()
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		if m.control != nil {
			select {
			case m.control.Quit <- struct{}{}:
			default:
			}
		}
		return m, tea.Quit
	}
	return m, nil
}

// applyStatus updates model from status message
func (m *Model) applyStatus(msg StatusMsg) {
	if msg.Index < 0 || msg.Index >= len(m.files) {
		return
	}
	f := &m.files[msg.Index]
	switch msg.Kind {
	case batch.EventEncoding, batch.EventDecoding:
		f.phase = msg.Kind.String()
		f.total = msg.Total
		// Progress events may arrive out of order from the worker pool
		if msg.Done > f.done {
			f.done = msg.Done
		}
	case batch.EventExporting:
		f.phase = "exporting " + msg.Message
		f.total = 0
	case batch.EventStatus:
		f.phase = msg.Message
	case batch.EventComplete:
		f.ok = true
		f.ratio = msg.Ratio
	case batch.EventError:
		f.failed = true
		f.message = msg.Message
	}
}

func (m Model) counts() (ok, failed int) {
	for _, f := range m.files {
		if f.ok {
			ok++
		}
		if f.failed {
			failed++
		}
	}
	return ok, failed
}

// StatusMsg updates TUI state for one file
type StatusMsg struct {
	Kind    batch.EventKind
	Index   int
	Done    int
	Total   int
	Message string
	Ratio   float64
}

// DoneMsg tells the TUI the batch has finished
type DoneMsg struct{}

// FromEvent converts a batch event into a status message
func FromEvent(ev batch.Event, mode batch.Mode) StatusMsg {
	msg := StatusMsg{
		Kind:    ev.Kind,
		Index:   ev.Index,
		Done:    ev.Done,
		Total:   ev.Total,
		Message: ev.Message,
	}
	if ev.Result != nil && mode == batch.ModeEncode {
		msg.Ratio = ev.Result.Ratio()
	}
	return msg
}

// Utility functions
func renderBar(value, max, width int) string {
	if max <= 0 {
		return strings.Repeat("░", width)
	}
	filled := min((value*width)/max, width)
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, length int) string {
	if len(s) <= length {
		return s
	}
	return s[:length-3] + "..."
}

func displayName(path string) string {
	return filepath.Base(path)
}
