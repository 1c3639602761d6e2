// Package tabs renders the bar that switches the main area between the
// selected table's rows and the SQL console.
package tabs

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tablescope/internal/theme"
)

// Tab identifies a view of the main area.
type Tab int

const (
	Rows Tab = iota
	Console
)

func (t Tab) String() string {
	if t == Console {
		return "Console"
	}
	return "Rows"
}

// SwitchMsg is sent when the active tab changes.
type SwitchMsg struct {
	Tab Tab
}

// Model is the tab bar.
type Model struct {
	active   Tab
	table    string
	modified bool
	running  bool
	width    int
}

// New returns a bar with the rows tab active.
func New() Model { return Model{} }

// Update applies SwitchMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if sw, ok := msg.(SwitchMsg); ok {
		m.active = sw.Tab
	}
	return m, nil
}

// Active returns the active tab.
func (m Model) Active() Tab { return m.active }

// Switch activates t and announces it.
func (m *Model) Switch(t Tab) tea.Cmd {
	m.active = t
	return func() tea.Msg { return SwitchMsg{Tab: t} }
}

// Toggle activates the other tab.
func (m *Model) Toggle() tea.Cmd {
	if m.active == Rows {
		return m.Switch(Console)
	}
	return m.Switch(Rows)
}

// SetTable names the table shown on the rows tab.
func (m *Model) SetTable(name string) { m.table = name }

// SetModified marks the console as holding unrun edits.
func (m *Model) SetModified(modified bool) { m.modified = modified }

// SetRunning marks a console statement as in flight.
func (m *Model) SetRunning(running bool) { m.running = running }

func (m *Model) SetSize(width int) { m.width = width }

// Title returns the label of t.
func (m Model) Title(t Tab) string {
	switch t {
	case Rows:
		if m.table != "" {
			return "Rows: " + m.table
		}
		return "Rows"
	default:
		title := "Console"
		if m.running {
			title += " (running)"
		} else if m.modified {
			title += " *"
		}
		return title
	}
}

// View renders the bar, or nothing before the first SetSize.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	th := theme.Current
	var parts []string
	for _, t := range []Tab{Rows, Console} {
		style := th.TabInactive
		if t == m.active {
			style = th.TabActive
		}
		parts = append(parts, style.Render(m.Title(t)))
	}
	bar := lipgloss.JoinHorizontal(lipgloss.Bottom, parts...)
	return th.TabBar.Width(m.width).Render(bar)
}
