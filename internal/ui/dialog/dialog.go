// Package dialog provides the modal confirm dialog, the full-value viewer
// and the overlay helper used to draw either on top of the main layout.
package dialog

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/sadopc/tablescope/internal/theme"
)

// Button is a dialog button. A KeepOpen button leaves the dialog visible
// after it fires; the caller hides it once the action completes.
type Button struct {
	Label    string
	Action   func() tea.Msg
	KeepOpen bool
}

// Model is a modal confirm dialog.
type Model struct {
	title    string
	body     string
	buttons  []Button
	active   int
	visible  bool
	busy     string
	errText  string
	width    int
	maxWidth int
}

// New creates a hidden dialog.
func New(title, body string, buttons ...Button) Model {
	return Model{
		title:    title,
		body:     body,
		buttons:  buttons,
		maxWidth: 60,
	}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles key input while the dialog is visible. Keys are ignored
// while the dialog is busy.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !m.visible || !ok || m.busy != "" {
		return m, nil
	}
	switch key.String() {
	case "left", "shift+tab", "h":
		if m.active > 0 {
			m.active--
		}
	case "right", "tab", "l":
		if m.active < len(m.buttons)-1 {
			m.active++
		}
	case "enter":
		if m.active < len(m.buttons) && m.buttons[m.active].Action != nil {
			b := m.buttons[m.active]
			if !b.KeepOpen {
				m.visible = false
			}
			return m, b.Action
		}
		m.visible = false
	case "esc", "n":
		m.visible = false
	case "y":
		if len(m.buttons) > 0 && m.buttons[0].Action != nil {
			m.active = 0
			return m.Update(tea.KeyMsg{Type: tea.KeyEnter})
		}
	}
	return m, nil
}

// View renders the dialog box.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	th := theme.Current
	inner := max(m.maxWidth-4, 10)

	parts := []string{th.DialogTitle.Render(m.title), "", lipgloss.NewStyle().Width(inner).Render(m.body)}
	if m.errText != "" {
		parts = append(parts, "", th.ErrorText.Width(inner).Render(m.errText))
	}
	parts = append(parts, "")

	if m.busy != "" {
		parts = append(parts, th.MutedText.Render(m.busy))
	} else {
		var btns []string
		for i, b := range m.buttons {
			style := th.DialogButton
			if i == m.active {
				style = th.DialogButtonActive
			}
			btns = append(btns, style.Render(b.Label))
		}
		row := lipgloss.JoinHorizontal(lipgloss.Center, btns...)
		parts = append(parts, lipgloss.NewStyle().Width(inner).Align(lipgloss.Center).Render(row))
	}

	return th.DialogBorder.Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// Show makes the dialog visible with the first button active and clears
// any earlier error.
func (m *Model) Show() {
	m.visible = true
	m.active = 0
	m.busy = ""
	m.errText = ""
}

// Hide makes the dialog invisible.
func (m *Model) Hide() {
	m.visible = false
	m.busy = ""
}

// Visible returns whether the dialog is shown.
func (m Model) Visible() bool { return m.visible }

// SetBody replaces the dialog text.
func (m *Model) SetBody(body string) { m.body = body }

// SetBusy replaces the buttons with a progress line. An empty text restores
// the buttons.
func (m *Model) SetBusy(text string) { m.busy = text }

// Busy reports whether the dialog is waiting on its action.
func (m Model) Busy() bool { return m.busy != "" }

// SetError shows err under the body, or clears it when err is nil.
func (m *Model) SetError(err error) {
	m.errText = ""
	if err != nil {
		m.errText = err.Error()
	}
}

// SetSize sets the available space for centering.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.maxWidth = min(60, max(width-4, 20))
}

// Overlay draws the dialog centered over background.
func (m Model) Overlay(background string) string {
	if !m.visible {
		return background
	}
	return Overlay(background, m.View(), m.width)
}

// Overlay draws fg centered over background, which is width cells wide.
// Background lines under fg keep their text to the left and right of it.
func Overlay(background, fg string, width int) string {
	bgLines := strings.Count(background, "\n") + 1
	fgLines := strings.Count(fg, "\n") + 1
	return PlaceAt(background, fg, max((width-lipgloss.Width(fg))/2, 0), max((bgLines-fgLines)/2, 0))
}

// PlaceAt draws fg over background with its top-left corner at column x of
// line y. Lines of fg past the end of background are dropped.
func PlaceAt(background, fg string, x, y int) string {
	bgLines := strings.Split(background, "\n")
	for i, line := range strings.Split(fg, "\n") {
		row := y + i
		if row < 0 || row >= len(bgLines) {
			continue
		}
		bg := bgLines[row]
		left := ansi.Truncate(bg, x, "")
		if pad := x - ansi.StringWidth(left); pad > 0 {
			left += strings.Repeat(" ", pad)
		}
		right := ""
		if end := x + lipgloss.Width(line); ansi.StringWidth(bg) > end {
			right = ansi.TruncateLeft(bg, end, "")
		}
		bgLines[row] = left + line + right
	}
	return strings.Join(bgLines, "\n")
}
