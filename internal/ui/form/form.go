// Package form renders the row dialog of the explorer as a column-per-line
// form. The draft itself lives in explorer.RowEditor; the form only holds
// the text inputs and reports submit and cancel intents.
package form

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/explorer"
	"github.com/sadopc/tablescope/internal/theme"
)

// SubmitMsg asks for the draft to be saved.
type SubmitMsg struct{}

// CancelMsg asks for the draft to be discarded.
type CancelMsg struct{}

// Model is the row form.
type Model struct {
	inputs []textinput.Model
	focus  int
	offset int
	width  int
	height int
}

// New creates an empty form.
func New() Model {
	return Model{}
}

// Load builds one input per field of ed and focuses the first editable one.
func (m *Model) Load(ed *explorer.RowEditor) {
	fields := ed.Fields()
	m.inputs = make([]textinput.Model, len(fields))
	m.focus, m.offset = 0, 0
	for i, f := range fields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = f.Placeholder()
		ti.SetValue(f.Text)
		ti.CharLimit = 0
		m.inputs[i] = ti
	}
	m.focus = m.next(ed, -1, 1)
	m.syncFocus()
}

// Focused is the index of the focused field.
func (m Model) Focused() int { return m.focus }

// SetSize sets the available space.
func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

// Update handles keys for the open draft. Nothing is accepted while a
// submission is in flight.
func (m Model) Update(msg tea.Msg, ed *explorer.RowEditor) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !ed.Open() || ed.Busy() || len(m.inputs) == 0 {
		return m, nil
	}
	fields := ed.Fields()

	switch key.String() {
	case "esc":
		return m, func() tea.Msg { return CancelMsg{} }
	case "enter", "ctrl+s":
		return m, func() tea.Msg { return SubmitMsg{} }
	case "tab", "down":
		m.focus = m.next(ed, m.focus, 1)
		m.syncFocus()
		return m, nil
	case "shift+tab", "up":
		m.focus = m.next(ed, m.focus, -1)
		m.syncFocus()
		return m, nil
	case "ctrl+n":
		ed.ToggleNull(m.focus)
		return m, nil
	case " ":
		if fields[m.focus].Kind == cell.Checkbox {
			ed.ToggleCheckbox(m.focus)
			m.inputs[m.focus].SetValue(ed.Fields()[m.focus].Text)
			return m, nil
		}
	}

	if fields[m.focus].ReadOnly || fields[m.focus].Kind == cell.Checkbox {
		return m, nil
	}
	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	if after := m.inputs[m.focus].Value(); after != before {
		ed.SetField(m.focus, after)
	}
	return m, cmd
}

// next returns the next editable field after from in direction dir,
// wrapping around. It returns from when no other field is editable.
func (m Model) next(ed *explorer.RowEditor, from, dir int) int {
	fields := ed.Fields()
	n := len(fields)
	if n == 0 {
		return 0
	}
	i := from
	for range n {
		i = (i + dir + n) % n
		if !fields[i].ReadOnly {
			return i
		}
	}
	return max(from, 0)
}

func (m *Model) syncFocus() {
	for i := range m.inputs {
		if i == m.focus {
			m.inputs[i].Focus()
		} else {
			m.inputs[i].Blur()
		}
	}
	h := m.visibleFields()
	if m.focus < m.offset {
		m.offset = m.focus
	}
	if m.focus >= m.offset+h {
		m.offset = m.focus - h + 1
	}
}

func (m Model) visibleFields() int {
	return max(m.height-14, 3)
}

// Title names the dialog for the editor state.
func Title(ed *explorer.RowEditor) string {
	name := ed.Table().Name
	switch ed.State() {
	case explorer.Inserting:
		return "Insert row into " + name
	case explorer.Editing:
		return "Edit row in " + name
	default:
		return name
	}
}

// View renders the form box.
func (m Model) View(ed *explorer.RowEditor) string {
	if !ed.Open() || ed.State() == explorer.ConfirmingDelete {
		return ""
	}
	th := theme.Current
	fields := ed.Fields()
	inner := max(min(m.width-8, 90), 30)

	labelW := 0
	for _, f := range fields {
		labelW = max(labelW, runewidth.StringWidth(label(f)))
	}
	labelW = min(labelW, inner/2)
	inputW := max(inner-labelW-3, 8)

	lines := []string{th.DialogTitle.Render(Title(ed)), ""}
	end := min(m.offset+m.visibleFields(), len(fields))
	if m.offset > 0 {
		lines = append(lines, th.MutedText.Render(fmt.Sprintf("  ↑ %d more", m.offset)))
	}
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderField(th, fields[i], i, labelW, inputW))
	}
	if end < len(fields) {
		lines = append(lines, th.MutedText.Render(fmt.Sprintf("  ↓ %d more", len(fields)-end)))
	}

	lines = append(lines, "")
	if err := ed.Err(); err != nil {
		lines = append(lines, th.ErrorText.Width(inner).Render(err.Error()), "")
	}
	if ed.Busy() {
		lines = append(lines, th.MutedText.Render("Saving..."))
	} else {
		lines = append(lines, th.MutedText.Render("tab next · ctrl+n null · space toggle · enter save · esc cancel"))
	}
	return th.DialogBorder.Render(strings.Join(lines, "\n"))
}

func label(f explorer.Field) string {
	s := f.Column.Name
	if f.Required {
		s += "*"
	}
	return s
}

func (m Model) renderField(th *theme.Theme, f explorer.Field, i, labelW, inputW int) string {
	marker := "  "
	if i == m.focus {
		marker = "▸ "
	}
	name := runewidth.FillRight(runewidth.Truncate(label(f), labelW, "…"), labelW)
	typ := th.MutedText.Render(runewidth.Truncate(strings.ToLower(f.Column.Type), 12, "…"))

	var input string
	switch {
	case f.ReadOnly:
		input = th.DialogReadOnly.Render(runewidth.Truncate(f.Text, inputW, "…") + " (key)")
	case f.Null:
		input = th.GridNull.Render(cell.NullMarker)
	case f.Kind == cell.Checkbox:
		b, _ := cell.ParseBool(f.Text)
		box := "[ ]"
		if b {
			box = "[x]"
		}
		input = box
	default:
		ti := m.inputs[i]
		ti.Width = inputW
		input = ti.View()
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, marker, th.DialogLabel.Render(name), " │ ", input, " ", typ)
}
