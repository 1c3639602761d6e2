// Package autocomplete is the suggestion popup of the console editor.
package autocomplete

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/tablescope/internal/completion"
	"github.com/sadopc/tablescope/internal/theme"
)

const maxVisible = 6

// SelectedMsg carries the edit that applies a suggestion: delete Replace
// characters before the cursor, then insert Text.
type SelectedMsg struct {
	Text    string
	Replace int
}

// DismissMsg is sent when the popup is closed without a choice.
type DismissMsg struct{}

// Model is the popup.
type Model struct {
	engine   *completion.Engine
	items    []completion.Item
	selected int
	visible  bool
	prefix   string
	width    int
}

// New creates a hidden popup backed by engine.
func New(engine *completion.Engine) Model {
	return Model{engine: engine, width: 44}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles keys while the popup is visible.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !m.visible || !ok {
		return m, nil
	}
	switch key.String() {
	case "up", "ctrl+p":
		if m.selected > 0 {
			m.selected--
		}
	case "down", "ctrl+n":
		if m.selected < len(m.items)-1 {
			m.selected++
		}
	case "enter", "tab":
		if m.selected < len(m.items) {
			sel := completeFrom(m.prefix, m.items[m.selected].Label)
			m.visible = false
			return m, func() tea.Msg { return sel }
		}
	case "esc":
		m.visible = false
		return m, func() tea.Msg { return DismissMsg{} }
	}
	return m, nil
}

// completeFrom builds the edit for label after prefix was typed. A label
// that starts with prefix only appends the rest; a fuzzy match replaces the
// prefix. Keywords typed in lower case are completed in lower case.
func completeFrom(prefix, label string) SelectedMsg {
	if prefix == "" {
		return SelectedMsg{Text: label}
	}
	if !strings.HasPrefix(strings.ToLower(label), strings.ToLower(prefix)) {
		return SelectedMsg{Text: label, Replace: len([]rune(prefix))}
	}
	rest := label[len(prefix):]
	if prefix == strings.ToLower(prefix) && label == strings.ToUpper(label) {
		rest = strings.ToLower(rest)
	}
	return SelectedMsg{Text: rest}
}

// Trigger computes suggestions for text with the cursor at byte offset
// cursor. The popup shows only when there is something to suggest.
func (m *Model) Trigger(text string, cursor int) {
	if m.engine == nil {
		return
	}
	m.items = m.engine.Complete(text, cursor)
	m.prefix, _ = completion.Prefix(text[:min(max(cursor, 0), len(text))])
	m.selected = 0
	m.visible = len(m.items) > 0
}

// Dismiss hides the popup.
func (m *Model) Dismiss() { m.visible = false }

// Visible returns whether the popup is shown.
func (m Model) Visible() bool { return m.visible }

// Items returns the current suggestions.
func (m Model) Items() []completion.Item { return m.items }

// SetEngine replaces the completion engine.
func (m *Model) SetEngine(engine *completion.Engine) { m.engine = engine }

// View renders the popup.
func (m Model) View() string {
	if !m.visible || len(m.items) == 0 {
		return ""
	}
	th := theme.Current

	offset := 0
	if m.selected >= maxVisible {
		offset = m.selected - maxVisible + 1
	}
	end := min(offset+maxVisible, len(m.items))

	lines := make([]string, 0, end-offset)
	for i := offset; i < end; i++ {
		it := m.items[i]
		label := it.Kind.Icon() + " " + it.Label
		if it.Detail != "" {
			label += "  " + it.Detail
		}
		label = runewidth.FillRight(runewidth.Truncate(label, m.width-2, "…"), m.width-2)
		if i == m.selected {
			lines = append(lines, th.AutocompleteSelected.Render(label))
		} else {
			lines = append(lines, th.AutocompleteItem.Render(label))
		}
	}
	return th.AutocompleteBorder.Render(strings.Join(lines, "\n"))
}
