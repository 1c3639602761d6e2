// Package editor is the console's SQL input: a textarea while focused and a
// syntax-highlighted preview otherwise.
package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tablescope/internal/theme"
)

// Placeholder is shown while the console is empty.
const Placeholder = "Write SQL and press F5 or ctrl+g to run"

// Model is the console editor.
type Model struct {
	textarea    textarea.Model
	highlighter *Highlighter
	width       int
	height      int
	focused     bool
	modified    bool
}

// New returns an empty, blurred editor highlighting the dialect of driver.
func New(driver string) Model {
	ta := textarea.New()
	ta.Placeholder = Placeholder
	ta.ShowLineNumbers = true
	ta.CharLimit = 0
	ta.MaxHeight = 0

	th := theme.Current
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Prompt = th.EditorGutter
	ta.FocusedStyle.LineNumber = th.EditorGutter
	ta.FocusedStyle.Text = lipgloss.NewStyle()
	ta.BlurredStyle.Prompt = th.EditorGutter
	ta.BlurredStyle.LineNumber = th.EditorGutter
	ta.BlurredStyle.Text = lipgloss.NewStyle()
	ta.Blur()

	return Model{textarea: ta, highlighter: NewHighlighter(driver)}
}

// SetDriver switches the highlighting dialect.
func (m *Model) SetDriver(driver string) { m.highlighter = NewHighlighter(driver) }

// Init starts the cursor blink.
func (m Model) Init() tea.Cmd { return textarea.Blink }

// Update forwards input to the textarea while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.focused {
		return m, nil
	}
	prev := m.textarea.Value()
	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	if m.textarea.Value() != prev {
		m.modified = true
	}
	return m, cmd
}

// View renders the editor inside a border sized by SetSize.
func (m Model) View() string {
	th := theme.Current
	border := th.UnfocusedBorder
	if m.focused {
		border = th.FocusedBorder
	}
	w, h := m.inner()

	var content string
	if m.focused {
		content = m.textarea.View()
	} else {
		content = m.renderHighlighted(th, h)
	}
	return border.Width(w).Height(h).Render(content)
}

func (m Model) inner() (int, int) {
	return max(m.width-2, 1), max(m.height-2, 1)
}

func (m Model) renderHighlighted(th *theme.Theme, height int) string {
	raw := m.textarea.Value()
	if raw == "" {
		return th.MutedText.Render(Placeholder)
	}
	lines := strings.Split(m.highlighter.Highlight(raw, th), "\n")
	if len(lines) > height {
		lines = lines[:height]
	}
	gutter := max(len(fmt.Sprint(strings.Count(raw, "\n")+1)), 2)

	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(th.EditorGutter.Render(fmt.Sprintf("%*d ", gutter, i+1)))
		b.WriteString(line)
	}
	return b.String()
}

// Value returns the statement text.
func (m Model) Value() string { return m.textarea.Value() }

// SetValue replaces the statement text.
func (m *Model) SetValue(s string) {
	m.textarea.SetValue(s)
	m.modified = true
}

// Reset empties the editor.
func (m *Model) Reset() {
	m.textarea.Reset()
	m.modified = false
}

// Cursor returns the byte offset of the cursor in Value.
func (m Model) Cursor() int {
	lines := strings.Split(m.textarea.Value(), "\n")
	row := min(m.textarea.Line(), len(lines)-1)
	off := 0
	for _, l := range lines[:row] {
		off += len(l) + 1
	}
	li := m.textarea.LineInfo()
	col := li.StartColumn + li.ColumnOffset
	line := lines[row]
	for i := 0; i < col && line != ""; i++ {
		_, size := utf8.DecodeRuneInString(line)
		off += size
		line = line[size:]
	}
	return off
}

// TextBeforeCursor returns Value up to the cursor.
func (m Model) TextBeforeCursor() string { return m.Value()[:m.Cursor()] }

// InsertText inserts text at the cursor.
func (m *Model) InsertText(text string) {
	m.textarea.InsertString(text)
	m.modified = true
}

// ReplaceBeforeCursor deletes n characters before the cursor and inserts
// text in their place.
func (m *Model) ReplaceBeforeCursor(n int, text string) {
	for range n {
		m.textarea, _ = m.textarea.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	}
	m.InsertText(text)
}

// SetSize sets the outer size, border included.
func (m *Model) SetSize(w, h int) {
	m.width, m.height = w, h
	iw, ih := m.inner()
	m.textarea.SetWidth(iw)
	m.textarea.SetHeight(ih)
}

// Focus gives the editor input focus.
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.textarea.Focus()
}

// Blur removes input focus.
func (m *Model) Blur() {
	m.focused = false
	m.textarea.Blur()
}

func (m Model) Focused() bool { return m.focused }

// Modified reports whether the text changed since the last ResetModified.
func (m Model) Modified() bool { return m.modified }

func (m *Model) ResetModified() { m.modified = false }
