// Package historybrowser is the modal listing past console statements.
package historybrowser

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/tablescope/internal/history"
	appmsg "github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/theme"
)

const loadLimit = 200

// Source is the part of history.History the browser reads.
type Source interface {
	Recent(limit int) ([]history.Entry, error)
	Search(term string, limit int) ([]history.Entry, error)
}

// Model is the history browser modal.
type Model struct {
	src     Source
	entries []history.Entry
	err     error
	cursor  int
	offset  int
	visible bool
	width   int
	height  int
	search  textinput.Model
	now     func() time.Time
}

// New returns a hidden browser over src. A nil src shows an empty list.
func New(src Source) Model {
	ti := textinput.New()
	ti.Placeholder = "Search statements..."
	ti.Prompt = "  > "
	ti.Width = 50
	return Model{src: src, search: ti, now: time.Now}
}

// Show resets the search and loads the newest entries.
func (m *Model) Show() tea.Cmd {
	m.visible = true
	m.cursor, m.offset = 0, 0
	m.search.SetValue("")
	m.load()
	return m.search.Focus()
}

func (m *Model) Hide() {
	m.visible = false
	m.search.Blur()
}

func (m Model) Visible() bool { return m.visible }

func (m *Model) SetSize(width, height int) {
	m.width, m.height = width, height
}

// Entries returns the listed entries.
func (m Model) Entries() []history.Entry { return m.entries }

// Update handles keys while visible. Enter closes the browser and sends the
// chosen statement to the console as an InsertTextMsg.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	if !m.visible {
		return m, nil
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.search, cmd = m.search.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "esc", "ctrl+h":
		m.Hide()
		return m, nil
	case "up", "ctrl+p":
		m.move(-1)
		return m, nil
	case "down", "ctrl+n":
		m.move(1)
		return m, nil
	case "pgup":
		m.move(-m.visibleCount())
		return m, nil
	case "pgdown":
		m.move(m.visibleCount())
		return m, nil
	case "enter":
		if m.cursor >= len(m.entries) {
			return m, nil
		}
		stmt := m.entries[m.cursor].Statement
		m.Hide()
		return m, func() tea.Msg { return appmsg.InsertTextMsg{Text: stmt} }
	}

	prev := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(key)
	if m.search.Value() != prev {
		m.cursor, m.offset = 0, 0
		m.load()
	}
	return m, cmd
}

func (m *Model) move(delta int) {
	m.cursor = min(max(m.cursor+delta, 0), max(len(m.entries)-1, 0))
	visible := m.visibleCount()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
}

func (m *Model) load() {
	m.entries, m.err = nil, nil
	if m.src == nil {
		return
	}
	if term := m.search.Value(); term != "" {
		m.entries, m.err = m.src.Search(term, loadLimit)
	} else {
		m.entries, m.err = m.src.Recent(loadLimit)
	}
}

// View renders the modal.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	th := theme.Current
	w := m.dialogWidth()

	var lines []string
	end := min(m.offset+m.visibleCount(), len(m.entries))
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		line := m.formatEntry(e, w-6)
		switch {
		case i == m.cursor:
			lines = append(lines, th.SidebarSelected.Render("> "+line))
		case e.Failed():
			lines = append(lines, th.ErrorText.Render("  "+line))
		default:
			lines = append(lines, "  "+line)
		}
	}
	switch {
	case m.err != nil:
		lines = append(lines, th.ErrorText.Render("  "+m.err.Error()))
	case len(m.entries) == 0:
		lines = append(lines, th.MutedText.Render("  No history entries"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		th.DialogTitle.Render("  Console History  "),
		"  "+m.search.View(),
		"",
		strings.Join(lines, "\n"),
		"",
		th.MutedText.Render(fmt.Sprintf("  %d entries", len(m.entries))),
		th.MutedText.Render("  enter:insert  esc:close  up/down:navigate"),
	)
	return th.DialogBorder.Width(w).Render(content)
}

func (m Model) dialogWidth() int {
	w := 80
	if m.width > 0 && w > m.width-4 {
		w = m.width - 4
	}
	return w
}

// visibleCount is the number of entry lines that fit: height minus six
// lines of chrome and the border.
func (m Model) visibleCount() int {
	return max(m.height-8, 3)
}

func (m Model) formatEntry(e history.Entry, maxWidth int) string {
	stmtWidth := max(maxWidth-30, 10)
	stmt := runewidth.Truncate(firstLine(e.Statement), stmtWidth, "...")

	var meta []string
	if e.Driver != "" {
		meta = append(meta, e.Driver)
	}
	if e.Failed() {
		meta = append(meta, "error")
	} else if e.DurationMS > 0 {
		meta = append(meta, formatDuration(e.DurationMS))
	}
	meta = append(meta, RelativeTime(m.now(), e.ExecutedAt))

	return runewidth.FillRight(stmt, stmtWidth) + "  " + strings.Join(meta, " | ")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i]) + " ..."
	}
	return s
}

func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	return fmt.Sprintf("%.1fs", float64(ms)/1000)
}

// RelativeTime describes t relative to now.
func RelativeTime(now, t time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	case d < 48*time.Hour:
		return "yesterday"
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
