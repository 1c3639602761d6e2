// Package sidebar lists the tables of the open database with their row
// counts. Typing "/" narrows the list with a fuzzy filter.
package sidebar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	appmsg "github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/theme"
)

// Model is the table list.
type Model struct {
	tables   []schema.Table
	visible  []int         // indexes into tables, in display order
	matched  map[int][]int // matched rune positions per table index
	selected string

	filter    textinput.Model
	filtering bool

	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	loading bool
	err     error
}

// New creates an empty sidebar.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter"
	ti.CharLimit = 64
	return Model{filter: ti}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetTables replaces the list. selected is the table the explorer is
// showing; the cursor follows it when the list changes.
func (m *Model) SetTables(tables []schema.Table, selected string) {
	changed := selected != m.selected || !sameNames(tables, m.tables)
	m.tables = tables
	m.selected = selected
	m.loading = false
	m.err = nil
	m.refilter()
	if changed {
		m.cursorTo(selected)
	}
}

// SetError shows a table-list load failure in place of the list.
func (m *Model) SetError(err error) {
	m.err = err
	m.loading = false
}

// Update handles key input while the sidebar is focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	if m.filtering {
		switch key.String() {
		case "esc":
			m.filtering = false
			m.filter.Blur()
			m.filter.SetValue("")
			m.refilter()
			m.cursorTo(m.selected)
			return m, nil
		case "enter":
			m.filtering = false
			m.filter.Blur()
			return m, m.choose()
		case "up", "down":
			// fall through to navigation
		default:
			var cmd tea.Cmd
			m.filter, cmd = m.filter.Update(msg)
			m.refilter()
			m.cursor, m.offset = 0, 0
			return m, cmd
		}
	}

	switch key.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.ensureVisible()
		}
	case "down", "j":
		if m.cursor < len(m.visible)-1 {
			m.cursor++
			m.ensureVisible()
		}
	case "home", "g":
		m.cursor, m.offset = 0, 0
	case "end", "G":
		m.cursor = max(len(m.visible)-1, 0)
		m.ensureVisible()
	case "/":
		m.filtering = true
		return m, m.filter.Focus()
	case "esc":
		if m.filter.Value() != "" {
			m.filter.SetValue("")
			m.refilter()
			m.cursorTo(m.selected)
		}
	case "enter", "right", "l":
		return m, m.choose()
	}
	return m, nil
}

func (m *Model) choose() tea.Cmd {
	t, ok := m.Current()
	if !ok {
		return nil
	}
	name := t.Name
	return func() tea.Msg { return appmsg.SelectTableMsg{Table: name} }
}

// Current returns the table under the cursor.
func (m Model) Current() (schema.Table, bool) {
	if m.cursor < 0 || m.cursor >= len(m.visible) {
		return schema.Table{}, false
	}
	return m.tables[m.visible[m.cursor]], true
}

func (m *Model) refilter() {
	m.visible = nil
	m.matched = nil
	term := strings.TrimSpace(m.filter.Value())
	if term == "" {
		for i := range m.tables {
			m.visible = append(m.visible, i)
		}
		m.clampCursor()
		return
	}

	names := make([]string, len(m.tables))
	for i, t := range m.tables {
		names[i] = t.Name
	}
	m.matched = make(map[int][]int)
	for _, match := range fuzzy.Find(term, names) {
		m.visible = append(m.visible, match.Index)
		m.matched[match.Index] = match.MatchedIndexes
	}
	m.clampCursor()
}

func (m *Model) cursorTo(name string) {
	for i, idx := range m.visible {
		if m.tables[idx].Name == name {
			m.cursor = i
			m.ensureVisible()
			return
		}
	}
	m.clampCursor()
}

func (m *Model) clampCursor() {
	if m.cursor >= len(m.visible) {
		m.cursor = len(m.visible) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.ensureVisible()
}

func (m *Model) listHeight() int {
	h := m.height - 3 // border and title
	if m.filtering || m.filter.Value() != "" {
		h--
	}
	return max(h, 1)
}

func (m *Model) ensureVisible() {
	h := m.listHeight()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// View renders the sidebar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	th := theme.Current
	innerW := max(m.width-2, 1)
	innerH := max(m.height-2, 1)

	lines := []string{th.SidebarTitle.Width(innerW).Render(fmt.Sprintf("Tables (%d)", len(m.tables)))}
	if m.filtering || m.filter.Value() != "" {
		m.filter.Width = max(innerW-3, 1)
		lines = append(lines, th.SidebarFilter.Render(m.filter.View()))
	}

	switch {
	case m.err != nil:
		lines = append(lines, "", th.ErrorText.Render(runewidth.Truncate(" "+m.err.Error(), innerW, "…")))
	case m.loading && len(m.tables) == 0:
		lines = append(lines, "", th.MutedText.Render("  Loading tables..."))
	case len(m.tables) == 0:
		lines = append(lines, "", th.MutedText.Render("  No tables."))
	case len(m.visible) == 0:
		lines = append(lines, "", th.MutedText.Render("  No match."))
	default:
		end := min(m.offset+m.listHeight(), len(m.visible))
		for i := m.offset; i < end; i++ {
			lines = append(lines, m.renderTable(m.visible[i], i == m.cursor, innerW, th))
		}
	}

	return m.borderStyle().Width(innerW).Height(innerH).Render(strings.Join(lines, "\n"))
}

func (m Model) renderTable(idx int, atCursor bool, width int, th *theme.Theme) string {
	t := m.tables[idx]
	marker := "  "
	if t.Name == m.selected {
		marker = "▸ "
	}
	count := fmt.Sprintf(" %d", t.RowCount)
	nameW := max(width-runewidth.StringWidth(marker)-runewidth.StringWidth(count), 1)
	name := runewidth.FillRight(runewidth.Truncate(t.Name, nameW, "…"), nameW)

	if atCursor && m.focused {
		return th.SidebarSelected.Render(marker + name + count)
	}
	return marker + m.highlight(name, m.matched[idx], th) + th.SidebarCount.Render(count)
}

// highlight underlines the fuzzy-matched characters of name.
func (m Model) highlight(name string, positions []int, th *theme.Theme) string {
	if len(positions) == 0 {
		return th.SidebarTable.Render(name)
	}
	hit := make(map[int]bool, len(positions))
	for _, p := range positions {
		hit[p] = true
	}
	matchStyle := th.SidebarTable.Bold(true).Underline(true)
	var b strings.Builder
	for i, r := range []rune(name) {
		if hit[i] {
			b.WriteString(matchStyle.Render(string(r)))
		} else {
			b.WriteString(th.SidebarTable.Render(string(r)))
		}
	}
	return b.String()
}

func (m Model) borderStyle() lipgloss.Style {
	if m.focused {
		return theme.Current.FocusedBorder
	}
	return theme.Current.UnfocusedBorder
}

// SetSize sets the sidebar dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// Focus focuses the sidebar.
func (m *Model) Focus() { m.focused = true }

// Blur unfocuses the sidebar and leaves filter mode.
func (m *Model) Blur() {
	m.focused = false
	m.filtering = false
	m.filter.Blur()
}

// Focused returns whether the sidebar is focused.
func (m Model) Focused() bool { return m.focused }

// Filtering reports whether the filter input has the keyboard.
func (m Model) Filtering() bool { return m.filtering }

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) { m.loading = loading }

func sameNames(a, b []schema.Table) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Name != b[i].Name {
			return false
		}
	}
	return true
}
