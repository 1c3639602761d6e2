// Package results renders rows of values as a scrollable grid. The same
// component shows a page of the selected table and the result set of a
// console statement.
package results

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/export"
	"github.com/sadopc/tablescope/internal/theme"
	"github.com/sadopc/tablescope/internal/value"
)

// Column is a grid column header.
type Column struct {
	Name string
	PK   bool
}

const (
	minColWidth = 4
	// sampleRows bounds how many rows are measured when sizing columns.
	sampleRows = 100
)

// Model is the grid. It wraps bubbles/table for row-cursor handling and
// draws the cells itself so NULLs and the column cursor can be styled.
type Model struct {
	table   table.Model
	columns []Column
	rows    [][]value.Value
	text    [][]string // rendered cells, parallel to rows
	widths  []int

	colCursor int
	colOffset int
	viewTop   int
	cellWidth int

	width   int
	height  int
	focused bool
	loading bool
	message string
	footer  string
	empty   string
	err     error
}

// New creates an empty grid. empty is shown when there is nothing to display.
func New(empty string) Model {
	t := table.New(table.WithFocused(false), table.WithHeight(10))
	return Model{table: t, cellWidth: cell.GridWidth, empty: empty}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// SetCellWidth sets how many characters of a value are shown before it is
// truncated with an ellipsis.
func (m *Model) SetCellWidth(n int) {
	if n > 0 {
		m.cellWidth = n
	}
}

// SetPage shows one page of a table.
func (m *Model) SetPage(r *adapter.PagedResult) {
	cols := make([]Column, len(r.Columns))
	for i, c := range r.Columns {
		cols[i] = Column{Name: c.Name, PK: c.IsPK}
	}
	rows := make([][]value.Value, len(r.Rows))
	for i, row := range r.Rows {
		rows[i] = row.Values()
	}
	m.SetRows(cols, rows)
}

// SetResultSet shows the result of a console statement.
func (m *Model) SetResultSet(rs *adapter.ResultSet) {
	cols := make([]Column, len(rs.Columns))
	for i, name := range rs.Columns {
		cols[i] = Column{Name: name}
	}
	m.SetRows(cols, rs.Rows)
}

// SetRows replaces the grid content. The row cursor is kept when it is still
// in range so paging through a table does not jump back to the top.
func (m *Model) SetRows(cols []Column, rows [][]value.Value) {
	sameShape := len(cols) == len(m.columns)
	m.err = nil
	m.loading = false
	m.message = ""
	m.columns = cols
	m.rows = rows
	m.text = make([][]string, len(rows))
	for i, row := range rows {
		m.text[i] = make([]string, len(row))
		for j, v := range row {
			m.text[i][j] = cell.SingleLine(cell.Display(v, m.cellWidth))
		}
	}
	if !sameShape {
		m.colCursor, m.colOffset = 0, 0
	}
	m.rebuild()
}

// SetMessage replaces the grid with a one-line message, such as the summary
// of a mutation statement.
func (m *Model) SetMessage(text string) {
	m.clear()
	m.message = text
}

// SetError replaces the grid with an error.
func (m *Model) SetError(err error) {
	m.clear()
	m.err = err
}

// Clear empties the grid.
func (m *Model) Clear() {
	m.clear()
}

func (m *Model) clear() {
	m.columns, m.rows, m.text, m.widths = nil, nil, nil, nil
	m.colCursor, m.colOffset, m.viewTop = 0, 0, 0
	m.message, m.err, m.loading = "", nil, false
	m.table.SetRows(nil)
	m.table.SetColumns(nil)
}

// SetLoading marks the grid as waiting for data. Existing rows stay visible.
func (m *Model) SetLoading(loading bool) { m.loading = loading }

// SetFooter sets the line shown under the grid.
func (m *Model) SetFooter(s string) { m.footer = s }

// Update handles navigation keys while focused.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}
	switch key.String() {
	case "left", "h":
		if m.colCursor > 0 {
			m.colCursor--
		}
		m.scrollColumns()
		return m, nil
	case "right", "l":
		if m.colCursor < len(m.columns)-1 {
			m.colCursor++
		}
		m.scrollColumns()
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.updateViewTop()
	return m, cmd
}

// Cursor is the index of the selected row, or -1 when there are no rows.
func (m Model) Cursor() int {
	if len(m.rows) == 0 {
		return -1
	}
	return m.table.Cursor()
}

// SetCursor moves the row cursor.
func (m *Model) SetCursor(i int) {
	if len(m.rows) == 0 {
		return
	}
	m.table.SetCursor(min(max(i, 0), len(m.rows)-1))
	m.updateViewTop()
}

// ColumnCursor is the index of the selected column.
func (m Model) ColumnCursor() int { return m.colCursor }

// SelectedRow returns the values of the selected row.
func (m Model) SelectedRow() ([]value.Value, bool) {
	i := m.Cursor()
	if i < 0 || i >= len(m.rows) {
		return nil, false
	}
	return m.rows[i], true
}

// SelectedCell returns the column name and value under the cursor.
func (m Model) SelectedCell() (string, value.Value, bool) {
	row, ok := m.SelectedRow()
	if !ok || m.colCursor >= len(row) || m.colCursor >= len(m.columns) {
		return "", value.Value{}, false
	}
	return m.columns[m.colCursor].Name, row[m.colCursor], true
}

// Grid returns the displayed content for export.
func (m Model) Grid() export.Grid {
	g := export.Grid{Columns: make([]string, len(m.columns)), Rows: m.rows}
	for i, c := range m.columns {
		g.Columns[i] = c.Name
	}
	return g
}

// RowCount is the number of rows in the grid.
func (m Model) RowCount() int { return len(m.rows) }

// Message is the text shown in place of rows, if any.
func (m Model) Message() string { return m.message }

// Err is the error shown in place of rows, if any.
func (m Model) Err() error { return m.err }

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.table.SetWidth(max(w-2, 0))
	m.table.SetHeight(max(h-3, 1))
	m.updateViewTop()
	m.scrollColumns()
}

// Focus gives the grid keyboard focus.
func (m *Model) Focus() {
	m.focused = true
	m.table.Focus()
}

// Blur removes keyboard focus from the grid.
func (m *Model) Blur() {
	m.focused = false
	m.table.Blur()
}

// Focused reports whether the grid is focused.
func (m Model) Focused() bool { return m.focused }

// View renders the grid.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	th := theme.Current
	contentH := max(m.height-2, 1)

	var body string
	switch {
	case m.err != nil:
		body = th.ErrorText.Render("  Error: " + m.err.Error())
	case m.message != "":
		body = th.SuccessText.Render("  " + m.message)
	case len(m.columns) == 0 && m.loading:
		body = th.MutedText.Render("  Loading...")
	case len(m.columns) == 0:
		body = th.MutedText.Render("  " + m.empty)
	default:
		body = m.renderGrid(th)
	}

	footer := m.footer
	if m.loading {
		footer = strings.TrimSpace(footer + "  loading...")
	}
	if footer != "" {
		body = lipgloss.JoinVertical(lipgloss.Left,
			lipgloss.PlaceVertical(contentH-1, lipgloss.Top, body),
			th.GridFooter.Render("  "+footer))
	}

	border := th.UnfocusedBorder
	if m.focused {
		border = th.FocusedBorder
	}
	return border.Width(max(m.width-2, 0)).Height(contentH).Render(body)
}

func (m *Model) rebuild() {
	m.widths = columnWidths(m.columns, m.text)
	tcols := make([]table.Column, len(m.columns))
	for i, c := range m.columns {
		tcols[i] = table.Column{Title: c.Name, Width: m.widths[i]}
	}
	trows := make([]table.Row, len(m.text))
	for i, r := range m.text {
		trows[i] = table.Row(r)
	}
	cursor := m.table.Cursor()
	m.table.SetRows(nil)
	m.table.SetColumns(tcols)
	m.table.SetRows(trows)
	if len(trows) > 0 {
		m.table.SetCursor(min(max(cursor, 0), len(trows)-1))
	}
	m.updateViewTop()
	m.scrollColumns()
}

func (m Model) contentWidth() int { return max(m.width-2, 10) }

// dataHeight is the number of row lines between the header rule and the
// footer.
func (m Model) dataHeight() int { return max(m.height-5, 1) }

func (m *Model) updateViewTop() {
	cursor := m.table.Cursor()
	h := m.dataHeight()
	if cursor < m.viewTop {
		m.viewTop = cursor
	}
	if cursor >= m.viewTop+h {
		m.viewTop = cursor - h + 1
	}
	if m.viewTop < 0 {
		m.viewTop = 0
	}
}

// scrollColumns moves the first drawn column so the column cursor fits.
func (m *Model) scrollColumns() {
	if m.colCursor < m.colOffset {
		m.colOffset = m.colCursor
	}
	for m.colOffset < m.colCursor && !m.fits(m.colOffset, m.colCursor) {
		m.colOffset++
	}
}

func (m Model) fits(from, to int) bool {
	used := 0
	for i := from; i <= to && i < len(m.widths); i++ {
		used += m.widths[i] + 2
	}
	return used <= m.contentWidth()
}

func (m Model) renderGrid(th *theme.Theme) string {
	w := m.contentWidth()
	lines := []string{m.renderHeader(th, w), th.GridFooter.Render(strings.Repeat("─", w))}
	cursor := m.table.Cursor()
	end := min(m.viewTop+m.dataHeight(), len(m.rows))
	for i := m.viewTop; i < end; i++ {
		lines = append(lines, m.renderRow(th, i, i == cursor, w))
	}
	if len(m.rows) == 0 {
		lines = append(lines, th.MutedText.Render("  (no rows)"))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderHeader(th *theme.Theme, total int) string {
	var sb strings.Builder
	used := 0
	for i := m.colOffset; i < len(m.columns); i++ {
		cw := m.widths[i]
		if used+cw+2 > total && used > 0 {
			break
		}
		title := m.columns[i].Name
		if m.columns[i].PK {
			title = "*" + title
		}
		style := th.GridHeader.Padding(0, 1)
		if i == m.colCursor && m.focused {
			style = style.Underline(true)
		}
		sb.WriteString(style.Render(fill(title, cw)))
		used += cw + 2
	}
	if used < total {
		sb.WriteString(th.GridHeader.Render(strings.Repeat(" ", total-used)))
	}
	return sb.String()
}

func (m Model) renderRow(th *theme.Theme, idx int, selected bool, total int) string {
	row := m.rows[idx]
	var sb strings.Builder
	used := 0
	for j := m.colOffset; j < len(m.columns); j++ {
		cw := m.widths[j]
		if used+cw+2 > total && used > 0 {
			break
		}
		style := th.GridCell
		if j < len(row) && row[j].IsNull() {
			style = th.GridNull
		}
		if selected {
			style = th.GridSelected
			if j == m.colCursor && m.focused {
				style = style.Underline(true)
			}
		}
		text := ""
		if j < len(m.text[idx]) {
			text = m.text[idx][j]
		}
		sb.WriteString(style.Padding(0, 1).Render(fill(text, cw)))
		used += cw + 2
	}
	if used < total && selected {
		sb.WriteString(th.GridSelected.Render(strings.Repeat(" ", total-used)))
	}
	return sb.String()
}

// fill truncates or pads s to exactly w display cells.
func fill(s string, w int) string {
	return runewidth.FillRight(runewidth.Truncate(s, w, "…"), w)
}

// columnWidths sizes each column to its widest header or sampled cell.
func columnWidths(cols []Column, text [][]string) []int {
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = max(runewidth.StringWidth(c.Name)+1, minColWidth)
	}
	for r := 0; r < len(text) && r < sampleRows; r++ {
		for j := 0; j < len(cols) && j < len(text[r]); j++ {
			widths[j] = max(widths[j], runewidth.StringWidth(text[r][j]))
		}
	}
	return widths
}

// FormatDuration produces a short human-readable duration.
func FormatDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%d µs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%d ms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.2f s", d.Seconds())
	default:
		return fmt.Sprintf("%.1f min", d.Minutes())
	}
}
