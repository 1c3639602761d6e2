package results

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/theme"
	"github.com/sadopc/tablescope/internal/value"
)

func init() {
	theme.Current = theme.Default()
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func samplePage(n int) *adapter.PagedResult {
	cols := []schema.Column{
		{Name: "id", IsPK: true},
		{Name: "name"},
		{Name: "notes", Nullable: true},
	}
	r := &adapter.PagedResult{Table: "agents", Columns: cols, Page: 1, PageSize: 25}
	for i := range n {
		r.Rows = append(r.Rows, value.NewRow(
			[]string{"id", "name", "notes"},
			[]value.Value{value.Int(int64(i + 1)), value.String("agent"), value.Null()},
		))
	}
	return r
}

func newGrid(t *testing.T, rows int) Model {
	t.Helper()
	m := New("Select a table")
	m.SetSize(80, 20)
	m.Focus()
	m.SetPage(samplePage(rows))
	return m
}

func TestEmptyView(t *testing.T) {
	m := New("Select a table")
	m.SetSize(60, 10)
	if !strings.Contains(m.View(), "Select a table") {
		t.Error("empty grid should show its placeholder")
	}
	if m.Cursor() != -1 {
		t.Errorf("Cursor() = %d, want -1", m.Cursor())
	}
	if _, ok := m.SelectedRow(); ok {
		t.Error("SelectedRow() on empty grid")
	}
}

func TestSetPageRendersNullMarkerAndKey(t *testing.T) {
	m := newGrid(t, 2)
	v := m.View()
	for _, want := range []string{"*id", "name", cell.NullMarker, "agent"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestRowAndColumnCursor(t *testing.T) {
	m := newGrid(t, 3)

	m, _ = m.Update(keyMsg("j"))
	m, _ = m.Update(keyMsg("j"))
	if m.Cursor() != 2 {
		t.Fatalf("Cursor() = %d, want 2", m.Cursor())
	}
	m, _ = m.Update(keyMsg("l"))
	m, _ = m.Update(keyMsg("l"))
	m, _ = m.Update(keyMsg("l"))
	if m.ColumnCursor() != 2 {
		t.Fatalf("ColumnCursor() = %d, want 2", m.ColumnCursor())
	}
	col, v, ok := m.SelectedCell()
	if !ok || col != "notes" || !v.IsNull() {
		t.Errorf("SelectedCell() = %q, %v, %v", col, v, ok)
	}
	row, _ := m.SelectedRow()
	if !row[0].Equal(value.Int(3)) {
		t.Errorf("selected row id = %v", row[0])
	}
}

func TestCursorSurvivesNewPageOfSameShape(t *testing.T) {
	m := newGrid(t, 5)
	m.SetCursor(3)
	m.SetPage(samplePage(2))
	if m.Cursor() != 1 {
		t.Errorf("Cursor() = %d, want clamped to 1", m.Cursor())
	}
}

func TestUnfocusedIgnoresKeys(t *testing.T) {
	m := newGrid(t, 3)
	m.Blur()
	m, _ = m.Update(keyMsg("j"))
	if m.Cursor() != 0 {
		t.Errorf("Cursor() = %d after key while blurred", m.Cursor())
	}
}

func TestMessageAndError(t *testing.T) {
	m := newGrid(t, 1)
	m.SetMessage("2 row(s) affected")
	if m.RowCount() != 0 || !strings.Contains(m.View(), "2 row(s) affected") {
		t.Error("message should replace the grid")
	}

	m.SetError(errors.New("no such table: nope"))
	if m.Err() == nil || !strings.Contains(m.View(), "no such table: nope") {
		t.Error("error should replace the grid")
	}

	m.SetResultSet(&adapter.ResultSet{Columns: []string{"n"}, Rows: [][]value.Value{{value.Int(1)}}})
	if m.Err() != nil || m.Message() != "" || m.RowCount() != 1 {
		t.Error("new rows should clear message and error")
	}
}

func TestFooterAndGrid(t *testing.T) {
	m := newGrid(t, 2)
	m.SetFooter("rows 1-2 of 2 · page 1 of 1")
	if !strings.Contains(m.View(), "rows 1-2 of 2") {
		t.Error("footer missing")
	}
	g := m.Grid()
	if len(g.Columns) != 3 || len(g.Rows) != 2 {
		t.Errorf("Grid() = %d cols, %d rows", len(g.Columns), len(g.Rows))
	}
}

func TestLongValuesAreTruncated(t *testing.T) {
	m := New("")
	m.SetSize(200, 10)
	m.SetCellWidth(10)
	long := strings.Repeat("x", 40)
	m.SetResultSet(&adapter.ResultSet{Columns: []string{"v"}, Rows: [][]value.Value{{value.String(long)}}})
	if strings.Contains(m.View(), long) {
		t.Error("value should be truncated")
	}
	if !strings.Contains(m.View(), strings.Repeat("x", 10)+cell.Ellipsis) {
		t.Error("truncated value should end in an ellipsis")
	}
}

func TestColumnWidths(t *testing.T) {
	cols := []Column{{Name: "id"}, {Name: "description"}}
	text := [][]string{{"1", "short"}, {"22", strings.Repeat("y", 30)}}
	got := columnWidths(cols, text)
	if got[0] != minColWidth {
		t.Errorf("width[0] = %d, want %d", got[0], minColWidth)
	}
	if got[1] != 30 {
		t.Errorf("width[1] = %d, want 30", got[1])
	}
}

func TestHorizontalScroll(t *testing.T) {
	cols := make([]Column, 10)
	row := make([]value.Value, 10)
	for i := range cols {
		cols[i] = Column{Name: strings.Repeat(string(rune('a'+i)), 12)}
		row[i] = value.Int(int64(i))
	}
	m := New("")
	m.SetSize(40, 10)
	m.Focus()
	m.SetRows(cols, [][]value.Value{row})

	for range 9 {
		m, _ = m.Update(keyMsg("l"))
	}
	if m.colOffset == 0 {
		t.Error("grid should scroll right to keep the column cursor visible")
	}
	if !strings.Contains(m.View(), cols[9].Name) {
		t.Error("last column not drawn after scrolling")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{500 * time.Microsecond, "500 µs"},
		{42 * time.Millisecond, "42 ms"},
		{1500 * time.Millisecond, "1.50 s"},
		{90 * time.Second, "1.5 min"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
