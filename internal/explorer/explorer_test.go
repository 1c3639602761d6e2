package explorer

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/value"
)

func notifications(msgs []tea.Msg) []msg.NotifyMsg {
	var out []msg.NotifyMsg
	for _, m := range msgs {
		if n, ok := m.(msg.NotifyMsg); ok {
			out = append(out, n)
		}
	}
	return out
}

func fieldIndex(t *testing.T, x *Explorer, column string) int {
	t.Helper()
	for i, f := range x.Editor().Fields() {
		if f.Column.Name == column {
			return i
		}
	}
	t.Fatalf("no field %q", column)
	return -1
}

func TestInitSelectsFirstTable(t *testing.T) {
	store := newFakeStore(3)
	x := newTestExplorer(t, store, 2)

	if got := x.Schema().Selected(); got != "agents" {
		t.Fatalf("selected = %q, want agents", got)
	}
	if len(x.Schema().Tables()) != 2 {
		t.Fatalf("tables = %d, want 2", len(x.Schema().Tables()))
	}
	r := x.Pager().Result()
	if r == nil || len(r.Rows) != 2 {
		t.Fatalf("page 1 should hold 2 rows, got %+v", r)
	}
	if got, want := x.Pager().Footer(), "rows 1-2 of 3 · page 1 of 2"; got != want {
		t.Errorf("footer = %q, want %q", got, want)
	}
	if x.Summary() != "agents (3 rows)" {
		t.Errorf("summary = %q", x.Summary())
	}
}

func TestStalePageReadIsDropped(t *testing.T) {
	store := newFakeStore(3)
	x := newTestExplorer(t, store, 2)

	slow := x.GotoPage(2)
	fast := x.GotoPage(1)
	if slow == nil || fast == nil {
		t.Fatal("expected two reads")
	}

	// The newer read lands first; the older one must not overwrite it.
	x.Update(fast())
	x.Update(slow())

	if got := x.Pager().Page(); got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
	if got := x.Pager().Result().Page; got != 1 {
		t.Fatalf("result page = %d, want 1", got)
	}
}

func TestStaleTableLoadIsDropped(t *testing.T) {
	store := newFakeStore(1)
	x := New(store, Options{PageSize: 2})

	first := x.Init()
	second := x.Refresh()
	drive(t, x, second)

	// The older load observes a shrunken schema and lands last.
	store.tables = store.tables[:1]
	if cmd := x.Update(first()); cmd != nil {
		t.Fatal("stale table list should produce no command")
	}
	if len(x.Schema().Tables()) != 2 {
		t.Fatalf("stale response replaced the table list")
	}
}

func TestSelectResetsPageAndSearch(t *testing.T) {
	store := newFakeStore(3)
	x := newTestExplorer(t, store, 2)
	drive(t, x, x.Search("agent"))
	drive(t, x, x.GotoPage(2))

	drive(t, x, x.Select("logs"))

	p := x.Pager()
	if p.Table() != "logs" || p.Page() != 1 || p.Search() != "" {
		t.Fatalf("pager = table %q page %d search %q", p.Table(), p.Page(), p.Search())
	}
	if p.Footer() != "no rows · page 1 of 1" {
		t.Errorf("footer = %q", p.Footer())
	}
}

func TestSearchReturnsToFirstPage(t *testing.T) {
	store := newFakeStore(3)
	x := newTestExplorer(t, store, 2)
	drive(t, x, x.GotoPage(2))

	drive(t, x, x.Search("agent-c"))

	if got := x.Pager().Page(); got != 1 {
		t.Fatalf("page = %d, want 1", got)
	}
	r := x.Pager().Result()
	if r.TotalRows != 1 || len(r.Rows) != 1 {
		t.Fatalf("search matched %d rows, want 1", r.TotalRows)
	}
}

func TestGotoPageClamps(t *testing.T) {
	tests := []struct {
		name string
		page int
		want int
	}{
		{"below range", -3, 1},
		{"in range", 2, 2},
		{"past end", 9, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExplorer(t, newFakeStore(3), 2)
			drive(t, x, x.GotoPage(tt.page))
			if got := x.Pager().Page(); got != tt.want {
				t.Errorf("page = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestEditUsesIdentityCapturedAtOpen(t *testing.T) {
	store := newFakeStore(2)
	x := newTestExplorer(t, store, 25)

	drive(t, x, x.OpenEdit(1))
	if x.Editor().State() != Editing {
		t.Fatalf("state = %v, want editing", x.Editor().State())
	}
	x.SetField(fieldIndex(t, x, "name"), "renamed")
	// The key field is read-only; attempts to change it are ignored.
	x.SetField(fieldIndex(t, x, "id"), "99")

	seen := drive(t, x, x.Submit())

	if len(store.lastKey) != 1 || !store.lastKey[0].Value.Equal(value.Int(2)) {
		t.Fatalf("update key = %+v, want id=2", store.lastKey)
	}
	if len(store.lastValues) != 1 || store.lastValues[0].Column != "name" {
		t.Fatalf("changes = %+v, want only name", store.lastValues)
	}
	if x.Editor().Open() {
		t.Error("dialog should close after a successful update")
	}
	n := notifications(seen)
	if len(n) != 1 || n[0].Kind != msg.NotifySuccess || n[0].Text != "Row updated in agents" {
		t.Errorf("notifications = %+v", n)
	}
	row := x.Pager().Result().Rows[1]
	if v, _ := row.Get("name"); v.String() != "renamed" {
		t.Errorf("page not reloaded, name = %v", v)
	}
}

func TestEditWithoutChangesSkipsStore(t *testing.T) {
	store := newFakeStore(1)
	x := newTestExplorer(t, store, 25)

	drive(t, x, x.OpenEdit(0))
	x.SetField(fieldIndex(t, x, "name"), "agent-a")
	if cmd := x.Submit(); cmd != nil {
		t.Fatal("unchanged draft should not produce a command")
	}
	if store.count("UpdateRow") != 0 {
		t.Fatal("store was called for an unchanged draft")
	}
	if x.Editor().Open() {
		t.Error("dialog should close")
	}
}

func TestKeylessTableRefusesEditAndDelete(t *testing.T) {
	store := newFakeStore(0)
	store.rows["logs"] = []value.Row{value.NewRow([]string{"line"}, []value.Value{value.String("boot")})}
	x := newTestExplorer(t, store, 25)
	drive(t, x, x.Select("logs"))

	for name, open := range map[string]func(int) tea.Cmd{"edit": x.OpenEdit, "delete": x.OpenDelete} {
		t.Run(name, func(t *testing.T) {
			n := notifications(drive(t, x, open(0)))
			if len(n) != 1 || n[0].Kind != msg.NotifyError {
				t.Fatalf("notifications = %+v", n)
			}
			if !strings.Contains(n[0].Text, adapter.ErrNoPrimaryKey.Error()) {
				t.Errorf("text = %q", n[0].Text)
			}
			if x.Editor().Open() {
				t.Error("dialog should stay closed")
			}
		})
	}
}

func TestFailedMutationKeepsDraft(t *testing.T) {
	store := newFakeStore(1)
	store.failWrite = errors.New("disk full")
	x := newTestExplorer(t, store, 25)

	drive(t, x, x.OpenEdit(0))
	i := fieldIndex(t, x, "notes")
	x.SetField(i, "keep me")
	seen := drive(t, x, x.Submit())

	ed := x.Editor()
	if ed.State() != Editing || ed.Busy() {
		t.Fatalf("state = %v busy = %v", ed.State(), ed.Busy())
	}
	if ed.Fields()[i].Text != "keep me" {
		t.Errorf("draft lost: %q", ed.Fields()[i].Text)
	}
	var me *MutationError
	if !errors.As(ed.Err(), &me) || me.Op != "update" {
		t.Errorf("err = %v, want update MutationError", ed.Err())
	}
	if n := notifications(seen); len(n) != 1 || n[0].Kind != msg.NotifyError {
		t.Errorf("notifications = %+v", n)
	}
}

func TestSubmitWhileBusyIsIgnored(t *testing.T) {
	store := newFakeStore(1)
	x := newTestExplorer(t, store, 25)

	drive(t, x, x.OpenEdit(0))
	x.SetField(fieldIndex(t, x, "name"), "x")
	first := x.Submit()
	if first == nil {
		t.Fatal("expected a command")
	}
	if x.Submit() != nil {
		t.Fatal("second submit should be ignored while busy")
	}
	x.Cancel()
	if !x.Editor().Open() {
		t.Fatal("cancel should be ignored while busy")
	}
	drive(t, x, first)
	if store.count("UpdateRow") != 1 {
		t.Errorf("UpdateRow calls = %d, want 1", store.count("UpdateRow"))
	}
}

func TestInsertRequiresMandatoryColumns(t *testing.T) {
	store := newFakeStore(0)
	x := newTestExplorer(t, store, 25)

	drive(t, x, x.OpenInsert())
	if x.Submit() != nil {
		t.Fatal("missing name should not reach the store")
	}
	if err := x.Editor().Err(); err == nil || !strings.Contains(err.Error(), "name is required") {
		t.Fatalf("err = %v", err)
	}

	x.SetField(fieldIndex(t, x, "name"), "fresh")
	seen := drive(t, x, x.Submit())

	if len(store.lastValues) != 1 || store.lastValues[0].Column != "name" {
		t.Fatalf("insert values = %+v, want only name", store.lastValues)
	}
	if x.Pager().Result().TotalRows != 1 {
		t.Errorf("page not reloaded")
	}
	if tbl, _ := x.Schema().Table("agents"); tbl.RowCount != 1 {
		t.Errorf("table list not reloaded, row count %d", tbl.RowCount)
	}
	if n := notifications(seen); len(n) != 1 || n[0].Text != "Row inserted into agents" {
		t.Errorf("notifications = %+v", n)
	}
}

func TestDeletingLastRowOfPageStepsBack(t *testing.T) {
	store := newFakeStore(3)
	x := newTestExplorer(t, store, 2)
	drive(t, x, x.GotoPage(2))

	drive(t, x, x.OpenDelete(0))
	if x.Editor().State() != ConfirmingDelete {
		t.Fatalf("state = %v", x.Editor().State())
	}
	drive(t, x, x.Submit())

	p := x.Pager()
	if p.Page() != 1 {
		t.Fatalf("page = %d, want 1", p.Page())
	}
	if p.Result().TotalRows != 2 || p.Result().TotalPages != 1 {
		t.Errorf("result = %+v", p.Result())
	}
}

func TestConsoleDeleteFromLaterPageStepsBack(t *testing.T) {
	store := newFakeStore(3)
	x := newTestExplorer(t, store, 2)
	drive(t, x, x.GotoPage(2))

	store.mu.Lock()
	store.rows["agents"] = nil
	store.mu.Unlock()
	store.execOut = &adapter.QueryOutcome{Mutation: &adapter.MutationSummary{RowsAffected: 3}}
	drive(t, x, x.Execute("DELETE FROM agents"))

	p := x.Pager()
	if p.Page() != 1 {
		t.Fatalf("page = %d, want 1", p.Page())
	}
	if r := p.Result(); r == nil || r.Page != 1 || r.TotalRows != 0 {
		t.Errorf("result = %+v", r)
	}
	if got, want := p.Footer(), "no rows · page 1 of 1"; got != want {
		t.Errorf("footer = %q, want %q", got, want)
	}
}

func TestExecuteReloadsOnlyAfterMutation(t *testing.T) {
	tests := []struct {
		name       string
		outcome    *adapter.QueryOutcome
		wantReload bool
	}{
		{
			name: "select",
			outcome: &adapter.QueryOutcome{ResultSet: &adapter.ResultSet{
				Columns: []string{"1"},
				Rows:    [][]value.Value{{value.Int(1)}},
			}},
		},
		{
			name:       "delete",
			outcome:    &adapter.QueryOutcome{Mutation: &adapter.MutationSummary{RowsAffected: 2}},
			wantReload: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeStore(2)
			store.execOut = tt.outcome
			x := newTestExplorer(t, store, 25)
			lists, reads := store.count("ListTables"), store.count("ReadTable")

			drive(t, x, x.Execute("  some statement  "))

			if x.Console().Statement() != "some statement" {
				t.Errorf("statement = %q", x.Console().Statement())
			}
			if x.Console().Outcome() != tt.outcome {
				t.Errorf("outcome not recorded")
			}
			if got := store.count("ListTables") > lists; got != tt.wantReload {
				t.Errorf("table list reloaded = %v, want %v", got, tt.wantReload)
			}
			if got := store.count("ReadTable") > reads; got != tt.wantReload {
				t.Errorf("page reloaded = %v, want %v", got, tt.wantReload)
			}
		})
	}
}

func TestExecuteEmptyStatement(t *testing.T) {
	store := newFakeStore(0)
	x := newTestExplorer(t, store, 25)

	if x.Execute("   \n ") != nil {
		t.Fatal("empty statement should not produce a command")
	}
	if store.count("ExecuteStatement") != 0 {
		t.Fatal("store was called")
	}
	if err := x.Console().Err(); err == nil || !errors.Is(err, adapter.ErrEmptyStatement) {
		t.Fatalf("err = %v", err)
	}
}

func TestExecuteErrorAndStaleRun(t *testing.T) {
	store := newFakeStore(0)
	store.execErr = errors.New(`near "SELEC": syntax error`)
	x := newTestExplorer(t, store, 25)

	old := x.Execute("SELEC 1")
	drive(t, x, x.Execute("SELEC 2"))
	if got := x.Console().Err().Message(); got != `near "SELEC": syntax error` {
		t.Fatalf("message = %q", got)
	}

	store.execErr = nil
	store.execOut = &adapter.QueryOutcome{ResultSet: &adapter.ResultSet{}}
	drive(t, x, old)
	if x.Console().Err() == nil || x.Console().Statement() != "SELEC 2" {
		t.Error("a superseded run replaced the newer result")
	}
}

type recordingJournal struct {
	queries   []QueryRecord
	mutations []MutationRecord
}

func (j *recordingJournal) RecordQuery(r QueryRecord)       { j.queries = append(j.queries, r) }
func (j *recordingJournal) RecordMutation(r MutationRecord) { j.mutations = append(j.mutations, r) }

func TestResetRestoresDefaults(t *testing.T) {
	store := newFakeStore(3)
	j := &recordingJournal{}
	x := New(store, Options{PageSize: 2, Journal: j})
	drive(t, x, x.Init())
	drive(t, x, x.Execute("SELECT 1"))

	cmd := x.Reset()
	if !x.Resetting() || x.Reset() != nil {
		t.Fatal("a second reset should be ignored while one runs")
	}
	seen := drive(t, x, cmd)

	if x.Resetting() {
		t.Error("still resetting")
	}
	n := notifications(seen)
	if len(n) != 1 || n[0].Text != ResetMessage || n[0].Kind != msg.NotifySuccess {
		t.Fatalf("notifications = %+v", n)
	}
	if x.Console().Statement() != "" {
		t.Error("console not cleared")
	}
	if got := x.Schema().Selected(); got != "" {
		t.Errorf("selected = %q, want none", got)
	}
	if x.Pager().Result() != nil || x.Pager().Table() != "" {
		t.Errorf("view not cleared after reset: %+v", x.Pager().Result())
	}
	if store.count("ListTables") != 2 || len(x.Schema().Tables()) != 1 {
		t.Errorf("table list not reloaded after reset")
	}
	if store.count("ReadTable") != 1 {
		t.Errorf("a page was read after reset")
	}

	drive(t, x, x.Select("agents"))
	if x.Pager().Result() == nil || x.Pager().Result().TotalRows != 0 {
		t.Errorf("selecting after reset did not load the empty table")
	}
	if len(j.queries) != 1 || len(j.mutations) != 1 || j.mutations[0].Op != "reset" {
		t.Errorf("journal = %+v / %+v", j.queries, j.mutations)
	}
}

func TestResetFailure(t *testing.T) {
	store := newFakeStore(1)
	store.failWrite = errors.New("locked")
	x := newTestExplorer(t, store, 25)

	n := notifications(drive(t, x, x.Reset()))

	if len(n) != 1 || n[0].Kind != msg.NotifyError {
		t.Fatalf("notifications = %+v", n)
	}
	if x.ResetErr() == nil || x.Resetting() {
		t.Errorf("reset err = %v resetting = %v", x.ResetErr(), x.Resetting())
	}
	if x.Schema().Selected() != "agents" {
		t.Error("state should be untouched by a failed reset")
	}
}
