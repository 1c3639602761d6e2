package explorer

import (
	"context"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

// fakeStore is an in-memory adapter.Store that records every call.
type fakeStore struct {
	mu     sync.Mutex
	tables []schema.Table
	rows   map[string][]value.Row
	calls  []string

	failWrite error
	execOut   *adapter.QueryOutcome
	execErr   error

	lastKey    []value.Pair
	lastValues []value.Pair
}

func agentsTable() schema.Table {
	def := "'idle'"
	return schema.Table{
		Name: "agents",
		Columns: []schema.Column{
			{Ordinal: 0, Name: "id", Type: "INTEGER", IsPK: true, AutoIncrement: true},
			{Ordinal: 1, Name: "name", Type: "TEXT"},
			{Ordinal: 2, Name: "status", Type: "TEXT", Default: &def},
			{Ordinal: 3, Name: "notes", Type: "TEXT", Nullable: true},
		},
	}
}

func logsTable() schema.Table {
	return schema.Table{
		Name: "logs",
		Columns: []schema.Column{
			{Ordinal: 0, Name: "line", Type: "TEXT", Nullable: true},
		},
	}
}

func agentRow(id int64, name string) value.Row {
	return value.NewRow(
		[]string{"id", "name", "status", "notes"},
		[]value.Value{value.Int(id), value.String(name), value.String("idle"), value.Null()},
	)
}

// newFakeStore returns agents with n rows plus an empty keyless logs table.
func newFakeStore(n int) *fakeStore {
	f := &fakeStore{
		tables: []schema.Table{agentsTable(), logsTable()},
		rows:   map[string][]value.Row{},
	}
	for i := 1; i <= n; i++ {
		f.rows["agents"] = append(f.rows["agents"], agentRow(int64(i), "agent-"+string(rune('a'+i-1))))
	}
	return f
}

func (f *fakeStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeStore) count(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == call {
			n++
		}
	}
	return n
}

func (f *fakeStore) table(name string) (schema.Table, error) {
	t, ok := schema.Find(f.tables, name)
	if !ok {
		return schema.Table{}, adapter.ErrUnknownTable
	}
	return t, nil
}

func (f *fakeStore) ListTables(ctx context.Context) ([]schema.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListTables")
	out := make([]schema.Table, len(f.tables))
	for i, t := range f.tables {
		t.RowCount = int64(len(f.rows[t.Name]))
		out[i] = t
	}
	return out, nil
}

func (f *fakeStore) ReadTable(ctx context.Context, req adapter.ReadRequest) (*adapter.PagedResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReadTable")
	t, err := f.table(req.Table)
	if err != nil {
		return nil, err
	}
	var matched []value.Row
	for _, r := range f.rows[req.Table] {
		if req.Search == "" || rowContains(r, req.Search) {
			matched = append(matched, r)
		}
	}
	total := int64(len(matched))
	start := min(req.Offset(), len(matched))
	end := min(start+req.PageSize, len(matched))
	return &adapter.PagedResult{
		Table:      req.Table,
		Columns:    t.Columns,
		Rows:       matched[start:end],
		TotalRows:  total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: adapter.TotalPages(total, req.PageSize),
	}, nil
}

func rowContains(r value.Row, term string) bool {
	for _, v := range r.Values() {
		if strings.Contains(strings.ToLower(v.String()), strings.ToLower(term)) {
			return true
		}
	}
	return false
}

func matches(r value.Row, key []value.Pair) bool {
	for _, p := range key {
		v, ok := r.Get(p.Column)
		if !ok || !v.Equal(p.Value) {
			return false
		}
	}
	return true
}

func (f *fakeStore) find(table string, key []value.Pair) int {
	for i, r := range f.rows[table] {
		if matches(r, key) {
			return i
		}
	}
	return -1
}

func (f *fakeStore) UpdateRow(ctx context.Context, table string, pk, changes []value.Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRow")
	f.lastKey, f.lastValues = pk, changes
	if f.failWrite != nil {
		return f.failWrite
	}
	i := f.find(table, pk)
	if i < 0 {
		return adapter.ErrRowNotFound
	}
	old := f.rows[table][i]
	vals := append([]value.Value(nil), old.Values()...)
	for _, c := range changes {
		for j, name := range old.Columns() {
			if name == c.Column {
				vals[j] = c.Value
			}
		}
	}
	f.rows[table][i] = value.NewRow(old.Columns(), vals)
	return nil
}

func (f *fakeStore) InsertRow(ctx context.Context, table string, values []value.Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertRow")
	f.lastKey, f.lastValues = nil, values
	if f.failWrite != nil {
		return f.failWrite
	}
	t, err := f.table(table)
	if err != nil {
		return err
	}
	vals := make([]value.Value, len(t.Columns))
	for i, c := range t.Columns {
		for _, p := range values {
			if p.Column == c.Name {
				vals[i] = p.Value
			}
		}
		if c.AutoIncrement && vals[i].IsNull() {
			vals[i] = value.Int(int64(len(f.rows[table]) + 1))
		}
	}
	f.rows[table] = append(f.rows[table], value.NewRow(t.ColumnNames(), vals))
	return nil
}

func (f *fakeStore) DeleteRow(ctx context.Context, table string, pk []value.Pair) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRow")
	f.lastKey, f.lastValues = pk, nil
	if f.failWrite != nil {
		return f.failWrite
	}
	i := f.find(table, pk)
	if i < 0 {
		return adapter.ErrRowNotFound
	}
	rows := f.rows[table]
	f.rows[table] = append(rows[:i:i], rows[i+1:]...)
	return nil
}

func (f *fakeStore) ExecuteStatement(ctx context.Context, sql string) (*adapter.QueryOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ExecuteStatement")
	return f.execOut, f.execErr
}

func (f *fakeStore) ResetDatabase(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ResetDatabase")
	if f.failWrite != nil {
		return f.failWrite
	}
	f.rows = map[string][]value.Row{}
	f.tables = []schema.Table{agentsTable()}
	return nil
}

func (f *fakeStore) Ping(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                   { return nil }
func (f *fakeStore) DatabaseName() string           { return "fake" }
func (f *fakeStore) DriverName() string             { return "fake" }

// drive runs cmd, feeds every message it produces back into x and keeps
// going until no command is left. It returns the messages seen, in order.
func drive(t *testing.T, x *Explorer, cmd tea.Cmd) []tea.Msg {
	t.Helper()
	var seen []tea.Msg
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 1000 {
			t.Fatal("commands did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		m := c()
		if batch, ok := m.(tea.BatchMsg); ok {
			queue = append(queue, batch...)
			continue
		}
		seen = append(seen, m)
		queue = append(queue, x.Update(m))
	}
	return seen
}

// newTestExplorer returns an explorer over store that has finished its
// initial load.
func newTestExplorer(t *testing.T, store *fakeStore, pageSize int) *Explorer {
	t.Helper()
	x := New(store, Options{PageSize: pageSize})
	drive(t, x, x.Init())
	return x
}
