// Package explorer is the schema-agnostic table explorer: it keeps the table
// list, the visible page, the row dialog and the console in step with the
// store. Every storage call runs inside a tea.Cmd; results come back through
// Update as messages from the msg package.
package explorer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

const (
	DefaultPageSize = 25
	DefaultTimeout  = 30 * time.Second

	// ResetMessage is the notification shown after a successful reset.
	ResetMessage = "Database reset: restored the default empty agents, agent_runs and app_settings tables."
)

// Journal is told about every console run and row mutation. It is called
// from the goroutine running the storage call.
type Journal interface {
	RecordQuery(r QueryRecord)
	RecordMutation(r MutationRecord)
}

// QueryRecord describes one console run.
type QueryRecord struct {
	Statement string
	Outcome   *adapter.QueryOutcome
	Err       error
	Duration  time.Duration
}

// MutationRecord describes one row mutation or reset.
type MutationRecord struct {
	Op       string
	Table    string
	Key      []value.Pair
	Values   []value.Pair
	Err      error
	Duration time.Duration
}

// Options configures an Explorer.
type Options struct {
	PageSize int
	// Timeout bounds every storage call.
	Timeout time.Duration
	Logger  *slog.Logger
	Journal Journal
}

// Explorer owns the selected table, the current page and the search term.
// Nothing else writes them.
type Explorer struct {
	store adapter.Store
	opts  Options
	log   *slog.Logger

	schema  SchemaCache
	pager   Pager
	editor  RowEditor
	console Console

	resetting bool
	resetErr  error
	// keepCleared skips the automatic selection on the table load that
	// follows a reset, so the view stays empty until a table is picked.
	keepCleared bool
}

// New returns an explorer over store. Call Init to start loading.
func New(store adapter.Store, opts Options) *Explorer {
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Explorer{
		store: store,
		opts:  opts,
		log:   opts.Logger.With("component", "explorer"),
		pager: NewPager(opts.PageSize),
	}
}

func (e *Explorer) Store() adapter.Store { return e.store }
func (e *Explorer) Schema() *SchemaCache { return &e.schema }
func (e *Explorer) Pager() *Pager        { return &e.pager }
func (e *Explorer) Editor() *RowEditor   { return &e.editor }
func (e *Explorer) Console() *Console    { return &e.console }
func (e *Explorer) Resetting() bool      { return e.resetting }
func (e *Explorer) ResetErr() error      { return e.resetErr }

// Init loads the table list.
func (e *Explorer) Init() tea.Cmd {
	return e.loadTables()
}

// run wraps a storage call in a command bounded by the configured timeout.
func (e *Explorer) run(fn func(ctx context.Context) tea.Msg) tea.Cmd {
	timeout := e.opts.Timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return fn(ctx)
	}
}

func notify(kind msg.NotifyKind, text string) tea.Cmd {
	return func() tea.Msg { return msg.NotifyMsg{Text: text, Kind: kind} }
}

func notifyErr(err error) tea.Cmd {
	return notify(msg.NotifyError, err.Error())
}

func (e *Explorer) loadTables() tea.Cmd {
	seq := e.schema.begin()
	store := e.store
	e.log.Debug("loading tables", "seq", seq)
	return e.run(func(ctx context.Context) tea.Msg {
		tables, err := store.ListTables(ctx)
		if err != nil {
			return msg.TablesErrMsg{Err: &LoadError{Op: "list tables", Err: err}, Seq: seq}
		}
		return msg.TablesLoadedMsg{Tables: tables, Seq: seq}
	})
}

func (e *Explorer) loadPage(page int) tea.Cmd {
	if e.pager.Table() == "" {
		return nil
	}
	req, seq := e.pager.request(page)
	store := e.store
	e.log.Debug("loading page", "table", req.Table, "page", req.Page, "search", req.Search, "seq", seq)
	return e.run(func(ctx context.Context) tea.Msg {
		result, err := store.ReadTable(ctx, req)
		if err != nil {
			return msg.PageErrMsg{Err: &LoadError{Op: "read", Table: req.Table, Err: err}, Seq: seq}
		}
		return msg.PageLoadedMsg{Result: result, Seq: seq}
	})
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

// Select switches to table, back on page 1 with an empty search.
func (e *Explorer) Select(table string) tea.Cmd {
	if e.editor.Open() || !e.schema.Select(table) {
		return nil
	}
	e.pager.Reset(table)
	return e.loadPage(1)
}

// Search filters the selected table by term and returns to page 1.
func (e *Explorer) Search(term string) tea.Cmd {
	if !e.pager.SetSearch(term) {
		return nil
	}
	return e.loadPage(1)
}

// GotoPage loads page p, clamped to the known page range.
func (e *Explorer) GotoPage(p int) tea.Cmd {
	p = e.pager.Clamp(p)
	if p == e.pager.Page() && e.pager.Result() != nil {
		return nil
	}
	return e.loadPage(p)
}

func (e *Explorer) NextPage() tea.Cmd { return e.GotoPage(e.pager.Page() + 1) }
func (e *Explorer) PrevPage() tea.Cmd { return e.GotoPage(e.pager.Page() - 1) }

// Refresh reloads the table list and the current page.
func (e *Explorer) Refresh() tea.Cmd {
	return tea.Batch(e.loadTables(), e.loadPage(e.pager.Page()))
}

// ---------------------------------------------------------------------------
// Row dialog
// ---------------------------------------------------------------------------

// pageTable describes the table as shown by the current page, falling back
// to the cached descriptor while the page loads.
func (e *Explorer) pageTable() (schema.Table, bool) {
	if r := e.pager.Result(); r != nil {
		return schema.Table{Name: r.Table, Columns: r.Columns}, true
	}
	return e.schema.SelectedTable()
}

func (e *Explorer) rowAt(i int) (value.Row, bool) {
	r := e.pager.Result()
	if r == nil || i < 0 || i >= len(r.Rows) {
		return value.Row{}, false
	}
	return r.Rows[i], true
}

// OpenEdit opens the edit dialog for row i of the current page.
func (e *Explorer) OpenEdit(i int) tea.Cmd {
	t, ok := e.pageTable()
	row, found := e.rowAt(i)
	if !ok || !found {
		return nil
	}
	if err := e.editor.OpenEdit(t, row); err != nil {
		return notifyErr(err)
	}
	return nil
}

// OpenInsert opens a blank insert dialog for the selected table.
func (e *Explorer) OpenInsert() tea.Cmd {
	t, ok := e.pageTable()
	if !ok {
		return nil
	}
	e.editor.OpenInsert(t)
	return nil
}

// OpenDelete asks to confirm deleting row i of the current page.
func (e *Explorer) OpenDelete(i int) tea.Cmd {
	t, ok := e.pageTable()
	row, found := e.rowAt(i)
	if !ok || !found {
		return nil
	}
	if err := e.editor.OpenDelete(t, row); err != nil {
		return notifyErr(err)
	}
	return nil
}

func (e *Explorer) SetField(i int, text string) { e.editor.SetField(i, text) }
func (e *Explorer) ToggleNull(i int)            { e.editor.ToggleNull(i) }
func (e *Explorer) Cancel()                     { e.editor.Cancel() }

// Submit commits the open dialog. Draft errors are shown inline without a
// storage call; an edit with no changes just closes the dialog.
func (e *Explorer) Submit() tea.Cmd {
	ed := &e.editor
	if !ed.Open() || ed.Busy() {
		return nil
	}
	table := ed.Table().Name
	switch ed.State() {
	case Editing:
		changes, err := ed.Changes()
		if err != nil {
			ed.invalid(err)
			return nil
		}
		if len(changes) == 0 {
			ed.Cancel()
			return nil
		}
		return e.mutate(msg.OpUpdate, table, ed.Identity(), changes)
	case Inserting:
		values, err := ed.InsertValues()
		if err != nil {
			ed.invalid(err)
			return nil
		}
		return e.mutate(msg.OpInsert, table, nil, values)
	case ConfirmingDelete:
		return e.mutate(msg.OpDelete, table, ed.Identity(), nil)
	}
	return nil
}

func (e *Explorer) mutate(op msg.MutationOp, table string, key, values []value.Pair) tea.Cmd {
	if !e.editor.begin() {
		return nil
	}
	store, journal := e.store, e.opts.Journal
	e.log.Debug("submitting row", "op", op, "table", table)
	return e.run(func(ctx context.Context) tea.Msg {
		start := time.Now()
		var err error
		switch op {
		case msg.OpInsert:
			err = store.InsertRow(ctx, table, values)
		case msg.OpUpdate:
			err = store.UpdateRow(ctx, table, key, values)
		case msg.OpDelete:
			err = store.DeleteRow(ctx, table, key)
		}
		if journal != nil {
			journal.RecordMutation(MutationRecord{
				Op: op.String(), Table: table, Key: key, Values: values,
				Err: err, Duration: time.Since(start),
			})
		}
		if err != nil {
			return msg.MutationErrMsg{Op: op, Table: table, Err: &MutationError{Op: op.String(), Table: table, Err: err}}
		}
		return msg.MutationDoneMsg{Op: op, Table: table}
	})
}

func mutationText(op msg.MutationOp, table string) string {
	switch op {
	case msg.OpInsert:
		return "Row inserted into " + table
	case msg.OpDelete:
		return "Row deleted from " + table
	default:
		return "Row updated in " + table
	}
}

// ---------------------------------------------------------------------------
// Console and reset
// ---------------------------------------------------------------------------

// Execute runs stmt in the console.
func (e *Explorer) Execute(stmt string) tea.Cmd {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		e.console.reject(stmt, adapter.ErrEmptyStatement)
		return nil
	}
	id := e.console.begin(stmt)
	store, journal := e.store, e.opts.Journal
	return e.run(func(ctx context.Context) tea.Msg {
		start := time.Now()
		out, err := store.ExecuteStatement(ctx, stmt)
		elapsed := time.Since(start)
		if journal != nil {
			journal.RecordQuery(QueryRecord{Statement: stmt, Outcome: out, Err: err, Duration: elapsed})
		}
		if err != nil {
			return msg.QueryErrMsg{Err: &QueryError{Statement: stmt, Err: err}, RunID: id, Duration: elapsed}
		}
		return msg.QueryResultMsg{Outcome: out, RunID: id, Duration: elapsed}
	})
}

// Reset drops every table and restores the default schema. The caller is
// expected to have asked for confirmation.
func (e *Explorer) Reset() tea.Cmd {
	if e.resetting {
		return nil
	}
	e.resetting = true
	e.resetErr = nil
	store, journal := e.store, e.opts.Journal
	return e.run(func(ctx context.Context) tea.Msg {
		start := time.Now()
		err := store.ResetDatabase(ctx)
		if journal != nil {
			journal.RecordMutation(MutationRecord{Op: "reset", Err: err, Duration: time.Since(start)})
		}
		if err != nil {
			return msg.ResetErrMsg{Err: &MutationError{Op: "reset", Err: err}}
		}
		return msg.ResetDoneMsg{}
	})
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

// Update applies the result of an async storage call. Messages it does not
// own are ignored.
func (e *Explorer) Update(m tea.Msg) tea.Cmd {
	switch m := m.(type) {
	case msg.TablesLoadedMsg:
		if !e.schema.apply(m) {
			return nil
		}
		if e.keepCleared {
			e.keepCleared = false
			return nil
		}
		e.schema.EnsureSelected()
		if e.pager.Table() != e.schema.Selected() {
			e.pager.Reset(e.schema.Selected())
			return e.loadPage(1)
		}
		return nil

	case msg.TablesErrMsg:
		if !e.schema.fail(m) {
			return nil
		}
		e.log.Warn("table list load failed", "err", m.Err)
		return notifyErr(m.Err)

	case msg.PageLoadedMsg:
		retry, ok := e.pager.apply(m)
		if !ok {
			return nil
		}
		if retry > 0 {
			return e.loadPage(retry)
		}
		return nil

	case msg.PageErrMsg:
		if !e.pager.fail(m) {
			return nil
		}
		e.log.Warn("page read failed", "err", m.Err)
		return notifyErr(m.Err)

	case msg.MutationDoneMsg:
		if !e.editor.Busy() {
			return nil
		}
		page := e.pager.Page()
		if m.Op == msg.OpDelete {
			// The sole row of a later page is gone; step back.
			if r := e.pager.Result(); r != nil && len(r.Rows) == 1 && page > 1 {
				page--
			}
		}
		e.editor.succeed()
		cmds := []tea.Cmd{notify(msg.NotifySuccess, mutationText(m.Op, m.Table)), e.loadPage(page)}
		if m.Op != msg.OpUpdate {
			cmds = append(cmds, e.loadTables())
		}
		return tea.Batch(cmds...)

	case msg.MutationErrMsg:
		if !e.editor.Busy() {
			return nil
		}
		e.editor.fail(m.Err)
		e.log.Warn("row mutation failed", "op", m.Op, "table", m.Table, "err", m.Err)
		return notifyErr(m.Err)

	case msg.QueryResultMsg:
		if !e.console.apply(m) {
			return nil
		}
		if !m.Outcome.IsMutation() {
			return nil
		}
		// A console mutation may have changed any table.
		return tea.Batch(e.loadTables(), e.loadPage(e.pager.Page()))

	case msg.QueryErrMsg:
		e.console.fail(m)
		return nil

	case msg.ResetDoneMsg:
		e.resetting = false
		e.schema.Clear()
		e.pager.Reset("")
		e.editor.reset()
		e.console.Clear()
		e.keepCleared = true
		e.log.Info("database reset")
		return tea.Batch(notify(msg.NotifySuccess, ResetMessage), e.loadTables())

	case msg.ResetErrMsg:
		e.resetting = false
		e.resetErr = m.Err
		return notifyErr(m.Err)
	}
	return nil
}

// Summary describes the selected table for status lines.
func (e *Explorer) Summary() string {
	t, ok := e.schema.SelectedTable()
	if !ok {
		return ""
	}
	return fmt.Sprintf("%s (%d rows)", t.Name, t.RowCount)
}
