// Package app is the root bubbletea model. It owns one explorer per
// connection and routes keys and explorer messages to the UI components.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/audit"
	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/completion"
	"github.com/sadopc/tablescope/internal/config"
	"github.com/sadopc/tablescope/internal/explorer"
	"github.com/sadopc/tablescope/internal/export"
	"github.com/sadopc/tablescope/internal/history"
	appmsg "github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/theme"
	"github.com/sadopc/tablescope/internal/ui/autocomplete"
	"github.com/sadopc/tablescope/internal/ui/connmgr"
	"github.com/sadopc/tablescope/internal/ui/dialog"
	"github.com/sadopc/tablescope/internal/ui/editor"
	"github.com/sadopc/tablescope/internal/ui/form"
	"github.com/sadopc/tablescope/internal/ui/historybrowser"
	"github.com/sadopc/tablescope/internal/ui/results"
	"github.com/sadopc/tablescope/internal/ui/sidebar"
	"github.com/sadopc/tablescope/internal/ui/statusbar"
	"github.com/sadopc/tablescope/internal/ui/tabs"
)

// ConnectTimeout bounds opening and pinging a store.
const ConnectTimeout = 15 * time.Second

// Options carries the optional collaborators of the app.
type Options struct {
	History *history.History
	Audit   *audit.Logger
	Logger  *slog.Logger
	// SaveConnections persists edits made in the connection manager.
	SaveConnections func([]config.SavedConnection) error
}

type vimState int

const (
	vimNormal vimState = iota
	vimInsert
)

type confirmKind int

const (
	confirmNone confirmKind = iota
	confirmDelete
	confirmReset
)

type (
	confirmDeleteMsg struct{}
	confirmResetMsg  struct{}
	cancelConfirmMsg struct{}
)

// genMsg tags an explorer message with the connection it belongs to.
type genMsg struct {
	gen uint64
	msg tea.Msg
}

// Model is the root application model.
type Model struct {
	cfg  *config.Config
	opts Options
	log  *slog.Logger

	// Layout
	width        int
	height       int
	sidebarWidth int
	consoleSplit int // percentage of the console tab taken by the editor
	showSidebar  bool
	focus        appmsg.Pane

	// Connection
	x   *explorer.Explorer
	gen uint64
	dsn string

	// Components
	sidebar  sidebar.Model
	tabs     tabs.Model
	rows     results.Model
	output   results.Model
	console  editor.Model
	status   statusbar.Model
	form     form.Model
	confirm  dialog.Model
	viewer   dialog.Viewer
	history  historybrowser.Model
	connMgr  connmgr.Model
	autocomp autocomplete.Model
	help     help.Model
	search   textinput.Model

	engine      *completion.Engine
	confirmFor  confirmKind
	searching   bool
	lastPage    *adapter.PagedResult
	lastOutcome *adapter.QueryOutcome
	lastErr     error

	keys     KeyMap
	keyMode  appmsg.KeyMode
	vim      vimState
	showHelp bool
	quitting bool
}

// New creates the app model. Call Connect or ShowConnManager before running
// it.
func New(cfg *config.Config, opts Options) Model {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if t := theme.Get(cfg.Theme); t != nil {
		theme.Current = t
	}
	keyMode := appmsg.ParseKeyMode(cfg.KeyMode)

	search := textinput.New()
	search.Prompt = "search: "
	search.Placeholder = "substring in any column"

	var src historybrowser.Source
	if opts.History != nil {
		src = opts.History
	}

	engine := completion.NewEngine("")
	m := Model{
		cfg:          cfg,
		opts:         opts,
		log:          opts.Logger.With("component", "app"),
		sidebarWidth: 30,
		consoleSplit: 40,
		showSidebar:  true,
		focus:        appmsg.PaneSidebar,

		sidebar:  sidebar.New(),
		tabs:     tabs.New(),
		rows:     results.New("No rows."),
		output:   results.New("Run a statement to see its result."),
		console:  editor.New(""),
		status:   statusbar.New(),
		form:     form.New(),
		viewer:   dialog.NewViewer(),
		history:  historybrowser.New(src),
		connMgr:  connmgr.New(cfg.Connections),
		autocomp: autocomplete.New(engine),
		help:     help.New(),
		search:   search,

		engine:  engine,
		keys:    KeyMapFor(keyMode),
		keyMode: keyMode,
	}
	m.rows.SetCellWidth(cfg.Results.MaxCellWidth)
	m.output.SetCellWidth(cfg.Results.FullCellWidth)
	m.status.SetKeyMode(keyMode)
	m.sidebar.Focus()
	m.refreshHints()
	return m
}

// Init starts the cursor blink of the console.
func (m Model) Init() tea.Cmd {
	return m.console.Init()
}

// Connect returns a command that opens dsn with driver (detected when
// empty) and reports a ConnectMsg or ConnectErrMsg.
func (m Model) Connect(driver, dsn string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ConnectTimeout)
		defer cancel()
		store, err := adapter.Open(ctx, driver, dsn)
		if err != nil {
			return appmsg.ConnectErrMsg{Err: err}
		}
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return appmsg.ConnectErrMsg{Err: err}
		}
		return appmsg.ConnectMsg{Store: store, DSN: dsn}
	}
}

// ShowConnManager opens the saved connection picker.
func (m *Model) ShowConnManager() { m.connMgr.Show() }

// Explorer returns the explorer of the current connection, or nil.
func (m Model) Explorer() *explorer.Explorer { return m.x }

// Close releases the current store.
func (m Model) Close() error {
	if m.x == nil {
		return nil
	}
	return m.x.Store().Close()
}

// fence wraps cmd so its messages carry gen. Batches are unpacked so each
// inner command is fenced too.
func fence(gen uint64, cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return func() tea.Msg {
		msg := cmd()
		if batch, ok := msg.(tea.BatchMsg); ok {
			out := make(tea.BatchMsg, len(batch))
			for i, c := range batch {
				out[i] = fence(gen, c)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return genMsg{gen: gen, msg: msg}
	}
}

// exec fences an explorer command to the current connection.
func (m *Model) exec(cmd tea.Cmd) tea.Cmd { return fence(m.gen, cmd) }

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.layout()
		return m, nil

	case genMsg:
		if msg.gen != m.gen || m.x == nil {
			return m, nil
		}
		return m.Update(msg.msg)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	case appmsg.ConnectMsg:
		cmds = append(cmds, m.onConnect(msg))

	case appmsg.ConnectErrMsg:
		m.log.Warn("connect failed", "err", msg.Err)
		cmds = append(cmds, notify(appmsg.NotifyError, "Connection failed: "+msg.Err.Error()))
		if m.x == nil && len(m.connMgr.Connections()) > 0 {
			m.connMgr.Show()
		}

	case appmsg.TablesLoadedMsg, appmsg.TablesErrMsg, appmsg.PageLoadedMsg, appmsg.PageErrMsg,
		appmsg.QueryResultMsg, appmsg.QueryErrMsg:
		if m.x != nil {
			cmds = append(cmds, m.exec(m.x.Update(msg)))
		}

	case appmsg.MutationDoneMsg, appmsg.MutationErrMsg:
		if m.x != nil {
			cmds = append(cmds, m.exec(m.x.Update(msg)))
			m.afterMutation()
		}

	case appmsg.ResetDoneMsg:
		if m.x != nil {
			cmds = append(cmds, m.exec(m.x.Update(msg)))
			m.closeConfirm()
			m.console.Reset()
			m.lastOutcome, m.lastErr = nil, nil
			m.output.Clear()
		}

	case appmsg.ResetErrMsg:
		if m.x != nil {
			cmds = append(cmds, m.exec(m.x.Update(msg)))
			m.confirm.SetBusy("")
			m.confirm.SetError(m.x.ResetErr())
		}

	case appmsg.NotifyMsg:
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(msg)
		cmds = append(cmds, cmd)

	case statusbar.ClearStatusMsg:
		m.status, _ = m.status.Update(msg)

	case appmsg.SelectTableMsg:
		if m.x != nil {
			cmds = append(cmds, m.exec(m.x.Select(msg.Table)), m.tabs.Switch(tabs.Rows))
			m.setFocus(appmsg.PaneResults)
		}

	case tabs.SwitchMsg:
		m.tabs, _ = m.tabs.Update(msg)
		m.layout()

	case form.SubmitMsg:
		if m.x != nil {
			cmds = append(cmds, m.exec(m.x.Submit()))
		}

	case form.CancelMsg:
		if m.x != nil {
			m.x.Cancel()
		}

	case confirmDeleteMsg:
		if m.x != nil {
			m.confirm.SetBusy("Deleting...")
			cmds = append(cmds, m.exec(m.x.Submit()))
		}

	case confirmResetMsg:
		if m.x != nil {
			m.confirm.SetBusy("Resetting...")
			cmds = append(cmds, m.exec(m.x.Reset()))
		}

	case cancelConfirmMsg:
		m.closeConfirm()

	case autocomplete.SelectedMsg:
		m.console.ReplaceBeforeCursor(msg.Replace, msg.Text)
		m.tabs.SetModified(true)

	case autocomplete.DismissMsg:
		m.autocomp.Dismiss()

	case appmsg.InsertTextMsg:
		m.console.SetValue(msg.Text)
		m.tabs.SetModified(true)
		cmds = append(cmds, m.tabs.Switch(tabs.Console))
		m.setFocus(appmsg.PaneConsole)

	case connmgr.ConnectRequestMsg:
		cmds = append(cmds, m.Connect(msg.Driver, msg.DSN), m.status.SetBusy("Connecting..."))

	case connmgr.ConnectionsUpdatedMsg:
		m.cfg.Connections = msg.Connections
		if m.opts.SaveConnections != nil {
			if err := m.opts.SaveConnections(msg.Connections); err != nil {
				cmds = append(cmds, notify(appmsg.NotifyError, "Saving connections failed: "+err.Error()))
			}
		}

	case appmsg.ExportCompleteMsg:
		cmds = append(cmds, notify(appmsg.NotifySuccess, fmt.Sprintf("Exported %d rows to %s", msg.RowCount, msg.Path)))

	case appmsg.ExportErrMsg:
		cmds = append(cmds, notify(appmsg.NotifyError, "Export failed: "+msg.Err.Error()))

	default:
		// Spinner ticks, cursor blinks and viewport messages.
		var cmd tea.Cmd
		m.status, cmd = m.status.Update(msg)
		cmds = append(cmds, cmd)
		m.console, cmd = m.console.Update(msg)
		cmds = append(cmds, cmd)
		if m.searching {
			m.search, cmd = m.search.Update(msg)
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, m.sync())
	return m, tea.Batch(cmds...)
}

func notify(kind appmsg.NotifyKind, text string) tea.Cmd {
	return func() tea.Msg { return appmsg.NotifyMsg{Text: text, Kind: kind} }
}

func (m *Model) onConnect(msg appmsg.ConnectMsg) tea.Cmd {
	if m.x != nil {
		if err := m.x.Store().Close(); err != nil {
			m.log.Warn("closing previous store", "err", err)
		}
	}
	m.gen++
	m.dsn = msg.DSN
	driver := msg.Store.DriverName()
	j := &journal{
		hist:   m.opts.History,
		audit:  m.opts.Audit,
		log:    m.opts.Logger,
		driver: driver,
		db:     msg.Store.DatabaseName(),
		dsn:    msg.DSN,
	}
	m.x = explorer.New(msg.Store, explorer.Options{
		PageSize: m.cfg.Results.PageSize,
		Timeout:  m.cfg.Storage.Timeout,
		Logger:   m.opts.Logger,
		Journal:  j,
	})
	m.log.Info("connected", "driver", driver, "dsn", config.Redact(msg.DSN))

	m.engine = completion.NewEngine(driver)
	m.autocomp.SetEngine(m.engine)
	m.console.SetDriver(driver)
	m.connMgr.Hide()
	m.lastPage, m.lastOutcome, m.lastErr = nil, nil, nil
	m.rows.Clear()
	m.output.Clear()
	m.sidebar.SetLoading(true)
	m.status.SetBusy("")

	var cmd tea.Cmd
	m.status, cmd = m.status.Update(msg)
	return tea.Batch(cmd, m.exec(m.x.Init()))
}

// sync copies explorer state into the views and drives the busy spinner.
func (m *Model) sync() tea.Cmd {
	if m.x == nil {
		return nil
	}
	sc := m.x.Schema()
	switch {
	case sc.Err() != nil && len(sc.Tables()) == 0:
		m.sidebar.SetError(sc.Err())
	case sc.Loading() && len(sc.Tables()) == 0:
		m.sidebar.SetLoading(true)
	default:
		m.sidebar.SetTables(sc.Tables(), sc.Selected())
	}
	m.engine.UpdateSchema(sc.Tables())
	m.tabs.SetTable(sc.Selected())

	p := m.x.Pager()
	if r := p.Result(); r != m.lastPage {
		m.lastPage = r
		if r != nil {
			m.rows.SetPage(r)
		} else {
			m.rows.Clear()
		}
	}
	if p.Result() == nil && p.Err() != nil {
		m.rows.SetError(p.Err())
	}
	m.rows.SetLoading(p.Loading())
	m.rows.SetFooter(m.rowsFooter())

	c := m.x.Console()
	m.tabs.SetRunning(c.Running())
	if qe := c.Err(); qe != nil {
		if error(qe) != m.lastErr {
			m.lastErr, m.lastOutcome = qe, nil
			m.output.SetError(errors.New(qe.Message()))
			m.output.SetFooter("")
		}
	} else if out := c.Outcome(); out != m.lastOutcome {
		m.lastOutcome, m.lastErr = out, nil
		switch {
		case out == nil:
			m.output.Clear()
		case out.IsMutation():
			m.output.SetMessage(out.Summary())
		case out.ResultSet != nil:
			m.output.SetResultSet(out.ResultSet)
		}
		if out != nil {
			m.output.SetFooter(out.Summary() + " in " + results.FormatDuration(out.Duration))
		}
	}
	m.output.SetLoading(c.Running())

	return m.status.SetBusy(m.busyLabel())
}

func (m Model) rowsFooter() string {
	p := m.x.Pager()
	footer := p.Footer()
	if s := p.Search(); s != "" {
		footer += fmt.Sprintf(" · search %q", s)
	}
	return footer
}

func (m Model) busyLabel() string {
	switch {
	case m.x.Resetting():
		return "Resetting database..."
	case m.x.Editor().Busy():
		return "Saving..."
	case m.x.Console().Running():
		return "Running statement..."
	case m.x.Schema().Loading():
		return "Loading tables..."
	case m.x.Pager().Loading():
		return "Loading rows..."
	}
	return ""
}

// afterMutation closes whichever dialog the finished mutation came from.
func (m *Model) afterMutation() {
	ed := m.x.Editor()
	if m.confirmFor != confirmDelete {
		return
	}
	if !ed.Open() {
		m.closeConfirm()
		return
	}
	m.confirm.SetBusy("")
	m.confirm.SetError(ed.Err())
}

func (m *Model) closeConfirm() {
	if m.confirmFor == confirmDelete && m.x != nil && m.x.Editor().State() == explorer.ConfirmingDelete {
		m.x.Cancel()
	}
	m.confirm.Hide()
	m.confirmFor = confirmNone
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if key.Matches(msg, m.keys.Quit) && !m.formOpen() {
		m.quitting = true
		return tea.Quit
	}

	switch {
	case m.connMgr.Visible():
		var cmd tea.Cmd
		m.connMgr, cmd = m.connMgr.Update(msg)
		return cmd
	case m.history.Visible():
		var cmd tea.Cmd
		m.history, cmd = m.history.Update(msg)
		return cmd
	case m.viewer.Visible():
		var cmd tea.Cmd
		m.viewer, cmd = m.viewer.Update(msg)
		return cmd
	case m.confirm.Visible():
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		if !m.confirm.Visible() && cmd == nil {
			m.closeConfirm()
		}
		return cmd
	case m.formOpen():
		var cmd tea.Cmd
		m.form, cmd = m.form.Update(msg, m.x.Editor())
		return cmd
	case m.showHelp:
		if key.Matches(msg, m.keys.Help) || msg.String() == "esc" || msg.String() == "q" || msg.String() == "?" {
			m.showHelp = false
		}
		return nil
	case m.searching:
		return m.handleSearchKey(msg)
	case m.autocomp.Visible() && m.focus == appmsg.PaneConsole:
		switch msg.String() {
		case "up", "down", "enter", "tab", "esc", "ctrl+p", "ctrl+n":
			var cmd tea.Cmd
			m.autocomp, cmd = m.autocomp.Update(msg)
			return cmd
		}
	}

	if cmd, ok := m.handleGlobalKey(msg); ok {
		return cmd
	}

	switch m.focus {
	case appmsg.PaneSidebar:
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		return cmd
	case appmsg.PaneConsole:
		return m.handleConsoleKey(msg)
	default:
		return m.handleResultsKey(msg)
	}
}

func (m Model) formOpen() bool {
	if m.x == nil {
		return false
	}
	s := m.x.Editor().State()
	return s == explorer.Editing || s == explorer.Inserting
}

// handleGlobalKey reports whether msg was a global binding.
func (m *Model) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	// Typing in the console or the sidebar filter takes precedence over
	// single-character bindings.
	if m.sidebar.Filtering() && m.focus == appmsg.PaneSidebar {
		return nil, false
	}
	k := m.keys
	switch {
	case key.Matches(msg, k.Help):
		m.showHelp = true
	case key.Matches(msg, k.ToggleKeyMode):
		m.toggleKeyMode()
	case key.Matches(msg, k.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		if !m.showSidebar && m.focus == appmsg.PaneSidebar {
			m.setFocus(appmsg.PaneResults)
		}
		m.layout()
	case key.Matches(msg, k.OpenConnMgr):
		m.connMgr.Show()
	case key.Matches(msg, k.History):
		return m.history.Show(), true
	case key.Matches(msg, k.SwitchView):
		cmd := m.tabs.Toggle()
		if m.tabs.Active() == tabs.Console {
			m.setFocus(appmsg.PaneConsole)
		} else {
			m.setFocus(appmsg.PaneResults)
		}
		m.layout()
		return cmd, true
	case key.Matches(msg, k.FocusNext):
		m.cycleFocus(1)
	case key.Matches(msg, k.FocusPrev):
		m.cycleFocus(-1)
	case key.Matches(msg, k.FocusSidebar):
		if m.showSidebar {
			m.setFocus(appmsg.PaneSidebar)
		}
	case key.Matches(msg, k.FocusResults):
		m.setFocus(appmsg.PaneResults)
	case key.Matches(msg, k.FocusConsole):
		if m.tabs.Active() != tabs.Console {
			m.tabs.Switch(tabs.Console)
			m.layout()
		}
		m.setFocus(appmsg.PaneConsole)
	case key.Matches(msg, k.Export):
		return m.exportResults(), true
	case key.Matches(msg, k.ResizeLeft):
		if m.sidebarWidth > 16 {
			m.sidebarWidth -= 2
			m.layout()
		}
	case key.Matches(msg, k.ResizeRight):
		if m.sidebarWidth < m.width/2 {
			m.sidebarWidth += 2
			m.layout()
		}
	case key.Matches(msg, k.ResizeUp):
		if m.consoleSplit > 20 {
			m.consoleSplit -= 5
			m.layout()
		}
	case key.Matches(msg, k.ResizeDown):
		if m.consoleSplit < 80 {
			m.consoleSplit += 5
			m.layout()
		}
	case m.x == nil:
		return nil, false
	case key.Matches(msg, k.Refresh):
		return m.exec(m.x.Refresh()), true
	case key.Matches(msg, k.Reset):
		m.openResetConfirm()
	default:
		return nil, false
	}
	return nil, true
}

func (m *Model) handleResultsKey(msg tea.KeyMsg) tea.Cmd {
	if m.tabs.Active() == tabs.Console {
		if key.Matches(msg, m.keys.ViewCell) {
			m.viewCell(m.output)
			return nil
		}
		var cmd tea.Cmd
		m.output, cmd = m.output.Update(msg)
		return cmd
	}
	if m.x == nil {
		return nil
	}

	k := m.keys
	switch {
	case key.Matches(msg, k.EditRow):
		cmd := m.x.OpenEdit(m.rows.Cursor())
		if m.formOpen() {
			m.form.Load(m.x.Editor())
		}
		return cmd
	case key.Matches(msg, k.InsertRow):
		cmd := m.x.OpenInsert()
		if m.formOpen() {
			m.form.Load(m.x.Editor())
		}
		return cmd
	case key.Matches(msg, k.DeleteRow):
		cmd := m.x.OpenDelete(m.rows.Cursor())
		if m.x.Editor().State() == explorer.ConfirmingDelete {
			m.openDeleteConfirm()
		}
		return cmd
	case key.Matches(msg, k.ViewCell):
		m.viewCell(m.rows)
		return nil
	case key.Matches(msg, k.Search):
		m.searching = true
		m.layout()
		m.search.SetValue(m.x.Pager().Search())
		m.search.CursorEnd()
		return m.search.Focus()
	case key.Matches(msg, k.NextPage):
		return m.exec(m.x.NextPage())
	case key.Matches(msg, k.PrevPage):
		return m.exec(m.x.PrevPage())
	case key.Matches(msg, k.FirstPage):
		return m.exec(m.x.GotoPage(1))
	case key.Matches(msg, k.LastPage):
		return m.exec(m.x.GotoPage(m.x.Pager().TotalPages()))
	}
	var cmd tea.Cmd
	m.rows, cmd = m.rows.Update(msg)
	return cmd
}

func (m *Model) handleSearchKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		m.searching = false
		m.search.Blur()
		m.layout()
		if m.x == nil {
			return nil
		}
		return m.exec(m.x.Search(strings.TrimSpace(m.search.Value())))
	case "esc":
		m.searching = false
		m.search.Blur()
		m.layout()
		return nil
	}
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	return cmd
}

func (m *Model) handleConsoleKey(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	if m.keyMode == appmsg.KeyModeVim && m.vim == vimNormal {
		return m.handleVimNormal(msg)
	}
	switch {
	case key.Matches(msg, k.Execute):
		return m.execute()
	case key.Matches(msg, k.Complete):
		m.autocomp.Trigger(m.console.Value(), m.console.Cursor())
		return nil
	case m.keyMode == appmsg.KeyModeVim && key.Matches(msg, k.VimEscape):
		m.vim = vimNormal
		m.autocomp.Dismiss()
		m.refreshHints()
		return nil
	}

	var cmd tea.Cmd
	m.console, cmd = m.console.Update(msg)
	if m.console.Modified() {
		m.tabs.SetModified(true)
	}
	if isTypingKey(msg) {
		before := m.console.TextBeforeCursor()
		if prefix, _ := completion.Prefix(before); prefix != "" || strings.HasSuffix(before, ".") {
			m.autocomp.Trigger(m.console.Value(), m.console.Cursor())
		} else {
			m.autocomp.Dismiss()
		}
	}
	return cmd
}

// vimMotions maps normal-mode keys onto the textarea's own bindings.
var vimMotions = map[string]tea.KeyMsg{
	"h": {Type: tea.KeyLeft},
	"j": {Type: tea.KeyDown},
	"k": {Type: tea.KeyUp},
	"l": {Type: tea.KeyRight},
	"0": {Type: tea.KeyHome},
	"$": {Type: tea.KeyEnd},
	"w": {Type: tea.KeyRunes, Runes: []rune{'f'}, Alt: true},
	"b": {Type: tea.KeyRunes, Runes: []rune{'b'}, Alt: true},
	"x": {Type: tea.KeyDelete},
	"g": {Type: tea.KeyRunes, Runes: []rune{'<'}, Alt: true},
	"G": {Type: tea.KeyRunes, Runes: []rune{'>'}, Alt: true},
}

func (m *Model) handleVimNormal(msg tea.KeyMsg) tea.Cmd {
	k := m.keys
	switch {
	case key.Matches(msg, k.Execute), msg.String() == "enter":
		return m.execute()
	case key.Matches(msg, k.VimInsert):
		m.vim = vimInsert
		m.refreshHints()
		return nil
	case key.Matches(msg, k.VimAppend):
		m.vim = vimInsert
		m.refreshHints()
		motion := tea.KeyMsg{Type: tea.KeyRight}
		if msg.String() == "A" {
			motion = tea.KeyMsg{Type: tea.KeyEnd}
		}
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(motion)
		return cmd
	}
	if motion, ok := vimMotions[msg.String()]; ok {
		var cmd tea.Cmd
		m.console, cmd = m.console.Update(motion)
		return cmd
	}
	return nil
}

func (m *Model) execute() tea.Cmd {
	if m.x == nil {
		return notify(appmsg.NotifyError, adapter.ErrNotConnected.Error())
	}
	m.autocomp.Dismiss()
	m.console.ResetModified()
	m.tabs.SetModified(false)
	return m.exec(m.x.Execute(m.console.Value()))
}

func isTypingKey(msg tea.KeyMsg) bool {
	switch msg.Type {
	case tea.KeyRunes:
		return !msg.Alt
	case tea.KeyBackspace, tea.KeyDelete:
		return true
	}
	return false
}

func (m *Model) toggleKeyMode() {
	if m.keyMode == appmsg.KeyModeStandard {
		m.keyMode = appmsg.KeyModeVim
		m.vim = vimNormal
	} else {
		m.keyMode = appmsg.KeyModeStandard
	}
	m.keys = KeyMapFor(m.keyMode)
	m.status.SetKeyMode(m.keyMode)
	m.refreshHints()
}

// ---------------------------------------------------------------------------
// Dialogs
// ---------------------------------------------------------------------------

func (m *Model) openDeleteConfirm() {
	ed := m.x.Editor()
	var lines []string
	for _, p := range ed.Identity() {
		lines = append(lines, fmt.Sprintf("  %s = %s", p.Column, cell.SingleLine(cell.Display(p.Value, cell.DefaultWidth))))
	}
	body := fmt.Sprintf("Delete this row from %s?\n\n%s", ed.Table().Name, strings.Join(lines, "\n"))
	m.confirm = dialog.New("Delete row", body,
		dialog.Button{Label: "Delete", Action: func() tea.Msg { return confirmDeleteMsg{} }, KeepOpen: true},
		dialog.Button{Label: "Cancel", Action: func() tea.Msg { return cancelConfirmMsg{} }},
	)
	m.confirm.SetSize(m.width, m.height)
	m.confirm.Show()
	m.confirmFor = confirmDelete
}

func (m *Model) openResetConfirm() {
	if m.x.Resetting() {
		return
	}
	body := fmt.Sprintf("Drop every table in %s and recreate the default empty agents, agent_runs and app_settings tables?\n\nThis cannot be undone.",
		m.x.Store().DatabaseName())
	m.confirm = dialog.New("Reset database", body,
		dialog.Button{Label: "Reset", Action: func() tea.Msg { return confirmResetMsg{} }, KeepOpen: true},
		dialog.Button{Label: "Cancel", Action: func() tea.Msg { return cancelConfirmMsg{} }},
	)
	m.confirm.SetSize(m.width, m.height)
	m.confirm.Show()
	m.confirmFor = confirmReset
}

func (m *Model) viewCell(grid results.Model) {
	col, v, ok := grid.SelectedCell()
	if !ok {
		return
	}
	m.viewer.Show(col, cell.Full(v))
}

func (m Model) exportResults() tea.Cmd {
	var (
		grid export.Grid
		name = "console"
	)
	if m.tabs.Active() == tabs.Rows {
		grid = m.rows.Grid()
		if m.x != nil && m.x.Pager().Table() != "" {
			name = m.x.Pager().Table()
		}
	} else {
		grid = m.output.Grid()
	}
	if len(grid.Columns) == 0 {
		return func() tea.Msg { return appmsg.ExportErrMsg{Err: errors.New("no results to export")} }
	}
	return func() tea.Msg {
		dir, err := os.Getwd()
		if err != nil {
			return appmsg.ExportErrMsg{Err: err}
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%s.csv", name, time.Now().Format("20060102_150405")))
		n, err := export.WriteFile(path, grid)
		if err != nil {
			return appmsg.ExportErrMsg{Err: err}
		}
		return appmsg.ExportCompleteMsg{Path: path, RowCount: n}
	}
}

// ---------------------------------------------------------------------------
// Focus
// ---------------------------------------------------------------------------

func (m Model) panes() []appmsg.Pane {
	var panes []appmsg.Pane
	if m.showSidebar {
		panes = append(panes, appmsg.PaneSidebar)
	}
	if m.tabs.Active() == tabs.Console {
		panes = append(panes, appmsg.PaneConsole)
	}
	return append(panes, appmsg.PaneResults)
}

func (m *Model) cycleFocus(dir int) {
	panes := m.panes()
	cur := 0
	for i, p := range panes {
		if p == m.focus {
			cur = i
		}
	}
	m.setFocus(panes[(cur+dir+len(panes))%len(panes)])
}

func (m *Model) setFocus(p appmsg.Pane) {
	m.sidebar.Blur()
	m.rows.Blur()
	m.output.Blur()
	m.console.Blur()
	m.autocomp.Dismiss()

	m.focus = p
	switch p {
	case appmsg.PaneSidebar:
		m.sidebar.Focus()
	case appmsg.PaneConsole:
		m.console.Focus()
		m.vim = vimNormal
		if m.keyMode == appmsg.KeyModeStandard {
			m.vim = vimInsert
		}
	default:
		if m.tabs.Active() == tabs.Console {
			m.output.Focus()
		} else {
			m.rows.Focus()
		}
	}
	m.status.SetPane(p)
	m.refreshHints()
}

func (m *Model) refreshHints() {
	hints := Hints(m.keys.PaneHelp(m.focus))
	if m.focus == appmsg.PaneConsole && m.keyMode == appmsg.KeyModeVim {
		mode := "-- NORMAL --"
		if m.vim == vimInsert {
			mode = "-- INSERT --"
		}
		hints = mode + " " + hints
	}
	m.status.SetHints(hints)
}
