package msg

import (
	"time"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/schema"
)

// Pane focus targets.
type Pane int

const (
	PaneSidebar Pane = iota
	PaneResults
	PaneConsole
)

func (p Pane) String() string {
	switch p {
	case PaneSidebar:
		return "sidebar"
	case PaneConsole:
		return "console"
	default:
		return "results"
	}
}

// KeyMode represents the active keybinding mode.
type KeyMode int

const (
	KeyModeStandard KeyMode = iota
	KeyModeVim
)

func (m KeyMode) String() string {
	if m == KeyModeVim {
		return "vim"
	}
	return "standard"
}

// ParseKeyMode parses a string into a KeyMode.
func ParseKeyMode(s string) KeyMode {
	if s == "vim" {
		return KeyModeVim
	}
	return KeyModeStandard
}

// NotifyKind distinguishes success from error notifications.
type NotifyKind int

const (
	NotifySuccess NotifyKind = iota
	NotifyError
)

func (k NotifyKind) String() string {
	if k == NotifyError {
		return "error"
	}
	return "success"
}

// NotifyMsg carries a user-facing notification. The explorer emits it; the
// status bar renders it.
type NotifyMsg struct {
	Text string
	Kind NotifyKind
}

// MutationOp names a row mutation.
type MutationOp int

const (
	OpInsert MutationOp = iota
	OpUpdate
	OpDelete
)

func (o MutationOp) String() string {
	switch o {
	case OpInsert:
		return "insert"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	}
	return "unknown"
}

// ConnectMsg is sent when a store has been opened.
type ConnectMsg struct {
	Store adapter.Store
	DSN   string
}

// ConnectErrMsg is sent when opening a store fails.
type ConnectErrMsg struct {
	Err error
}

// TablesLoadedMsg is sent when a table-list load completes.
type TablesLoadedMsg struct {
	Tables []schema.Table
	Seq    uint64
}

// TablesErrMsg is sent when a table-list load fails.
type TablesErrMsg struct {
	Err error
	Seq uint64
}

// PageLoadedMsg is sent when a page read completes.
type PageLoadedMsg struct {
	Result *adapter.PagedResult
	Seq    uint64
}

// PageErrMsg is sent when a page read fails.
type PageErrMsg struct {
	Err error
	Seq uint64
}

// MutationDoneMsg is sent when a row insert, update or delete succeeds.
type MutationDoneMsg struct {
	Op    MutationOp
	Table string
}

// MutationErrMsg is sent when a row mutation fails.
type MutationErrMsg struct {
	Op    MutationOp
	Table string
	Err   error
}

// QueryResultMsg is sent when a console statement completes.
type QueryResultMsg struct {
	Outcome  *adapter.QueryOutcome
	RunID    uint64
	Duration time.Duration
}

// QueryErrMsg is sent when a console statement fails.
type QueryErrMsg struct {
	Err      error
	RunID    uint64
	Duration time.Duration
}

// ResetDoneMsg is sent when the database has been reset.
type ResetDoneMsg struct{}

// ResetErrMsg is sent when a database reset fails.
type ResetErrMsg struct {
	Err error
}

// ExportCompleteMsg is sent when an export finishes.
type ExportCompleteMsg struct {
	Path     string
	RowCount int
}

// ExportErrMsg is sent when an export fails.
type ExportErrMsg struct {
	Err error
}

// InsertTextMsg inserts text into the console editor.
type InsertTextMsg struct {
	Text string
}

// SelectTableMsg asks the explorer to show a table.
type SelectTableMsg struct {
	Table string
}
