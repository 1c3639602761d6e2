package app

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	appmsg "github.com/sadopc/tablescope/internal/msg"
)

// KeyMap defines all application keybindings.
type KeyMap struct {
	// Navigation
	FocusNext    key.Binding
	FocusPrev    key.Binding
	FocusSidebar key.Binding
	FocusResults key.Binding
	FocusConsole key.Binding
	SwitchView   key.Binding

	// Rows
	EditRow   key.Binding
	InsertRow key.Binding
	DeleteRow key.Binding
	ViewCell  key.Binding
	Search    key.Binding
	NextPage  key.Binding
	PrevPage  key.Binding
	FirstPage key.Binding
	LastPage  key.Binding

	// Console
	Execute  key.Binding
	Complete key.Binding
	History  key.Binding

	// App
	Quit          key.Binding
	Help          key.Binding
	ToggleKeyMode key.Binding
	ToggleSidebar key.Binding
	Refresh       key.Binding
	OpenConnMgr   key.Binding
	Export        key.Binding
	Reset         key.Binding

	// Pane resizing
	ResizeLeft  key.Binding
	ResizeRight key.Binding
	ResizeUp    key.Binding
	ResizeDown  key.Binding

	// Vim normal mode in the console
	VimInsert key.Binding
	VimAppend key.Binding
	VimEscape key.Binding
}

// StandardKeyMap returns keybindings for standard mode.
func StandardKeyMap() KeyMap {
	return KeyMap{
		FocusNext: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next pane"),
		),
		FocusPrev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev pane"),
		),
		FocusSidebar: key.NewBinding(
			key.WithKeys("alt+1"),
			key.WithHelp("alt+1", "tables"),
		),
		FocusResults: key.NewBinding(
			key.WithKeys("alt+2"),
			key.WithHelp("alt+2", "results"),
		),
		FocusConsole: key.NewBinding(
			key.WithKeys("alt+3"),
			key.WithHelp("alt+3", "console"),
		),
		SwitchView: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "rows/console"),
		),
		EditRow: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
		InsertRow: key.NewBinding(
			key.WithKeys("n", "a"),
			key.WithHelp("n", "new row"),
		),
		DeleteRow: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete"),
		),
		ViewCell: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "view cell"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "search"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "prev page"),
		),
		FirstPage: key.NewBinding(
			key.WithKeys("<"),
			key.WithHelp("<", "first page"),
		),
		LastPage: key.NewBinding(
			key.WithKeys(">"),
			key.WithHelp(">", "last page"),
		),
		Execute: key.NewBinding(
			key.WithKeys("f5", "ctrl+g"),
			key.WithHelp("f5", "run"),
		),
		Complete: key.NewBinding(
			key.WithKeys("ctrl+@", "ctrl+ "),
			key.WithHelp("ctrl+space", "complete"),
		),
		History: key.NewBinding(
			key.WithKeys("ctrl+h"),
			key.WithHelp("ctrl+h", "history"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+q", "ctrl+c"),
			key.WithHelp("ctrl+q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		ToggleKeyMode: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "vim/standard"),
		),
		ToggleSidebar: key.NewBinding(
			key.WithKeys("ctrl+b"),
			key.WithHelp("ctrl+b", "toggle tables"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "refresh"),
		),
		OpenConnMgr: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("ctrl+o", "connections"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "export"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "reset database"),
		),
		ResizeLeft: key.NewBinding(
			key.WithKeys("ctrl+left"),
			key.WithHelp("ctrl+←", "narrow tables"),
		),
		ResizeRight: key.NewBinding(
			key.WithKeys("ctrl+right"),
			key.WithHelp("ctrl+→", "widen tables"),
		),
		ResizeUp: key.NewBinding(
			key.WithKeys("ctrl+up"),
			key.WithHelp("ctrl+↑", "shrink console"),
		),
		ResizeDown: key.NewBinding(
			key.WithKeys("ctrl+down"),
			key.WithHelp("ctrl+↓", "grow console"),
		),
	}
}

// VimKeyMap returns keybindings for vim mode. The console gets a normal
// mode where hjkl move the cursor and enter runs the statement.
func VimKeyMap() KeyMap {
	km := StandardKeyMap()
	km.Execute = key.NewBinding(
		key.WithKeys("f5", "ctrl+g"),
		key.WithHelp("f5/enter", "run"),
	)
	km.VimInsert = key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "insert"),
	)
	km.VimAppend = key.NewBinding(
		key.WithKeys("a", "A"),
		key.WithHelp("a", "append"),
	)
	km.VimEscape = key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "normal mode"),
	)
	return km
}

// KeyMapFor returns the keymap of mode.
func KeyMapFor(mode appmsg.KeyMode) KeyMap {
	if mode == appmsg.KeyModeVim {
		return VimKeyMap()
	}
	return StandardKeyMap()
}

// ShortHelp returns a subset of keybindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.FocusNext, k.SwitchView, k.Refresh, k.Quit, k.Help}
}

// FullHelp returns all keybindings grouped for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.EditRow, k.InsertRow, k.DeleteRow, k.ViewCell, k.Search, k.NextPage, k.PrevPage, k.FirstPage, k.LastPage},
		{k.Execute, k.Complete, k.History, k.Export, k.VimInsert, k.VimEscape},
		{k.FocusNext, k.FocusPrev, k.FocusSidebar, k.FocusResults, k.FocusConsole, k.SwitchView},
		{k.ToggleKeyMode, k.ToggleSidebar, k.Refresh, k.OpenConnMgr, k.Reset, k.Quit, k.Help},
		{k.ResizeLeft, k.ResizeRight, k.ResizeUp, k.ResizeDown},
	}
}

// PaneHelp returns the bindings worth hinting at while pane has focus.
func (k KeyMap) PaneHelp(pane appmsg.Pane) []key.Binding {
	switch pane {
	case appmsg.PaneResults:
		return []key.Binding{k.EditRow, k.InsertRow, k.DeleteRow, k.ViewCell, k.Search, k.PrevPage, k.NextPage, k.Export}
	case appmsg.PaneConsole:
		return []key.Binding{k.Execute, k.Complete, k.History, k.SwitchView}
	default:
		return []key.Binding{k.FocusNext, k.SwitchView, k.Refresh, k.Reset, k.Help}
	}
}

// Hints renders bindings as plain "key desc" pairs for the status bar.
// Bindings without help text are skipped.
func Hints(bindings []key.Binding) string {
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		if h.Key == "" || !b.Enabled() {
			continue
		}
		parts = append(parts, h.Key+" "+h.Desc)
	}
	return strings.Join(parts, " · ")
}
