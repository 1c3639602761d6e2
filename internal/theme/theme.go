// Package theme holds the lipgloss styles of the tablescope UI. Each theme is
// built from a small palette so every pane shares one set of colours and the
// whole look can be swapped at runtime.
package theme

import (
	"sort"

	"github.com/charmbracelet/lipgloss"
)

// Palette is the set of colours a theme is derived from.
type Palette struct {
	Background lipgloss.Color
	Surface    lipgloss.Color // header rows, inactive tabs, popups
	Border     lipgloss.Color
	Text       lipgloss.Color
	Muted      lipgloss.Color
	Accent     lipgloss.Color // titles, focused borders
	Selection  lipgloss.Color
	SelectedFg lipgloss.Color
	Table      lipgloss.Color
	Number     lipgloss.Color
	String     lipgloss.Color
	Keyword    lipgloss.Color
	Function   lipgloss.Color
	Comment    lipgloss.Color
	Error      lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
}

// Theme holds the style of every UI element.
type Theme struct {
	Name    string
	Palette Palette

	// Sidebar
	SidebarTitle    lipgloss.Style
	SidebarTable    lipgloss.Style
	SidebarCount    lipgloss.Style
	SidebarSelected lipgloss.Style
	SidebarFilter   lipgloss.Style

	// Row grid and console results
	GridHeader   lipgloss.Style
	GridCell     lipgloss.Style
	GridSelected lipgloss.Style
	GridNull     lipgloss.Style
	GridFooter   lipgloss.Style

	// Console syntax highlighting
	SQLKeyword    lipgloss.Style
	SQLString     lipgloss.Style
	SQLNumber     lipgloss.Style
	SQLComment    lipgloss.Style
	SQLOperator   lipgloss.Style
	SQLFunction   lipgloss.Style
	SQLType       lipgloss.Style
	SQLIdentifier lipgloss.Style
	EditorGutter  lipgloss.Style

	// Tabs
	TabActive   lipgloss.Style
	TabInactive lipgloss.Style
	TabBar      lipgloss.Style

	// Status bar
	StatusBar        lipgloss.Style
	StatusBarKey     lipgloss.Style
	StatusBarValue   lipgloss.Style
	StatusBarError   lipgloss.Style
	StatusBarSuccess lipgloss.Style

	// Autocomplete popup
	AutocompleteItem     lipgloss.Style
	AutocompleteSelected lipgloss.Style
	AutocompleteBorder   lipgloss.Style

	// Dialogs and the row form
	DialogBorder       lipgloss.Style
	DialogTitle        lipgloss.Style
	DialogLabel        lipgloss.Style
	DialogReadOnly     lipgloss.Style
	DialogButton       lipgloss.Style
	DialogButtonActive lipgloss.Style

	// General
	FocusedBorder   lipgloss.Style
	UnfocusedBorder lipgloss.Style
	ErrorText       lipgloss.Style
	SuccessText     lipgloss.Style
	WarningText     lipgloss.Style
	MutedText       lipgloss.Style
}

// New derives a complete theme from p.
func New(name string, p Palette) *Theme {
	fg := func(c lipgloss.Color) lipgloss.Style { return lipgloss.NewStyle().Foreground(c) }
	border := func(c lipgloss.Color) lipgloss.Style {
		return lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(c)
	}
	selected := lipgloss.NewStyle().Bold(true).Foreground(p.SelectedFg).Background(p.Selection)
	button := lipgloss.NewStyle().Padding(0, 2)

	return &Theme{
		Name:    name,
		Palette: p,

		SidebarTitle:    fg(p.Accent).Bold(true).PaddingLeft(1),
		SidebarTable:    fg(p.Table),
		SidebarCount:    fg(p.Muted).Italic(true),
		SidebarSelected: selected,
		SidebarFilter:   fg(p.Warning),

		GridHeader:   fg(p.Accent).Bold(true).Background(p.Surface),
		GridCell:     fg(p.Text),
		GridSelected: selected.Bold(false),
		GridNull:     fg(p.Muted).Italic(true),
		GridFooter:   fg(p.Muted),

		SQLKeyword:    fg(p.Keyword).Bold(true),
		SQLString:     fg(p.String),
		SQLNumber:     fg(p.Number),
		SQLComment:    fg(p.Comment).Italic(true),
		SQLOperator:   fg(p.Text),
		SQLFunction:   fg(p.Function),
		SQLType:       fg(p.Table),
		SQLIdentifier: fg(p.Text),
		EditorGutter:  fg(p.Muted),

		TabActive: lipgloss.NewStyle().Bold(true).Padding(0, 2).
			Foreground(p.Text).Background(p.Background).
			Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(p.Accent),
		TabInactive: lipgloss.NewStyle().Padding(0, 2).
			Foreground(p.Muted).Background(p.Surface).
			Border(lipgloss.NormalBorder(), false, false, true, false).BorderForeground(p.Border),
		TabBar: lipgloss.NewStyle().Background(p.Surface),

		StatusBar:        lipgloss.NewStyle().Foreground(p.SelectedFg).Background(p.Selection),
		StatusBarKey:     lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(p.SelectedFg).Background(p.Selection),
		StatusBarValue:   lipgloss.NewStyle().Padding(0, 1).Foreground(p.Text).Background(p.Surface),
		StatusBarError:   lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF")).Background(p.Error),
		StatusBarSuccess: lipgloss.NewStyle().Bold(true).Padding(0, 1).Foreground(lipgloss.Color("#FFFFFF")).Background(p.Success),

		AutocompleteItem:     lipgloss.NewStyle().Padding(0, 1).Foreground(p.Text).Background(p.Surface),
		AutocompleteSelected: lipgloss.NewStyle().Padding(0, 1).Foreground(p.SelectedFg).Background(p.Selection),
		AutocompleteBorder:   border(p.Accent),

		DialogBorder:       border(p.Accent).Padding(1, 2),
		DialogTitle:        fg(p.Accent).Bold(true),
		DialogLabel:        fg(p.Table),
		DialogReadOnly:     fg(p.Muted),
		DialogButton:       button.Foreground(p.Text).Background(p.Border),
		DialogButtonActive: button.Bold(true).Foreground(p.SelectedFg).Background(p.Selection),

		FocusedBorder:   border(p.Accent),
		UnfocusedBorder: border(p.Border),
		ErrorText:       fg(p.Error).Bold(true),
		SuccessText:     fg(p.Success),
		WarningText:     fg(p.Warning),
		MutedText:       fg(p.Muted),
	}
}

var (
	darkPalette = Palette{
		Background: "#1E1E1E", Surface: "#252526", Border: "#3C3C3C",
		Text: "#D4D4D4", Muted: "#808080", Accent: "#569CD6",
		Selection: "#264F78", SelectedFg: "#FFFFFF", Table: "#4EC9B0",
		Number: "#B5CEA8", String: "#CE9178", Keyword: "#569CD6",
		Function: "#DCDCAA", Comment: "#6A9955",
		Error: "#F44747", Success: "#4EC9B0", Warning: "#DCDCAA",
	}
	lightPalette = Palette{
		Background: "#FFFFFF", Surface: "#F3F3F3", Border: "#D4D4D4",
		Text: "#1E1E1E", Muted: "#A0A0A0", Accent: "#0451A5",
		Selection: "#0060C0", SelectedFg: "#FFFFFF", Table: "#267F99",
		Number: "#098658", String: "#A31515", Keyword: "#0000FF",
		Function: "#795E26", Comment: "#008000",
		Error: "#E51400", Success: "#16825D", Warning: "#BF8803",
	}
	monokaiPalette = Palette{
		Background: "#272822", Surface: "#3E3D32", Border: "#49483E",
		Text: "#F8F8F2", Muted: "#75715E", Accent: "#F92672",
		Selection: "#49483E", SelectedFg: "#F8F8F2", Table: "#A6E22E",
		Number: "#AE81FF", String: "#E6DB74", Keyword: "#F92672",
		Function: "#66D9EF", Comment: "#75715E",
		Error: "#F92672", Success: "#A6E22E", Warning: "#E6DB74",
	}
)

// Themes maps theme names to their definitions.
var Themes = map[string]*Theme{
	"default": New("default", darkPalette),
	"light":   New("light", lightPalette),
	"monokai": New("monokai", monokaiPalette),
}

// Current is the active theme.
var Current = Themes["default"]

// Default returns the default dark theme.
func Default() *Theme {
	return Themes["default"]
}

// Get returns the theme called name, or the default theme.
func Get(name string) *Theme {
	if t, ok := Themes[name]; ok {
		return t
	}
	return Default()
}

// Names lists the registered themes in sorted order.
func Names() []string {
	names := make([]string, 0, len(Themes))
	for n := range Themes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
