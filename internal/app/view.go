package app

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	appmsg "github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/theme"
	"github.com/sadopc/tablescope/internal/ui/dialog"
	"github.com/sadopc/tablescope/internal/ui/tabs"
)

// layout recomputes every component size from the window size.
func (m *Model) layout() {
	if m.width == 0 || m.height == 0 {
		return
	}
	bodyH := max(m.height-1, 3) // status bar

	mainW := m.width
	if m.showSidebar {
		sw := min(m.sidebarWidth, m.width/2)
		m.sidebar.SetSize(sw, bodyH)
		mainW -= sw
	}
	m.tabs.SetSize(mainW)
	paneH := max(bodyH-1, 3) // tab bar

	rowsH := paneH
	if m.searching {
		rowsH--
	}
	m.rows.SetSize(mainW, rowsH)
	m.search.Width = max(mainW-len(m.search.Prompt)-2, 10)

	editorH := max(paneH*m.consoleSplit/100, 3)
	m.console.SetSize(mainW, editorH)
	m.output.SetSize(mainW, max(paneH-editorH, 3))

	m.status.SetSize(m.width)
	m.confirm.SetSize(m.width, m.height)
	m.viewer.SetSize(m.width, m.height)
	m.form.SetSize(m.width, m.height)
	m.history.SetSize(m.width, m.height)
	m.connMgr.SetSize(m.width, m.height)
	m.help.Width = m.width
}

// View renders the whole screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var main string
	if m.tabs.Active() == tabs.Console {
		main = lipgloss.JoinVertical(lipgloss.Left, m.tabs.View(), m.console.View(), m.output.View())
	} else {
		parts := []string{m.tabs.View()}
		if m.searching {
			parts = append(parts, m.search.View())
		}
		main = lipgloss.JoinVertical(lipgloss.Left, append(parts, m.rows.View())...)
	}

	body := main
	if m.showSidebar {
		body = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}
	screen := lipgloss.JoinVertical(lipgloss.Left, body, m.status.View())

	if m.autocomp.Visible() && m.focus == appmsg.PaneConsole {
		screen = m.overlayCompletions(screen)
	}

	switch {
	case m.connMgr.Visible():
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.connMgr.View())
	case m.history.Visible():
		return dialog.Overlay(screen, m.history.View(), m.width)
	case m.formOpen():
		return dialog.Overlay(screen, m.form.View(m.x.Editor()), m.width)
	case m.confirm.Visible():
		return m.confirm.Overlay(screen)
	case m.viewer.Visible():
		return m.viewer.Overlay(screen)
	case m.showHelp:
		return dialog.Overlay(screen, m.helpView(), m.width)
	}
	return screen
}

// overlayCompletions draws the popup under the console cursor.
func (m Model) overlayCompletions(screen string) string {
	before := m.console.TextBeforeCursor()
	line := strings.Count(before, "\n")
	col := lipgloss.Width(before[strings.LastIndex(before, "\n")+1:])

	x := 2 + col + 4 // border and gutter
	if m.showSidebar {
		x += min(m.sidebarWidth, m.width/2)
	}
	y := 1 + 1 + min(line, max(m.height-6, 0)) + 1 // tab bar, border, next line
	popup := m.autocomp.View()
	if x+lipgloss.Width(popup) > m.width {
		x = max(m.width-lipgloss.Width(popup), 0)
	}
	return dialog.PlaceAt(screen, popup, x, y)
}

func (m Model) helpView() string {
	th := theme.Current
	title := th.DialogTitle.Render("Keys (" + m.keyMode.String() + " mode)")
	body := m.help.FullHelpView(m.keys.FullHelp())
	hint := th.MutedText.Render("esc or F1 to close")
	return th.DialogBorder.Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", hint))
}
