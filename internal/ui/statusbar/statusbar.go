// Package statusbar renders the bottom line: the open database, the latest
// notification, a spinner while storage calls are in flight, and the key
// mode.
package statusbar

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	appmsg "github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/theme"
)

// NotifyTimeout is how long a notification stays on screen.
const NotifyTimeout = 5 * time.Second

// ClearStatusMsg clears the notification it was scheduled for. Gen ties it
// to one notification so a newer one is not cleared early.
type ClearStatusMsg struct {
	Gen int
}

// Model is the status bar component.
type Model struct {
	width    int
	driver   string
	database string
	keyMode  appmsg.KeyMode
	pane     appmsg.Pane
	hints    string

	message string
	kind    appmsg.NotifyKind
	gen     int

	spinner spinner.Model
	busy    string
}

// New creates a new status bar.
func New() Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	return Model{spinner: sp}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles status bar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appmsg.ConnectMsg:
		m.driver = msg.Store.DriverName()
		m.database = msg.Store.DatabaseName()

	case appmsg.NotifyMsg:
		m.message = msg.Text
		m.kind = msg.Kind
		m.gen++
		gen := m.gen
		return m, tea.Tick(NotifyTimeout, func(time.Time) tea.Msg {
			return ClearStatusMsg{Gen: gen}
		})

	case ClearStatusMsg:
		if msg.Gen == m.gen {
			m.message = ""
		}

	case spinner.TickMsg:
		if m.busy == "" {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// SetBusy shows the spinner with label, or hides it when label is empty.
// The returned command starts the spinner when it was idle.
func (m *Model) SetBusy(label string) tea.Cmd {
	wasIdle := m.busy == ""
	m.busy = label
	if label != "" && wasIdle {
		return m.spinner.Tick
	}
	return nil
}

// Busy is the current spinner label.
func (m Model) Busy() string { return m.busy }

// Message is the notification on screen, if any.
func (m Model) Message() (string, appmsg.NotifyKind) { return m.message, m.kind }

// View renders the status bar.
func (m Model) View() string {
	if m.width == 0 {
		return ""
	}
	th := theme.Current

	left := th.StatusBarKey.Render(" not connected ")
	if m.driver != "" {
		left = th.StatusBarKey.Render(fmt.Sprintf(" %s://%s ", m.driver, m.database))
	}
	if m.busy != "" {
		left += th.StatusBarValue.Render(m.spinner.View() + " " + m.busy)
	}

	right := th.StatusBarKey.Render(fmt.Sprintf(" %s · %s ", m.pane, m.keyMode))

	room := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	var center string
	switch {
	case m.message != "" && m.kind == appmsg.NotifyError:
		center = th.StatusBarError.Render(runewidth.Truncate(m.message, max(room-2, 1), "…"))
	case m.message != "":
		center = th.StatusBarSuccess.Render(runewidth.Truncate(m.message, max(room-2, 1), "…"))
	default:
		center = th.StatusBar.Render(runewidth.Truncate(m.hints, room, "…"))
	}

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(center)-lipgloss.Width(right), 0)
	leftGap := gap / 2
	bar := left +
		th.StatusBar.Render(spaces(leftGap)) +
		center +
		th.StatusBar.Render(spaces(gap-leftGap)) +
		right
	return th.StatusBar.Width(m.width).MaxWidth(m.width).Render(bar)
}

// SetSize sets the status bar width.
func (m *Model) SetSize(width int) { m.width = width }

// SetPane sets the focused pane shown on the right.
func (m *Model) SetPane(p appmsg.Pane) { m.pane = p }

// SetHints sets the key hints shown when there is no notification.
func (m *Model) SetHints(h string) { m.hints = h }

// KeyMode returns the current key mode.
func (m Model) KeyMode() appmsg.KeyMode { return m.keyMode }

// SetKeyMode sets the key mode.
func (m *Model) SetKeyMode(mode appmsg.KeyMode) { m.keyMode = mode }

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return fmt.Sprintf("%*s", n, "")
}
