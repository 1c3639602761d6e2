package dialog

import (
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tablescope/internal/theme"
)

// Viewer shows one long value in a scrollable box.
type Viewer struct {
	title   string
	vp      viewport.Model
	visible bool
	width   int
	height  int
}

// NewViewer creates a hidden viewer.
func NewViewer() Viewer {
	return Viewer{vp: viewport.New(40, 10)}
}

// Show opens the viewer on content.
func (v *Viewer) Show(title, content string) {
	v.title = title
	v.visible = true
	v.resize()
	v.vp.SetContent(lipgloss.NewStyle().Width(v.vp.Width).Render(content))
	v.vp.GotoTop()
}

// Hide closes the viewer.
func (v *Viewer) Hide() { v.visible = false }

// Visible returns whether the viewer is shown.
func (v Viewer) Visible() bool { return v.visible }

// SetSize sets the available space.
func (v *Viewer) SetSize(width, height int) {
	v.width, v.height = width, height
	v.resize()
}

func (v *Viewer) resize() {
	v.vp.Width = max(min(v.width-10, 100), 20)
	v.vp.Height = max(min(v.height-10, 30), 3)
}

// Update scrolls the content; esc, q and enter close the viewer.
func (v Viewer) Update(msg tea.Msg) (Viewer, tea.Cmd) {
	if !v.visible {
		return v, nil
	}
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc", "q", "enter":
			v.visible = false
			return v, nil
		}
	}
	var cmd tea.Cmd
	v.vp, cmd = v.vp.Update(msg)
	return v, cmd
}

// View renders the viewer box.
func (v Viewer) View() string {
	if !v.visible {
		return ""
	}
	th := theme.Current
	return th.DialogBorder.Render(lipgloss.JoinVertical(lipgloss.Left,
		th.DialogTitle.Render(v.title),
		"",
		v.vp.View(),
		"",
		th.MutedText.Render("↑/↓ scroll · esc close"),
	))
}

// Overlay draws the viewer centered over background.
func (v Viewer) Overlay(background string) string {
	if !v.visible {
		return background
	}
	return Overlay(background, v.View(), v.width)
}
