package dialog

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

type testActionMsg struct {
	label string
}

func action(label string) func() tea.Msg {
	return func() tea.Msg { return testActionMsg{label: label} }
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func TestShowHide(t *testing.T) {
	d := New("Test", "body", Button{Label: "OK"})
	if d.Visible() {
		t.Fatal("expected dialog to be hidden initially")
	}
	d.SetError(errors.New("old"))
	d.Show()
	if !d.Visible() || d.active != 0 || d.errText != "" {
		t.Fatalf("Show() left visible=%v active=%d err=%q", d.Visible(), d.active, d.errText)
	}
	d.Hide()
	if d.Visible() {
		t.Fatal("expected hidden after Hide()")
	}
}

func TestHiddenIgnoresKeys(t *testing.T) {
	d := New("Test", "body", Button{Label: "OK", Action: action("ok")})
	if _, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter}); cmd != nil {
		t.Fatal("expected nil cmd when dialog not visible")
	}
}

func TestNavigation(t *testing.T) {
	d := New("Test", "body", Button{Label: "Yes"}, Button{Label: "No"}, Button{Label: "Cancel"})
	d.Show()

	steps := []struct {
		key  tea.KeyMsg
		want int
	}{
		{tea.KeyMsg{Type: tea.KeyRight}, 1},
		{tea.KeyMsg{Type: tea.KeyTab}, 2},
		{tea.KeyMsg{Type: tea.KeyRight}, 2},
		{tea.KeyMsg{Type: tea.KeyLeft}, 1},
		{tea.KeyMsg{Type: tea.KeyShiftTab}, 0},
		{tea.KeyMsg{Type: tea.KeyLeft}, 0},
	}
	for i, s := range steps {
		d, _ = d.Update(s.key)
		if d.active != s.want {
			t.Fatalf("step %d (%s): active=%d, want %d", i, s.key, d.active, s.want)
		}
	}
}

func TestEnterRunsActiveButton(t *testing.T) {
	tests := []struct {
		name   string
		keys   []tea.KeyMsg
		want   string
		hidden bool
	}{
		{"first", []tea.KeyMsg{{Type: tea.KeyEnter}}, "yes", true},
		{"second", []tea.KeyMsg{{Type: tea.KeyRight}, {Type: tea.KeyEnter}}, "no", true},
		{"y shortcut", []tea.KeyMsg{{Type: tea.KeyRight}, keyMsg("y")}, "yes", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := New("Confirm", "Are you sure?",
				Button{Label: "Yes", Action: action("yes")},
				Button{Label: "No", Action: action("no")},
			)
			d.Show()
			var cmd tea.Cmd
			for _, k := range tt.keys {
				d, cmd = d.Update(k)
			}
			if cmd == nil {
				t.Fatal("expected a command")
			}
			if got := cmd().(testActionMsg).label; got != tt.want {
				t.Errorf("action = %q, want %q", got, tt.want)
			}
			if d.Visible() == tt.hidden {
				t.Errorf("visible = %v", d.Visible())
			}
		})
	}
}

func TestEscapeAndNClose(t *testing.T) {
	for _, k := range []tea.KeyMsg{{Type: tea.KeyEscape}, keyMsg("n")} {
		d := New("Test", "body", Button{Label: "OK", Action: action("ok")})
		d.Show()
		d, cmd := d.Update(k)
		if d.Visible() || cmd != nil {
			t.Errorf("%s: visible=%v cmd=%v", k, d.Visible(), cmd)
		}
	}
}

func TestKeepOpenAndBusy(t *testing.T) {
	d := New("Reset database", "Drop every table?",
		Button{Label: "Reset", Action: action("reset"), KeepOpen: true},
		Button{Label: "Cancel"},
	)
	d.Show()

	d, cmd := d.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !d.Visible() {
		t.Fatal("a KeepOpen button should fire and leave the dialog open")
	}

	d.SetBusy("Resetting...")
	d, cmd = d.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if cmd != nil || !d.Visible() {
		t.Fatal("a busy dialog should ignore keys")
	}
	if !strings.Contains(d.View(), "Resetting...") {
		t.Error("busy text missing from view")
	}

	d.SetBusy("")
	d.SetError(errors.New("database is locked"))
	if !strings.Contains(d.View(), "database is locked") {
		t.Error("error missing from view")
	}
}

func TestView(t *testing.T) {
	d := New("Delete row", "Delete row id=7 from agents?", Button{Label: "Delete"}, Button{Label: "Cancel"})
	if d.View() != "" {
		t.Fatal("expected empty view when hidden")
	}
	d.Show()
	v := d.View()
	for _, want := range []string{"Delete row", "id=7", "Cancel"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestSetSize(t *testing.T) {
	d := New("Test", "body")
	d.SetSize(40, 20)
	if d.width != 40 || d.maxWidth != 36 {
		t.Errorf("width=%d maxWidth=%d", d.width, d.maxWidth)
	}
	d.SetSize(200, 50)
	if d.maxWidth != 60 {
		t.Errorf("maxWidth=%d, want 60", d.maxWidth)
	}
}

func TestOverlay(t *testing.T) {
	bg := strings.TrimSuffix(strings.Repeat(strings.Repeat(".", 20)+"\n", 5), "\n")

	got := Overlay(bg, "XX\nXX", 20)
	lines := strings.Split(got, "\n")
	if len(lines) != 5 {
		t.Fatalf("overlay changed line count: %d", len(lines))
	}
	if lines[0] != bg[:20] {
		t.Errorf("line 0 = %q, want untouched", lines[0])
	}
	if lines[1] != ".........XX........." {
		t.Errorf("line 1 = %q", lines[1])
	}

	d := New("Test", "body", Button{Label: "OK"})
	if d.Overlay(bg) != bg {
		t.Error("a hidden dialog should leave the background unchanged")
	}
}

func TestPlaceAt(t *testing.T) {
	bg := "....\n....\n.."
	tests := []struct {
		name string
		x, y int
		want string
	}{
		{"corner", 0, 0, "ab..\ncd..\n.."},
		{"past short line pads", 3, 1, "....\n...ab\n..\u0020cd"},
		{"clipped below", 1, 2, "....\n....\n.ab"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PlaceAt(bg, "ab\ncd", tt.x, tt.y); got != tt.want {
				t.Errorf("PlaceAt(%d, %d) = %q, want %q", tt.x, tt.y, got, tt.want)
			}
		})
	}
}

func TestViewer(t *testing.T) {
	v := NewViewer()
	v.SetSize(80, 30)
	if v.View() != "" {
		t.Fatal("hidden viewer rendered")
	}

	v.Show("agents.notes", "a long value")
	if !v.Visible() || !strings.Contains(v.View(), "a long value") {
		t.Fatal("viewer should show its content")
	}

	v, _ = v.Update(tea.KeyMsg{Type: tea.KeyEscape})
	if v.Visible() {
		t.Error("esc should close the viewer")
	}
}
