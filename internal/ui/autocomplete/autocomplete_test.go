package autocomplete

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sadopc/tablescope/internal/completion"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

func newModel() Model {
	e := completion.NewEngine("sqlite")
	e.UpdateSchema([]schema.Table{
		{Name: "agents", Columns: []schema.Column{{Name: "id"}, {Name: "name"}}},
		{Name: "agent_runs"},
	})
	return New(e)
}

func TestTriggerShowsSuggestions(t *testing.T) {
	m := newModel()
	text := "SELECT * FROM age"
	m.Trigger(text, len(text))
	if !m.Visible() || len(m.Items()) == 0 {
		t.Fatal("expected suggestions after FROM")
	}
	if !strings.Contains(m.View(), "agents") {
		t.Error("view missing agents")
	}
}

func TestTriggerWithNothingStaysHidden(t *testing.T) {
	m := newModel()
	text := "SELECT 'ag"
	m.Trigger(text, len(text))
	if m.Visible() {
		t.Error("popup shown inside a string literal")
	}
}

func TestSelectInsertsRemainder(t *testing.T) {
	m := newModel()
	text := "SELECT * FROM agents WHERE na"
	m.Trigger(text, len(text))

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter produced no command")
	}
	if sel := cmd().(SelectedMsg); sel != (SelectedMsg{Text: "me"}) {
		t.Errorf("edit = %+v, want insert of %q", sel, "me")
	}
	if m.Visible() {
		t.Error("popup should close after a choice")
	}
}

func TestNavigationAndDismiss(t *testing.T) {
	m := newModel()
	m.Trigger("", 0)
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	if m.selected != 1 {
		t.Errorf("selected = %d, want 1", m.selected)
	}

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.Visible() {
		t.Error("esc should hide the popup")
	}
	if _, ok := cmd().(DismissMsg); !ok {
		t.Error("esc should send DismissMsg")
	}
}

func TestCompleteFrom(t *testing.T) {
	tests := []struct {
		prefix, label string
		want          SelectedMsg
	}{
		{"sel", "SELECT", SelectedMsg{Text: "ect"}},
		{"SEL", "SELECT", SelectedMsg{Text: "ECT"}},
		{"age", "agents", SelectedMsg{Text: "nts"}},
		{"", "agents", SelectedMsg{Text: "agents"}},
		{"gnt", "agents", SelectedMsg{Text: "agents", Replace: 3}},
	}
	for _, tt := range tests {
		if got := completeFrom(tt.prefix, tt.label); got != tt.want {
			t.Errorf("completeFrom(%q, %q) = %+v, want %+v", tt.prefix, tt.label, got, tt.want)
		}
	}
}
