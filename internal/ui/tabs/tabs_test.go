package tabs

import (
	"strings"
	"testing"

	"github.com/sadopc/tablescope/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

func TestNew(t *testing.T) {
	m := New()
	if m.Active() != Rows {
		t.Fatalf("Active() = %v, want Rows", m.Active())
	}
	if m.View() != "" {
		t.Error("View() before SetSize should be empty")
	}
}

func TestSwitchAndToggle(t *testing.T) {
	m := New()

	cmd := m.Toggle()
	if m.Active() != Console {
		t.Fatalf("Active() after Toggle = %v", m.Active())
	}
	if sw, ok := cmd().(SwitchMsg); !ok || sw.Tab != Console {
		t.Errorf("Toggle cmd = %#v", cmd())
	}

	m.Toggle()
	if m.Active() != Rows {
		t.Errorf("second Toggle left %v active", m.Active())
	}

	m, _ = m.Update(SwitchMsg{Tab: Console})
	if m.Active() != Console {
		t.Errorf("SwitchMsg not applied: %v", m.Active())
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*Model)
		tab      Tab
		want     string
	}{
		{"rows without table", func(*Model) {}, Rows, "Rows"},
		{"rows with table", func(m *Model) { m.SetTable("agents") }, Rows, "Rows: agents"},
		{"console", func(*Model) {}, Console, "Console"},
		{"console modified", func(m *Model) { m.SetModified(true) }, Console, "Console *"},
		{"console running", func(m *Model) { m.SetModified(true); m.SetRunning(true) }, Console, "Console (running)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := New()
			tt.setup(&m)
			if got := m.Title(tt.tab); got != tt.want {
				t.Errorf("Title(%v) = %q, want %q", tt.tab, got, tt.want)
			}
		})
	}
}

func TestView(t *testing.T) {
	m := New()
	m.SetSize(80)
	m.SetTable("agent_runs")
	v := m.View()
	for _, want := range []string{"Rows: agent_runs", "Console"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q:\n%s", want, v)
		}
	}
}

func TestTabString(t *testing.T) {
	if Rows.String() != "Rows" || Console.String() != "Console" {
		t.Errorf("String() = %q, %q", Rows.String(), Console.String())
	}
}
