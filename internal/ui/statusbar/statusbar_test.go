package statusbar

import (
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/sadopc/tablescope/internal/adapter"
	appmsg "github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

// namedStore answers the two Store methods the status bar reads.
type namedStore struct {
	adapter.Store
	driver, db string
}

func (s namedStore) DriverName() string   { return s.driver }
func (s namedStore) DatabaseName() string { return s.db }

func TestConnectShowsDatabase(t *testing.T) {
	m := New()
	m.SetSize(100)
	if !strings.Contains(m.View(), "not connected") {
		t.Error("expected not connected before ConnectMsg")
	}
	m, _ = m.Update(appmsg.ConnectMsg{Store: namedStore{driver: "sqlite", db: "app.db"}})
	if !strings.Contains(m.View(), "sqlite://app.db") {
		t.Errorf("view = %q", m.View())
	}
}

func TestNotifyAndClear(t *testing.T) {
	m := New()
	m.SetSize(120)

	m, cmd := m.Update(appmsg.NotifyMsg{Text: "Row inserted into agents", Kind: appmsg.NotifySuccess})
	if cmd == nil {
		t.Fatal("notification should schedule its clear")
	}
	if text, kind := m.Message(); text != "Row inserted into agents" || kind != appmsg.NotifySuccess {
		t.Errorf("Message() = %q, %v", text, kind)
	}
	if !strings.Contains(m.View(), "Row inserted into agents") {
		t.Error("view missing notification")
	}

	m, _ = m.Update(appmsg.NotifyMsg{Text: "UNIQUE constraint failed", Kind: appmsg.NotifyError})

	// The clear scheduled for the first notification must not hide the second.
	m, _ = m.Update(ClearStatusMsg{Gen: 1})
	if text, _ := m.Message(); text != "UNIQUE constraint failed" {
		t.Errorf("stale clear removed the newer message: %q", text)
	}
	m, _ = m.Update(ClearStatusMsg{Gen: 2})
	if text, _ := m.Message(); text != "" {
		t.Errorf("message not cleared: %q", text)
	}
}

func TestHintsWhenIdle(t *testing.T) {
	m := New()
	m.SetSize(120)
	m.SetHints("e edit · n new · d delete")
	m.SetPane(appmsg.PaneResults)
	m.SetKeyMode(appmsg.KeyModeVim)

	v := m.View()
	for _, want := range []string{"e edit", "results · vim"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q: %q", want, v)
		}
	}
}

func TestSpinner(t *testing.T) {
	m := New()
	m.SetSize(100)

	if cmd := m.SetBusy("loading page"); cmd == nil {
		t.Fatal("first SetBusy should start the spinner")
	}
	if cmd := m.SetBusy("loading tables"); cmd != nil {
		t.Error("spinner already running; no second tick")
	}
	if !strings.Contains(m.View(), "loading tables") {
		t.Error("busy label missing")
	}

	m.SetBusy("")
	if _, cmd := m.Update(spinner.TickMsg{}); cmd != nil {
		t.Error("idle spinner kept ticking")
	}
}

func TestZeroWidth(t *testing.T) {
	if New().View() != "" {
		t.Error("zero-width bar should render nothing")
	}
}
