package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func openTest(t *testing.T, maxEntries int) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"), maxEntries)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func addAll(t *testing.T, h *History, statements ...string) {
	t.Helper()
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, s := range statements {
		if err := h.Add(Entry{
			Statement:  s,
			Driver:     "sqlite",
			Database:   "app.db",
			ExecutedAt: base.Add(time.Duration(i) * time.Minute),
			DurationMS: int64(10 * (i + 1)),
			RowCount:   int64(i + 1),
		}); err != nil {
			t.Fatalf("Add(%q) error = %v", s, err)
		}
	}
}

func statements(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Statement
	}
	return out
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.db")
	h, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer h.Close()

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("history file not created: %v", err)
	}
	entries, err := h.Recent(10)
	if err != nil || len(entries) != 0 {
		t.Fatalf("Recent() on new DB = %v, %v", entries, err)
	}
}

func TestAddAndRecent(t *testing.T) {
	h := openTest(t, 0)
	addAll(t, h, "SELECT 1", "SELECT 2", "SELECT 3", "SELECT 4")

	entries, err := h.Recent(3)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := statements(entries), []string{"SELECT 4", "SELECT 3", "SELECT 2"}; !equal(got, want) {
		t.Errorf("Recent(3) = %v, want %v", got, want)
	}
	e := entries[0]
	if e.Driver != "sqlite" || e.Database != "app.db" || e.DurationMS != 40 || e.RowCount != 4 || e.Failed() {
		t.Errorf("entry fields = %+v", e)
	}
}

func TestSearch(t *testing.T) {
	h := openTest(t, 0)
	addAll(t, h,
		"SELECT * FROM agents",
		"DELETE FROM agent_runs",
		"SELECT * FROM app_settings",
		"UPDATE agents SET name = 'x'",
	)

	tests := []struct {
		term string
		want []string
	}{
		{"agents", []string{"UPDATE agents SET name = 'x'", "SELECT * FROM agents"}},
		{"agent_", []string{"DELETE FROM agent_runs"}},
		{"100%", nil},
		{"", []string{"UPDATE agents SET name = 'x'", "SELECT * FROM app_settings", "DELETE FROM agent_runs", "SELECT * FROM agents"}},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			entries, err := h.Search(tt.term, 10)
			if err != nil {
				t.Fatal(err)
			}
			if got := statements(entries); !equal(got, tt.want) {
				t.Errorf("Search(%q) = %v, want %v", tt.term, got, tt.want)
			}
		})
	}
}

func TestMaxEntriesTrimsOldest(t *testing.T) {
	h := openTest(t, 2)
	addAll(t, h, "SELECT 1", "SELECT 2", "SELECT 3")

	entries, err := h.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if got, want := statements(entries), []string{"SELECT 3", "SELECT 2"}; !equal(got, want) {
		t.Errorf("Recent() = %v, want %v", got, want)
	}
}

func TestErrorEntries(t *testing.T) {
	h := openTest(t, 0)
	if err := h.Add(Entry{Statement: "SELEC 1", Error: `near "SELEC": syntax error`}); err != nil {
		t.Fatal(err)
	}

	entries, err := h.Recent(1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || !entries[0].Failed() || entries[0].ExecutedAt.IsZero() {
		t.Errorf("entry = %+v", entries)
	}
}

func TestClear(t *testing.T) {
	h := openTest(t, 0)
	addAll(t, h, "SELECT 1", "SELECT 2")

	if err := h.Clear(); err != nil {
		t.Fatal(err)
	}
	entries, err := h.Recent(10)
	if err != nil || len(entries) != 0 {
		t.Errorf("after Clear: %v, %v", entries, err)
	}
}

func TestCloseAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	addAll(t, h, "SELECT 'kept'")
	if err := h.Close(); err != nil {
		t.Fatal(err)
	}

	h2, err := Open(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer h2.Close()
	entries, err := h2.Recent(10)
	if err != nil || len(entries) != 1 || entries[0].Statement != "SELECT 'kept'" {
		t.Errorf("after reopen: %v, %v", entries, err)
	}
}
