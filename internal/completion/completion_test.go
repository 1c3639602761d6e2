package completion

import (
	"slices"
	"testing"

	"github.com/sadopc/tablescope/internal/schema"
)

func testTables() []schema.Table {
	return []schema.Table{
		{Name: "agents", Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", IsPK: true},
			{Name: "name", Type: "TEXT"},
			{Name: "status", Type: "TEXT"},
		}},
		{Name: "agent_runs", Columns: []schema.Column{
			{Name: "id", Type: "INTEGER", IsPK: true},
			{Name: "agent_id", Type: "INTEGER"},
			{Name: "started_at", Type: "DATETIME"},
		}},
		{Name: "app_settings", Columns: []schema.Column{
			{Name: "key", Type: "TEXT", IsPK: true},
			{Name: "value", Type: "TEXT"},
		}},
	}
}

func newTestEngine() *Engine {
	e := NewEngine("sqlite")
	e.UpdateSchema(testTables())
	return e
}

func labelsOf(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Label
	}
	return out
}

func kindsOf(items []Item) map[Kind]bool {
	out := map[Kind]bool{}
	for _, it := range items {
		out[it.Kind] = true
	}
	return out
}

func TestPrefix(t *testing.T) {
	tests := []struct {
		before, prefix, qualifier string
	}{
		{"SEL", "SEL", ""},
		{"SELECT * FROM ag", "ag", ""},
		{"SELECT a.na", "na", "a"},
		{"SELECT agents.", "", "agents"},
		{"SELECT count(", "", ""},
		{"", "", ""},
	}
	for _, tt := range tests {
		p, q := Prefix(tt.before)
		if p != tt.prefix || q != tt.qualifier {
			t.Errorf("Prefix(%q) = (%q, %q), want (%q, %q)", tt.before, p, q, tt.prefix, tt.qualifier)
		}
	}
}

func TestDetectContext(t *testing.T) {
	tests := []struct {
		before string
		want   contextKind
	}{
		{"SELECT * FROM ", contextTable},
		{"SELECT * FROM a JOIN ", contextTable},
		{"INSERT INTO ", contextTable},
		{"UPDATE ", contextTable},
		{"SELECT ", contextColumn},
		{"SELECT id, ", contextColumn},
		{"SELECT * FROM agents WHERE ", contextColumn},
		{"SELECT * FROM agents ", contextGeneral},
		{"", contextGeneral},
	}
	for _, tt := range tests {
		if got := detectContext(tt.before, ""); got != tt.want {
			t.Errorf("detectContext(%q) = %v, want %v", tt.before, got, tt.want)
		}
	}
}

func TestCompleteTablesAfterFrom(t *testing.T) {
	e := newTestEngine()
	items := e.Complete("SELECT * FROM ag", len("SELECT * FROM ag"))

	got := labelsOf(items)
	if !slices.Contains(got, "agents") || !slices.Contains(got, "agent_runs") {
		t.Errorf("got %v, want both agent tables", got)
	}
	if k := kindsOf(items); k[KindKeyword] || k[KindColumn] {
		t.Errorf("only tables expected after FROM, got kinds %v", k)
	}
}

func TestCompleteColumnsFromQueryTables(t *testing.T) {
	e := newTestEngine()
	text := "SELECT sta FROM agents"
	items := e.Complete(text, len("SELECT sta"))

	if len(items) == 0 || items[0].Label != "status" || items[0].Kind != KindColumn {
		t.Errorf("first suggestion = %+v, want status column", items)
	}
}

func TestCompleteQualifiedColumns(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"table name", "SELECT agent_runs.", []string{"id", "agent_id", "started_at"}},
		{"alias", "SELECT r. FROM agent_runs r", []string{"id", "agent_id", "started_at"}},
		{"alias with AS and prefix", "SELECT s.va FROM app_settings AS s", []string{"value"}},
		{"unknown", "SELECT nope.", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cursor := len(tt.text)
			if i := indexOfDotEnd(tt.text); i > 0 {
				cursor = i
			}
			got := labelsOf(e.Complete(tt.text, cursor))
			if !slices.Equal(got, tt.want) {
				t.Errorf("Complete(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

// indexOfDotEnd puts the cursor at the end of the first qualified word.
func indexOfDotEnd(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] == '.' {
			j := i + 1
			for j < len(text) && text[j] != ' ' {
				j++
			}
			return j
		}
	}
	return -1
}

func TestCompleteKeywordsCaseInsensitive(t *testing.T) {
	e := newTestEngine()
	got := labelsOf(e.Complete("sel", 3))
	if len(got) == 0 || got[0] != "SELECT" {
		t.Errorf("Complete(sel) = %v, want SELECT first", got)
	}
	if !slices.Contains(labelsOf(e.Complete("pra", 3)), "PRAGMA") {
		t.Error("sqlite keywords missing")
	}
}

func TestNoCompletionInsideString(t *testing.T) {
	e := newTestEngine()
	if items := e.Complete("SELECT * FROM agents WHERE name = 'ag", 38); items != nil {
		t.Errorf("got %v inside a string literal", labelsOf(items))
	}
}

func TestEmptyPrefixIsCapped(t *testing.T) {
	e := newTestEngine()
	if n := len(e.Complete("", 0)); n == 0 || n > maxItems {
		t.Errorf("got %d items, want 1..%d", n, maxItems)
	}
}

func TestUpdateSchemaReplaces(t *testing.T) {
	e := newTestEngine()
	e.UpdateSchema([]schema.Table{{Name: "agents"}})
	if got := labelsOf(e.Complete("SELECT * FROM ", 14)); !slices.Equal(got, []string{"agents"}) {
		t.Errorf("tables after update = %v", got)
	}
}

func TestKeywordsForDialect(t *testing.T) {
	if !slices.Contains(KeywordsForDialect("postgres"), "ILIKE") {
		t.Error("postgres keywords missing ILIKE")
	}
	if slices.Contains(KeywordsForDialect("sqlite"), "ILIKE") {
		t.Error("sqlite keywords should not include ILIKE")
	}
	if len(KeywordsForDialect("unknown")) != len(commonKeywords) {
		t.Error("unknown drivers get the common list")
	}
}
