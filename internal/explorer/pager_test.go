package explorer

import (
	"testing"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/value"
)

func TestPagerFooter(t *testing.T) {
	rows := make([]value.Row, 5)
	tests := []struct {
		name   string
		result *adapter.PagedResult
		want   string
	}{
		{"not loaded", nil, ""},
		{"empty", &adapter.PagedResult{Page: 1, PageSize: 25}, "no rows · page 1 of 1"},
		{"middle page", &adapter.PagedResult{Rows: rows, TotalRows: 120, Page: 2, PageSize: 25, TotalPages: 5}, "rows 26-30 of 120 · page 2 of 5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(25)
			p.result = tt.result
			if got := p.Footer(); got != tt.want {
				t.Errorf("Footer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPagerEmptyLaterPageRetries(t *testing.T) {
	tests := []struct {
		name      string
		page      int
		total     int64
		pages     int
		wantRetry int
	}{
		{"past the end", 4, 30, 2, 2},
		{"count raced the read", 2, 30, 2, 1},
		{"table emptied", 2, 0, 0, 1},
		{"table emptied far out", 5, 0, 0, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPager(25)
			p.Reset("agents")
			_, seq := p.request(tt.page)
			retry, ok := p.apply(msg.PageLoadedMsg{Seq: seq, Result: &adapter.PagedResult{
				Page: tt.page, PageSize: 25, TotalRows: tt.total, TotalPages: tt.pages,
			}})
			if !ok || retry != tt.wantRetry {
				t.Errorf("apply = (%d, %v), want (%d, true)", retry, ok, tt.wantRetry)
			}
			if p.Result() != nil {
				t.Error("an empty later page should not be installed")
			}
		})
	}
}

func TestPagerResetDropsOutstandingReads(t *testing.T) {
	p := NewPager(10)
	p.Reset("agents")
	_, seq := p.request(1)
	p.Reset("logs")

	if _, ok := p.apply(msg.PageLoadedMsg{Seq: seq, Result: &adapter.PagedResult{Table: "agents", Page: 1}}); ok {
		t.Fatal("read issued before Reset was applied")
	}
	if p.fail(msg.PageErrMsg{Seq: seq}) {
		t.Fatal("error from before Reset was applied")
	}
}

func TestSchemaCacheEnsureSelected(t *testing.T) {
	var c SchemaCache
	seq := c.begin()
	c.apply(msg.TablesLoadedMsg{Seq: seq, Tables: newFakeStore(0).tables})

	if !c.EnsureSelected() || c.Selected() != "agents" {
		t.Fatalf("selected = %q", c.Selected())
	}
	if !c.Select("logs") || c.EnsureSelected() {
		t.Fatal("a valid selection should be kept")
	}
	if c.Select("missing") {
		t.Fatal("unknown table selected")
	}

	seq = c.begin()
	c.apply(msg.TablesLoadedMsg{Seq: seq, Tables: newFakeStore(0).tables[:1]})
	if !c.EnsureSelected() || c.Selected() != "agents" {
		t.Fatalf("dropped table should fall back to the first, got %q", c.Selected())
	}
}
