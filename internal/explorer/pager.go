package explorer

import (
	"fmt"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/msg"
)

// Pager tracks the page window and search term of the selected table.
// Reads are fenced by sequence number: only the response to the latest
// issued read is applied.
type Pager struct {
	table    string
	page     int
	pageSize int
	search   string

	result  *adapter.PagedResult
	seq     uint64
	loading bool
	err     error
}

// NewPager returns a pager with the given page size.
func NewPager(pageSize int) Pager {
	if pageSize <= 0 {
		pageSize = 25
	}
	return Pager{page: 1, pageSize: pageSize}
}

func (p *Pager) Table() string                { return p.table }
func (p *Pager) Page() int                    { return p.page }
func (p *Pager) PageSize() int                { return p.pageSize }
func (p *Pager) Search() string               { return p.search }
func (p *Pager) Result() *adapter.PagedResult { return p.result }
func (p *Pager) Loading() bool                { return p.loading }
func (p *Pager) Err() error                   { return p.err }

// TotalPages is the page count of the last applied result.
func (p *Pager) TotalPages() int {
	if p.result == nil {
		return 0
	}
	return p.result.TotalPages
}

// Reset points the pager at table, back on page 1 with no search term and
// no result.
func (p *Pager) Reset(table string) {
	p.table = table
	p.page = 1
	p.search = ""
	p.result = nil
	p.err = nil
	// Outstanding reads belong to the old table.
	p.seq++
	p.loading = false
}

// SetSearch changes the search term. A new term always moves back to
// page 1. It reports whether the term changed.
func (p *Pager) SetSearch(term string) bool {
	if term == p.search {
		return false
	}
	p.search = term
	p.page = 1
	return true
}

// Clamp bounds page to [1, max(TotalPages, 1)].
func (p *Pager) Clamp(page int) int {
	return adapter.ClampPage(page, p.TotalPages())
}

// request issues a read of page and returns it with its sequence number.
func (p *Pager) request(page int) (adapter.ReadRequest, uint64) {
	if page < 1 {
		page = 1
	}
	p.page = page
	p.seq++
	p.loading = true
	return adapter.ReadRequest{
		Table:    p.table,
		Page:     page,
		PageSize: p.pageSize,
		Search:   p.search,
	}, p.seq
}

// apply installs a completed read. When a page after the first came back
// empty, it returns the page to request instead: the clamped last page, or
// page 1 when the table is now empty.
func (p *Pager) apply(m msg.PageLoadedMsg) (retry int, ok bool) {
	if m.Seq != p.seq || m.Result == nil {
		return 0, false
	}
	r := m.Result
	if len(r.Rows) == 0 && r.Page > 1 {
		retry := adapter.ClampPage(r.Page, r.TotalPages)
		if retry >= r.Page {
			retry = r.Page - 1
		}
		return retry, true
	}
	p.loading = false
	p.err = nil
	p.result = r
	p.page = r.Page
	return 0, true
}

// fail records a failed read; the previous result stays visible.
func (p *Pager) fail(m msg.PageErrMsg) bool {
	if m.Seq != p.seq {
		return false
	}
	p.loading = false
	p.err = m.Err
	return true
}

// Footer describes the visible window, e.g. "rows 26-50 of 120 · page 2 of 5".
func (p *Pager) Footer() string {
	r := p.result
	if r == nil {
		return ""
	}
	if r.TotalRows == 0 {
		return "no rows · page 1 of 1"
	}
	return fmt.Sprintf("rows %d-%d of %d · page %d of %d",
		r.FirstRow(), r.LastRow(), r.TotalRows, r.Page, max(r.TotalPages, 1))
}
