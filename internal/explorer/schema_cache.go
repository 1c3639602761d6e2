package explorer

import (
	"github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/schema"
)

// SchemaCache holds the table list and the selected table name.
type SchemaCache struct {
	tables   []schema.Table
	selected string

	seq     uint64
	loading bool
	err     error
}

func (c *SchemaCache) Tables() []schema.Table { return c.tables }
func (c *SchemaCache) Selected() string       { return c.selected }
func (c *SchemaCache) Loading() bool          { return c.loading }
func (c *SchemaCache) Err() error             { return c.err }

// Table returns the cached descriptor of name.
func (c *SchemaCache) Table(name string) (schema.Table, bool) {
	return schema.Find(c.tables, name)
}

// SelectedTable returns the descriptor of the selected table.
func (c *SchemaCache) SelectedTable() (schema.Table, bool) {
	if c.selected == "" {
		return schema.Table{}, false
	}
	return c.Table(c.selected)
}

// EnsureSelected selects the first table when nothing valid is selected. It
// reports whether the selection changed.
func (c *SchemaCache) EnsureSelected() bool {
	if c.selected != "" {
		if _, ok := c.Table(c.selected); ok {
			return false
		}
	}
	next := ""
	if len(c.tables) > 0 {
		next = c.tables[0].Name
	}
	changed := next != c.selected
	c.selected = next
	return changed
}

// Select makes name the selected table. Names not in the list are ignored.
func (c *SchemaCache) Select(name string) bool {
	if name == c.selected {
		return false
	}
	if _, ok := c.Table(name); !ok {
		return false
	}
	c.selected = name
	return true
}

// Clear drops the list and the selection.
func (c *SchemaCache) Clear() {
	c.tables = nil
	c.selected = ""
	c.err = nil
}

// begin marks a load in flight and returns its sequence number.
func (c *SchemaCache) begin() uint64 {
	c.seq++
	c.loading = true
	return c.seq
}

// apply replaces the list with a completed load. Responses from loads that
// have since been superseded are dropped.
func (c *SchemaCache) apply(m msg.TablesLoadedMsg) bool {
	if m.Seq != c.seq {
		return false
	}
	c.tables = m.Tables
	c.loading = false
	c.err = nil
	return true
}

// fail records a failed load. The previous list is kept whole.
func (c *SchemaCache) fail(m msg.TablesErrMsg) bool {
	if m.Seq != c.seq {
		return false
	}
	c.loading = false
	c.err = m.Err
	return true
}
