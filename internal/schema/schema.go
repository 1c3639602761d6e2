package schema

// Table describes one table of the open database.
type Table struct {
	Name string
	// RowCount is advisory; it is only as fresh as the last table-list load.
	RowCount int64
	Columns  []Column
}

// Column describes one column of a table.
type Column struct {
	Ordinal       int
	Name          string
	Type          string
	Nullable      bool
	Default       *string
	IsPK          bool
	AutoIncrement bool
}

// PrimaryKeys returns the primary-key columns in ordinal order.
func (t Table) PrimaryKeys() []Column {
	var pks []Column
	for _, c := range t.Columns {
		if c.IsPK {
			pks = append(pks, c)
		}
	}
	return pks
}

// PrimaryKeyNames returns the names of the primary-key columns.
func (t Table) PrimaryKeyNames() []string {
	var names []string
	for _, c := range t.Columns {
		if c.IsPK {
			names = append(names, c.Name)
		}
	}
	return names
}

// HasPrimaryKey reports whether rows of t can be targeted by key.
func (t Table) HasPrimaryKey() bool {
	for _, c := range t.Columns {
		if c.IsPK {
			return true
		}
	}
	return false
}

// ColumnNames returns the column names in ordinal order.
func (t Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Column looks up a column by name.
func (t Table) Column(name string) (Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Required reports whether an insert has to supply a value for c.
func (c Column) Required() bool {
	return !c.Nullable && c.Default == nil && !c.AutoIncrement
}

// DefaultText returns the declared default, or "" when there is none.
func (c Column) DefaultText() string {
	if c.Default == nil {
		return ""
	}
	return *c.Default
}

// Find returns the table called name.
func Find(tables []Table, name string) (Table, bool) {
	for _, t := range tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}
