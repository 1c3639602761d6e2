// Package sqlgen builds the parameterised statements the storage adapters
// run on behalf of the explorer. Identifiers are always quoted and values
// are always bound, never interpolated.
package sqlgen

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

// ErrNoKey is returned when an update or delete has no key columns.
var ErrNoKey = errors.New("sqlgen: no key columns")

// ErrNoChanges is returned when an update has nothing to set.
var ErrNoChanges = errors.New("sqlgen: no columns to set")

// likeEscape is the LIKE escape character. '!' needs no escaping inside a
// string literal in any supported dialect, unlike a backslash in MySQL.
const likeEscape = '!'

// Dialect captures the syntax differences between the supported databases.
type Dialect struct {
	Name string
	// IdentQuote wraps identifiers; embedded quotes are doubled.
	IdentQuote string
	// Numbered selects $1-style placeholders instead of '?'.
	Numbered bool
	// TextType is the type every column is cast to for searching.
	TextType string
	// Like is the case-insensitive pattern operator.
	Like string
	// EmptyInsert follows "INSERT INTO t" when no column is supplied.
	EmptyInsert string
	// FallbackOrder orders tables that have no primary key. When empty, such
	// tables are ordered by all their columns.
	FallbackOrder string
	// DropCascade appends CASCADE to DROP TABLE.
	DropCascade bool
}

var (
	SQLite = Dialect{
		Name:          "sqlite",
		IdentQuote:    `"`,
		TextType:      "TEXT",
		Like:          "LIKE",
		EmptyInsert:   "DEFAULT VALUES",
		FallbackOrder: "rowid",
	}
	Postgres = Dialect{
		Name:          "postgres",
		IdentQuote:    `"`,
		Numbered:      true,
		TextType:      "TEXT",
		Like:          "ILIKE",
		EmptyInsert:   "DEFAULT VALUES",
		FallbackOrder: "ctid",
		DropCascade:   true,
	}
	MySQL = Dialect{
		Name:        "mysql",
		IdentQuote:  "`",
		TextType:    "CHAR",
		Like:        "LIKE",
		EmptyInsert: "() VALUES ()",
	}
	DuckDB = Dialect{
		Name:          "duckdb",
		IdentQuote:    `"`,
		TextType:      "VARCHAR",
		Like:          "ILIKE",
		EmptyInsert:   "DEFAULT VALUES",
		FallbackOrder: "rowid",
	}
)

// Quote quotes an identifier.
func (d Dialect) Quote(ident string) string {
	q := d.IdentQuote
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

// builder accumulates SQL text and bound arguments.
type builder struct {
	d    Dialect
	sb   strings.Builder
	args []any
}

func (b *builder) write(parts ...string) {
	for _, p := range parts {
		b.sb.WriteString(p)
	}
}

// bind appends an argument and returns its placeholder.
func (b *builder) bind(v any) string {
	b.args = append(b.args, v)
	if b.d.Numbered {
		return "$" + strconv.Itoa(len(b.args))
	}
	return "?"
}

func (b *builder) where(t schema.Table, search string) {
	if search == "" || len(t.Columns) == 0 {
		return
	}
	pattern := "%" + escapeLike(search) + "%"
	var shared string
	if b.d.Numbered {
		shared = b.bind(pattern)
	}
	b.write(" WHERE (")
	for i, c := range t.Columns {
		if i > 0 {
			b.write(" OR ")
		}
		ph := shared
		if ph == "" {
			ph = b.bind(pattern)
		}
		b.write("CAST(", b.d.Quote(c.Name), " AS ", b.d.TextType, ") ", b.d.Like, " ", ph,
			" ESCAPE '", string(likeEscape), "'")
	}
	b.write(")")
}

func (b *builder) match(pk []value.Pair) {
	b.write(" WHERE ")
	for i, p := range pk {
		if i > 0 {
			b.write(" AND ")
		}
		if p.Value.IsNull() {
			b.write(b.d.Quote(p.Column), " IS NULL")
			continue
		}
		b.write(b.d.Quote(p.Column), " = ", b.bind(p.Value.Arg()))
	}
}

func escapeLike(s string) string {
	var sb strings.Builder
	for _, r := range s {
		if r == '%' || r == '_' || r == likeEscape {
			sb.WriteRune(likeEscape)
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Select builds the page query for t.
func (d Dialect) Select(t schema.Table, search string, limit, offset int) (string, []any) {
	b := &builder{d: d}
	b.write("SELECT ")
	if len(t.Columns) == 0 {
		b.write("*")
	}
	for i, c := range t.Columns {
		if i > 0 {
			b.write(", ")
		}
		b.write(d.Quote(c.Name))
	}
	b.write(" FROM ", d.Quote(t.Name))
	b.where(t, search)

	var order []string
	for _, name := range t.PrimaryKeyNames() {
		order = append(order, d.Quote(name))
	}
	switch {
	case len(order) > 0:
	case d.FallbackOrder != "":
		order = append(order, d.FallbackOrder)
	default:
		// Keyless table on a dialect with no row id: every column, in
		// ordinal order.
		for _, c := range t.Columns {
			order = append(order, d.Quote(c.Name))
		}
	}
	if len(order) > 0 {
		b.write(" ORDER BY ", strings.Join(order, ", "))
	}
	if limit > 0 {
		b.write(" LIMIT ", strconv.Itoa(limit))
	}
	if offset > 0 {
		b.write(" OFFSET ", strconv.Itoa(offset))
	}
	return b.sb.String(), b.args
}

// Count builds the row count query for t under the same search filter as
// Select.
func (d Dialect) Count(t schema.Table, search string) (string, []any) {
	b := &builder{d: d}
	b.write("SELECT COUNT(*) FROM ", d.Quote(t.Name))
	b.where(t, search)
	return b.sb.String(), b.args
}

// Insert builds an insert of values. Columns absent from values are left
// to the table's defaults.
func (d Dialect) Insert(table string, values []value.Pair) (string, []any) {
	b := &builder{d: d}
	b.write("INSERT INTO ", d.Quote(table))
	if len(values) == 0 {
		b.write(" ", d.EmptyInsert)
		return b.sb.String(), b.args
	}
	cols := make([]string, len(values))
	phs := make([]string, len(values))
	for i, p := range values {
		cols[i] = d.Quote(p.Column)
		phs[i] = b.bind(p.Value.Arg())
	}
	b.write(" (", strings.Join(cols, ", "), ") VALUES (", strings.Join(phs, ", "), ")")
	return b.sb.String(), b.args
}

// Update builds an update of changes on the row identified by pk.
func (d Dialect) Update(table string, pk, changes []value.Pair) (string, []any, error) {
	if len(pk) == 0 {
		return "", nil, ErrNoKey
	}
	if len(changes) == 0 {
		return "", nil, ErrNoChanges
	}
	b := &builder{d: d}
	b.write("UPDATE ", d.Quote(table), " SET ")
	for i, p := range changes {
		if i > 0 {
			b.write(", ")
		}
		b.write(d.Quote(p.Column), " = ", b.bind(p.Value.Arg()))
	}
	b.match(pk)
	return b.sb.String(), b.args, nil
}

// Delete builds a delete of the row identified by pk.
func (d Dialect) Delete(table string, pk []value.Pair) (string, []any, error) {
	if len(pk) == 0 {
		return "", nil, ErrNoKey
	}
	b := &builder{d: d}
	b.write("DELETE FROM ", d.Quote(table))
	b.match(pk)
	return b.sb.String(), b.args, nil
}

// DropTable builds a DROP TABLE IF EXISTS statement.
func (d Dialect) DropTable(table string) string {
	s := "DROP TABLE IF EXISTS " + d.Quote(table)
	if d.DropCascade {
		s += " CASCADE"
	}
	return s
}
