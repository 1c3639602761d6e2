// Package completion suggests keywords, table names and column names for
// the console editor, using the table list the explorer already loaded.
package completion

import (
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/sahilm/fuzzy"

	"github.com/sadopc/tablescope/internal/schema"
)

// Kind classifies a suggestion.
type Kind int

const (
	KindKeyword Kind = iota
	KindFunction
	KindTable
	KindColumn
)

// Icon is the one-letter marker shown next to a suggestion.
func (k Kind) Icon() string {
	switch k {
	case KindTable:
		return "T"
	case KindColumn:
		return "C"
	case KindFunction:
		return "F"
	default:
		return "K"
	}
}

// Item is one suggestion.
type Item struct {
	Label  string
	Kind   Kind
	Detail string
}

// maxItems caps the number of suggestions returned.
const maxItems = 50

// Engine produces suggestions. It is safe for concurrent use.
type Engine struct {
	mu        sync.RWMutex
	tables    []string
	columns   map[string][]schema.Column // lower-cased table name -> columns
	keywords  []string
	functions []string
}

// NewEngine creates an engine with the keyword list of driver.
func NewEngine(driver string) *Engine {
	return &Engine{
		columns:   map[string][]schema.Column{},
		keywords:  KeywordsForDialect(driver),
		functions: FunctionsForDialect(driver),
	}
}

// UpdateSchema replaces the known tables.
func (e *Engine) UpdateSchema(tables []schema.Table) {
	names := make([]string, 0, len(tables))
	cols := make(map[string][]schema.Column, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
		cols[strings.ToLower(t.Name)] = t.Columns
	}
	sort.Strings(names)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.tables = names
	e.columns = cols
}

// Complete returns suggestions for the word ending at cursor (a byte offset
// into text).
func (e *Engine) Complete(text string, cursor int) []Item {
	cursor = min(max(cursor, 0), len(text))
	before := text[:cursor]
	if insideStringLiteral(before) {
		return nil
	}

	prefix, qualifier := Prefix(before)
	if qualifier != "" {
		return rank(prefix, e.columnsOf(resolveAlias(text, qualifier)))
	}

	var items []Item
	switch detectContext(before, prefix) {
	case contextTable:
		items = e.tableItems()
	case contextColumn:
		for _, t := range fromTables(text) {
			items = append(items, e.columnsOf(t)...)
		}
		items = append(items, e.tableItems()...)
		items = append(items, e.functionItems()...)
	default:
		items = append(items, e.keywordItems()...)
		items = append(items, e.tableItems()...)
		items = append(items, e.functionItems()...)
	}
	return rank(prefix, items)
}

type contextKind int

const (
	contextGeneral contextKind = iota
	contextTable
	contextColumn
)

var tableKeywords = map[string]bool{
	"FROM": true, "JOIN": true, "INTO": true, "UPDATE": true, "TABLE": true,
}

var columnKeywords = map[string]bool{
	"SELECT": true, "WHERE": true, "SET": true, "ON": true,
	"AND": true, "OR": true, "HAVING": true, "BY": true,
}

// detectContext classifies the word being typed by the keyword before it.
// After a comma it walks back to the keyword that opened the list.
func detectContext(before, prefix string) contextKind {
	tokens := strings.Fields(before[:len(before)-len(prefix)])
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := strings.ToUpper(tokens[i])
		switch {
		case tableKeywords[tok]:
			return contextTable
		case columnKeywords[tok]:
			return contextColumn
		case i == len(tokens)-1 && !strings.HasSuffix(tok, ","):
			return contextGeneral
		}
	}
	return contextGeneral
}

// Prefix returns the identifier being typed at the end of before, and the
// table or alias it is qualified with. For "a.na" it returns ("na", "a").
func Prefix(before string) (prefix, qualifier string) {
	start := strings.LastIndexFunc(before, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '.')
	})
	word := before[start+1:]
	if dot := strings.LastIndex(word, "."); dot >= 0 {
		return word[dot+1:], word[:dot]
	}
	return word, ""
}

// insideStringLiteral reports whether before ends inside a '...' literal.
func insideStringLiteral(before string) bool {
	return strings.Count(before, "'")%2 == 1
}

var (
	fromRe = regexp.MustCompile(`(?i)\b(?:FROM|JOIN|UPDATE|INTO)\s+["` + "`" + `]?(\w+)["` + "`" + `]?(?:\s+(?:AS\s+)?(\w+))?`)
)

// fromTables lists the tables named after FROM, JOIN, UPDATE or INTO.
func fromTables(text string) []string {
	var out []string
	seen := map[string]bool{}
	for _, m := range fromRe.FindAllStringSubmatch(text, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	return out
}

// resolveAlias maps an alias declared as "FROM agents a" back to its table.
func resolveAlias(text, name string) string {
	for _, m := range fromRe.FindAllStringSubmatch(text, -1) {
		if m[2] != "" && strings.EqualFold(m[2], name) && !isKeyword(m[2]) {
			return m[1]
		}
	}
	return name
}

func isKeyword(s string) bool {
	u := strings.ToUpper(s)
	return tableKeywords[u] || columnKeywords[u] || u == "WHERE" || u == "LEFT" ||
		u == "INNER" || u == "ORDER" || u == "GROUP" || u == "LIMIT" || u == "VALUES"
}

func (e *Engine) columnsOf(table string) []Item {
	e.mu.RLock()
	cols := e.columns[strings.ToLower(table)]
	e.mu.RUnlock()

	items := make([]Item, 0, len(cols))
	for _, c := range cols {
		detail := strings.ToLower(c.Type)
		if c.IsPK {
			detail += " pk"
		}
		items = append(items, Item{Label: c.Name, Kind: KindColumn, Detail: table + " · " + strings.TrimSpace(detail)})
	}
	return items
}

func (e *Engine) tableItems() []Item {
	e.mu.RLock()
	defer e.mu.RUnlock()
	items := make([]Item, len(e.tables))
	for i, t := range e.tables {
		items[i] = Item{Label: t, Kind: KindTable, Detail: "table"}
	}
	return items
}

func (e *Engine) keywordItems() []Item {
	items := make([]Item, len(e.keywords))
	for i, kw := range e.keywords {
		items[i] = Item{Label: kw, Kind: KindKeyword, Detail: "keyword"}
	}
	return items
}

func (e *Engine) functionItems() []Item {
	items := make([]Item, len(e.functions))
	for i, fn := range e.functions {
		items[i] = Item{Label: fn, Kind: KindFunction, Detail: "function"}
	}
	return items
}

// labels adapts items to fuzzy.Source, matching case-insensitively.
type labels []Item

func (l labels) String(i int) string { return strings.ToLower(l[i].Label) }
func (l labels) Len() int            { return len(l) }

// rank keeps the items matching prefix, best match first. An empty prefix
// keeps everything in its original order.
func rank(prefix string, items []Item) []Item {
	if prefix == "" {
		return items[:min(len(items), maxItems)]
	}
	matches := fuzzy.FindFrom(strings.ToLower(prefix), labels(items))
	out := make([]Item, 0, min(len(matches), maxItems))
	for _, m := range matches {
		if len(out) == maxItems {
			break
		}
		out = append(out, items[m.Index])
	}
	return out
}
