package value

import (
	"bytes"
	"encoding/json"
	"errors"
)

var errNotObject = errors.New("expected a JSON object")

// Pair binds a column name to a value. Ordered slices of pairs carry primary
// key identity, changed columns and insert payloads.
type Pair struct {
	Column string
	Value  Value
}

// Columns returns the column names of pairs, in order.
func Columns(pairs []Pair) []string {
	out := make([]string, len(pairs))
	for i, p := range pairs {
		out[i] = p.Column
	}
	return out
}

// Row is one fetched row: column names in ordinal order and their values.
type Row struct {
	columns []string
	values  []Value
}

// NewRow builds a row. columns and values must have the same length; extra
// entries on either side are dropped.
func NewRow(columns []string, values []Value) Row {
	n := min(len(columns), len(values))
	return Row{
		columns: append([]string(nil), columns[:n]...),
		values:  append([]Value(nil), values[:n]...),
	}
}

func (r Row) Len() int            { return len(r.columns) }
func (r Row) Columns() []string   { return r.columns }
func (r Row) Values() []Value     { return r.values }
func (r Row) At(i int) Value      { return r.values[i] }
func (r Row) Column(i int) string { return r.columns[i] }

// Get returns the value of the named column.
func (r Row) Get(name string) (Value, bool) {
	for i, c := range r.columns {
		if c == name {
			return r.values[i], true
		}
	}
	return Value{}, false
}

// RowOf builds a row from ordered pairs.
func RowOf(pairs []Pair) Row {
	r := Row{columns: make([]string, len(pairs)), values: make([]Value, len(pairs))}
	for i, p := range pairs {
		r.columns[i], r.values[i] = p.Column, p.Value
	}
	return r
}

// Pairs returns the row as ordered pairs.
func (r Row) Pairs() []Pair {
	out := make([]Pair, len(r.columns))
	for i := range r.columns {
		out[i] = Pair{Column: r.columns[i], Value: r.values[i]}
	}
	return out
}

// Select returns the pairs for the given columns in the given order. Columns
// missing from the row are skipped.
func (r Row) Select(names []string) []Pair {
	out := make([]Pair, 0, len(names))
	for _, n := range names {
		if v, ok := r.Get(n); ok {
			out = append(out, Pair{Column: n, Value: v})
		}
	}
	return out
}

// MarshalJSON encodes the row as a JSON object whose keys keep column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := r.values[i].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// DecodeObject decodes a JSON object into pairs, preserving key order as it
// appears in the document.
func DecodeObject(data []byte) ([]Pair, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errNotObject
	}
	var pairs []Pair
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		var v Value
		if err := v.UnmarshalJSON(raw); err != nil {
			return nil, err
		}
		pairs = append(pairs, Pair{Column: key, Value: v})
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return pairs, nil
}
