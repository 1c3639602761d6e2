// Package value holds the dynamically typed cell values and rows that flow
// between the storage adapters and the explorer. Nothing here knows a table's
// shape ahead of time: a row is an ordered list of column names with a tagged
// scalar per column.
package value

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"math"
	"strconv"
)

// Kind tags the variant held by a Value.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindBlob
	KindJSON
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBlob:
		return "blob"
	case KindJSON:
		return "json"
	default:
		return "unknown"
	}
}

// Value is a single cell. The zero Value is NULL.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string // KindString, or the compact JSON text for KindJSON
	raw  []byte
}

// Null returns the NULL value.
func Null() Value { return Value{} }

// Bool wraps a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Int wraps an integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Float wraps a floating point number.
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }

// String wraps text.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Blob wraps binary data. The slice is copied.
func Blob(b []byte) Value {
	return Value{kind: KindBlob, raw: append([]byte(nil), b...)}
}

// JSON wraps an embedded structured value. raw must be valid JSON; it is
// stored compacted so two equal documents compare equal.
func JSON(raw []byte) (Value, error) {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return Value{}, err
	}
	return Value{kind: KindJSON, s: buf.String()}, nil
}

func (v Value) Kind() Kind       { return v.kind }
func (v Value) IsNull() bool     { return v.kind == KindNull }
func (v Value) AsBool() bool     { return v.b }
func (v Value) AsInt() int64     { return v.i }
func (v Value) AsFloat() float64 { return v.f }

// Bytes returns the blob contents, or nil for other kinds.
func (v Value) Bytes() []byte { return v.raw }

// Text returns the string payload for KindString and KindJSON.
func (v Value) Text() string { return v.s }

// String stringifies the value. NULL becomes "NULL"; callers that need the
// explorer's null marker use the cell package instead.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return FormatFloat(v.f)
	case KindString, KindJSON:
		return v.s
	case KindBlob:
		return `\x` + hex.EncodeToString(v.raw)
	}
	return ""
}

// FormatFloat renders a float without exponent notation for everyday
// magnitudes and falls back to the shortest exponent form otherwise.
func FormatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case math.IsNaN(f):
		return "NaN"
	}
	abs := math.Abs(f)
	if abs == 0 || (abs >= 1e-6 && abs < 1e21) {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// Arg converts the value into a database/sql compatible argument.
func (v Value) Arg() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindInt:
		return v.i
	case KindFloat:
		return v.f
	case KindString, KindJSON:
		return v.s
	case KindBlob:
		return v.raw
	}
	return nil
}

// Equal reports whether two values have the same kind and payload.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBool:
		return v.b == o.b
	case KindInt:
		return v.i == o.i
	case KindFloat:
		return v.f == o.f || (math.IsNaN(v.f) && math.IsNaN(o.f))
	case KindString, KindJSON:
		return v.s == o.s
	case KindBlob:
		return bytes.Equal(v.raw, o.raw)
	}
	return false
}

// MarshalJSON encodes the value as its natural JSON counterpart. Blobs are
// encoded as their \x hex text.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindBool:
		return json.Marshal(v.b)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		if math.IsInf(v.f, 0) || math.IsNaN(v.f) {
			return json.Marshal(FormatFloat(v.f))
		}
		return json.Marshal(v.f)
	case KindJSON:
		return []byte(v.s), nil
	default:
		return json.Marshal(v.String())
	}
}

// UnmarshalJSON decodes a JSON scalar or document. Numbers without a
// fraction or exponent become KindInt.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*v = FromAny(raw)
	return nil
}
