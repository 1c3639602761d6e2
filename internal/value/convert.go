package value

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// FromAny converts a decoded JSON value or a plain Go scalar into a Value.
// Maps and slices become KindJSON.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		if x > math.MaxInt64 {
			return String(strconv.FormatUint(x, 10))
		}
		return Int(int64(x))
	case float32:
		return Float(float64(x))
	case float64:
		return Float(x)
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return Int(i)
		}
		if f, err := x.Float64(); err == nil {
			return Float(f)
		}
		return String(x.String())
	case string:
		return String(x)
	case []byte:
		if utf8.Valid(x) {
			return String(string(x))
		}
		return Blob(x)
	case time.Time:
		return String(formatTime(x))
	case map[string]any, []any:
		raw, err := json.Marshal(x)
		if err != nil {
			return String(fmt.Sprint(x))
		}
		out, _ := JSON(raw)
		return out
	case json.RawMessage:
		if out, err := JSON(x); err == nil {
			return out
		}
		return String(string(x))
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return String(fmt.Sprint(x))
		}
		return FromAny(dv)
	case fmt.Stringer:
		return String(x.String())
	}
	return String(fmt.Sprint(v))
}

// FromDriver converts a value scanned from a database driver, using the
// column's declared type to recover kinds the driver flattens (SQLite stores
// booleans as integers, MySQL's text protocol returns bytes for everything).
func FromDriver(v any, declaredType string) Value {
	t := strings.ToUpper(declaredType)
	if b, ok := v.([]byte); ok {
		switch {
		case isBinaryType(t):
			return Blob(b)
		case strings.Contains(t, "INT"):
			if i, err := strconv.ParseInt(string(b), 10, 64); err == nil {
				return Int(i)
			}
		case strings.Contains(t, "REAL"), strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"):
			if f, err := strconv.ParseFloat(string(b), 64); err == nil {
				return Float(f)
			}
		case strings.Contains(t, "JSON"):
			if out, err := JSON(b); err == nil {
				return out
			}
		}
	}

	out := FromAny(v)
	switch {
	case out.kind == KindInt && strings.Contains(t, "BOOL"):
		return Bool(out.i != 0)
	case out.kind == KindString && strings.Contains(t, "JSON"):
		if j, err := JSON([]byte(out.s)); err == nil {
			return j
		}
	case out.kind == KindString && strings.Contains(t, "BOOL"):
		if b, err := strconv.ParseBool(out.s); err == nil {
			return Bool(b)
		}
	}
	return out
}

func isBinaryType(t string) bool {
	return strings.Contains(t, "BLOB") || strings.Contains(t, "BINARY") || strings.Contains(t, "BYTEA")
}

func formatTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	if t.Nanosecond() != 0 {
		return t.Format("2006-01-02 15:04:05.999999")
	}
	return t.Format("2006-01-02 15:04:05")
}
