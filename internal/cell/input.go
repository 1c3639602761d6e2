package cell

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

// InputKind is the kind of edit control used for a column.
type InputKind int

const (
	Text InputKind = iota
	Number
	Checkbox
)

func (k InputKind) String() string {
	switch k {
	case Number:
		return "number"
	case Checkbox:
		return "checkbox"
	default:
		return "text"
	}
}

// KindOf classifies a declared type string. The rules are substring matches
// over free-form type names, so custom types fall back to Text.
func KindOf(declaredType string) InputKind {
	t := strings.ToUpper(declaredType)
	switch {
	case strings.Contains(t, "INT"):
		return Number
	case strings.Contains(t, "REAL"), strings.Contains(t, "FLOAT"), strings.Contains(t, "DOUBLE"):
		return Number
	case strings.Contains(t, "BOOL"):
		return Checkbox
	default:
		return Text
	}
}

// KindOfColumn classifies a column by its declared type.
func KindOfColumn(c schema.Column) InputKind {
	return KindOf(c.Type)
}

// Parse converts the text of an edit field back into a value for column c.
// NULL is never produced here; callers track the NULL toggle separately.
func Parse(c schema.Column, text string) (value.Value, error) {
	switch KindOfColumn(c) {
	case Number:
		s := strings.TrimSpace(text)
		if s == "" {
			return value.Value{}, fmt.Errorf("%s: a number is required", c.Name)
		}
		if strings.Contains(strings.ToUpper(c.Type), "INT") {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return value.Int(i), nil
			}
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: %q is not a number", c.Name, text)
		}
		return value.Float(f), nil
	case Checkbox:
		b, ok := ParseBool(text)
		if !ok {
			return value.Value{}, fmt.Errorf("%s: %q is not true or false", c.Name, text)
		}
		return value.Bool(b), nil
	}

	t := strings.ToUpper(c.Type)
	if (strings.Contains(t, "BLOB") || strings.Contains(t, "BYTEA") || strings.Contains(t, "BINARY")) &&
		strings.HasPrefix(text, `\x`) {
		raw, err := hex.DecodeString(text[2:])
		if err != nil {
			return value.Value{}, fmt.Errorf("%s: invalid hex: %w", c.Name, err)
		}
		return value.Blob(raw), nil
	}
	return value.String(text), nil
}

// ParseBool accepts the spellings a checkbox field may carry.
func ParseBool(text string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off", "":
		return false, true
	}
	return false, false
}
