// Package cell formats values for display and parses edited text back into
// values, using only the column's declared type as a guide.
package cell

import (
	"strings"

	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

const (
	// NullMarker is shown wherever a cell is NULL.
	NullMarker = "空 (NULL)"
	// Ellipsis is appended to truncated values.
	Ellipsis = "..."

	// GridWidth is the truncation length used in the row grid.
	GridWidth = 50
	// DefaultWidth is the truncation length used everywhere else.
	DefaultWidth = 100
)

// Display renders v for inline display. Values longer than maxLen characters
// are cut to exactly maxLen characters followed by an ellipsis. A negative
// maxLen disables truncation.
func Display(v value.Value, maxLen int) string {
	if v.IsNull() {
		return NullMarker
	}
	s := Full(v)
	if maxLen < 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + Ellipsis
}

// Full renders v without truncation.
func Full(v value.Value) string {
	if v.IsNull() {
		return NullMarker
	}
	return v.String()
}

// Truncated reports whether Display(v, maxLen) differs from Full(v).
func Truncated(v value.Value, maxLen int) bool {
	if v.IsNull() || maxLen < 0 {
		return false
	}
	return len([]rune(Full(v))) > maxLen
}

// EditText is the initial text of an edit field holding v.
func EditText(v value.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// Placeholder is the hint shown in an empty field for c.
func Placeholder(c schema.Column) string {
	if c.Default != nil && *c.Default != "" {
		return *c.Default
	}
	return NullMarker
}

// SingleLine flattens control characters so a value fits on one grid line.
func SingleLine(s string) string {
	if !strings.ContainsAny(s, "\n\r\t") {
		return s
	}
	return strings.NewReplacer("\r\n", "↵", "\n", "↵", "\r", "↵", "\t", " ").Replace(s)
}
