package sqlstore

import (
	"regexp"
	"strings"
)

var returningRe = regexp.MustCompile(`(?i)\bRETURNING\b`)

// rowKeywords are the leading keywords of statements that produce rows.
var rowKeywords = map[string]bool{
	"SELECT":    true,
	"WITH":      true,
	"VALUES":    true,
	"TABLE":     true,
	"PRAGMA":    true,
	"EXPLAIN":   true,
	"SHOW":      true,
	"DESCRIBE":  true,
	"DESC":      true,
	"SUMMARIZE": true,
}

// StripComments removes leading "--" and "/* */" comments.
func StripComments(stmt string) string {
	q := strings.TrimSpace(stmt)
	for {
		switch {
		case strings.HasPrefix(q, "--"):
			idx := strings.Index(q, "\n")
			if idx < 0 {
				return ""
			}
			q = strings.TrimSpace(q[idx+1:])
		case strings.HasPrefix(q, "/*"):
			idx := strings.Index(q, "*/")
			if idx < 0 {
				return ""
			}
			q = strings.TrimSpace(q[idx+2:])
		default:
			return q
		}
	}
}

// FirstKeyword returns the upper-cased first word of stmt after comments.
func FirstKeyword(stmt string) string {
	q := StripComments(stmt)
	end := strings.IndexFunc(q, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == '_')
	})
	if end >= 0 {
		q = q[:end]
	}
	return strings.ToUpper(q)
}

// IsRowReturning reports whether stmt is run as a query rather than an exec.
// Data-modifying statements with a RETURNING clause count as queries.
func IsRowReturning(stmt string) bool {
	if rowKeywords[FirstKeyword(stmt)] {
		return true
	}
	return returningRe.MatchString(StripComments(stmt))
}
