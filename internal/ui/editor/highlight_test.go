package editor

import (
	"strings"
	"testing"

	"github.com/alecthomas/chroma/v2"

	"github.com/sadopc/tablescope/internal/theme"
)

// lipgloss renders without colour when there is no TTY, so these tests check
// that content survives highlighting and that tokens map to the right styles.

func TestNewHighlighterPerDriver(t *testing.T) {
	for _, driver := range []string{"postgres", "mysql", "sqlite", "duckdb", ""} {
		h := NewHighlighter(driver)
		if h == nil || h.lexer == nil {
			t.Fatalf("NewHighlighter(%q) has no lexer", driver)
		}
	}
}

func TestHighlightPreservesContent(t *testing.T) {
	tests := []struct {
		driver string
		sql    string
	}{
		{"postgres", "SELECT id, name FROM agents WHERE id = 1"},
		{"mysql", "UPDATE `agents` SET name = 'scout' WHERE id = 2"},
		{"sqlite", "-- comment\nSELECT COUNT(*) FROM agent_runs"},
		{"duckdb", "SELECT 3.14, 'it''s'"},
	}
	th := theme.Default()
	for _, tt := range tests {
		t.Run(tt.driver, func(t *testing.T) {
			got := NewHighlighter(tt.driver).Highlight(tt.sql, th)
			if got != tt.sql {
				t.Errorf("Highlight() = %q, want content %q", got, tt.sql)
			}
		})
	}
}

func TestHighlightKeepsNewlines(t *testing.T) {
	sql := "SELECT *\nFROM agents\n/* a\nb */\nWHERE 1 = 1"
	got := NewHighlighter("sqlite").Highlight(sql, theme.Default())
	if strings.Count(got, "\n") != strings.Count(sql, "\n") {
		t.Errorf("newline count changed: %q", got)
	}
}

func TestHighlightNilTheme(t *testing.T) {
	sql := "SELECT 1"
	if got := NewHighlighter("sqlite").Highlight(sql, nil); got != sql {
		t.Errorf("Highlight(nil theme) = %q, want %q", got, sql)
	}
}

func TestHighlightEmpty(t *testing.T) {
	if got := NewHighlighter("sqlite").Highlight("", theme.Default()); got != "" {
		t.Errorf("Highlight(\"\") = %q", got)
	}
}

func TestStyleFor(t *testing.T) {
	th := theme.Default()
	tests := []struct {
		name   string
		tt     chroma.TokenType
		styled bool
	}{
		{"keyword", chroma.Keyword, true},
		{"reserved keyword", chroma.KeywordReserved, true},
		{"type", chroma.KeywordType, true},
		{"function", chroma.NameFunction, true},
		{"single string", chroma.LiteralStringSingle, true},
		{"integer", chroma.LiteralNumberInteger, true},
		{"float", chroma.LiteralNumberFloat, true},
		{"single comment", chroma.CommentSingle, true},
		{"multiline comment", chroma.CommentMultiline, true},
		{"operator", chroma.Operator, true},
		{"operator word", chroma.OperatorWord, true},
		{"plain name", chroma.Name, false},
		{"whitespace", chroma.Text, false},
		{"punctuation", chroma.Punctuation, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, ok := styleFor(tt.tt, th); ok != tt.styled {
				t.Errorf("styleFor(%v) styled = %v, want %v", tt.tt, ok, tt.styled)
			}
		})
	}
}
