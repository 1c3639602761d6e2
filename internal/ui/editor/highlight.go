package editor

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/tablescope/internal/theme"
)

// Highlighter tokenises SQL with the chroma lexer of one dialect and styles
// the tokens from a theme.
type Highlighter struct {
	lexer chroma.Lexer
}

// lexerNames maps a driver name to the chroma lexer for its dialect.
var lexerNames = map[string]string{
	"postgres": "postgresql",
	"mysql":    "mysql",
}

// NewHighlighter returns a highlighter for the SQL dialect of driver. Drivers
// without a dedicated lexer use generic SQL.
func NewHighlighter(driver string) *Highlighter {
	var l chroma.Lexer
	if name, ok := lexerNames[driver]; ok {
		l = lexers.Get(name)
	}
	if l == nil {
		l = lexers.Get("sql")
	}
	if l == nil {
		l = lexers.Fallback
	}
	return &Highlighter{lexer: chroma.Coalesce(l)}
}

// Highlight returns sql with every token styled. Newlines are kept outside
// styled segments so the result can be split into lines.
func (h *Highlighter) Highlight(sql string, th *theme.Theme) string {
	if th == nil {
		return sql
	}
	iter, err := h.lexer.Tokenise(nil, sql)
	if err != nil {
		return sql
	}

	var b strings.Builder
	b.Grow(len(sql) * 2)
	for _, tok := range iter.Tokens() {
		if tok.Value == "" {
			continue
		}
		style, ok := styleFor(tok.Type, th)
		if !ok {
			b.WriteString(tok.Value)
			continue
		}
		for i, seg := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				b.WriteByte('\n')
			}
			if seg != "" {
				b.WriteString(style.Render(seg))
			}
		}
	}
	return b.String()
}

func styleFor(tt chroma.TokenType, th *theme.Theme) (lipgloss.Style, bool) {
	switch {
	// KeywordType sits inside the Keyword category.
	case tt == chroma.KeywordType:
		return th.SQLType, true
	case tt == chroma.NameFunction || tt == chroma.NameBuiltin:
		return th.SQLFunction, true
	case tt.InCategory(chroma.Keyword):
		return th.SQLKeyword, true
	case tt.InSubCategory(chroma.LiteralString):
		return th.SQLString, true
	case tt.InSubCategory(chroma.LiteralNumber):
		return th.SQLNumber, true
	case tt.InCategory(chroma.Comment):
		return th.SQLComment, true
	case tt.InCategory(chroma.Operator):
		return th.SQLOperator, true
	case tt == chroma.NameVariable:
		return th.SQLIdentifier, true
	default:
		return lipgloss.Style{}, false
	}
}
