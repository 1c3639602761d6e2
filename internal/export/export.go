// Package export renders row grids as terminal tables, CSV, Markdown or
// JSON, for the CLI and for saving console results from the TUI.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/value"
)

// Format is an output format.
type Format string

const (
	Table    Format = "table"
	JSON     Format = "json"
	CSV      Format = "csv"
	Markdown Format = "markdown"
)

// ParseFormat accepts a format name; "md" is short for markdown.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return Table, nil
	case "json":
		return JSON, nil
	case "csv":
		return CSV, nil
	case "md", "markdown":
		return Markdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want table, json, csv or markdown)", s)
}

// FormatForPath picks a file format from the extension of path. Unknown
// extensions get CSV.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON
	case ".md", ".markdown":
		return Markdown
	case ".txt":
		return Table
	default:
		return CSV
	}
}

// Grid is a header plus rows of values.
type Grid struct {
	Columns []string
	Rows    [][]value.Value
}

// FromPage flattens one page of a table.
func FromPage(r *adapter.PagedResult) Grid {
	g := Grid{Columns: make([]string, len(r.Columns))}
	for i, c := range r.Columns {
		g.Columns[i] = c.Name
	}
	for _, row := range r.Rows {
		g.Rows = append(g.Rows, row.Values())
	}
	return g
}

// FromResultSet wraps a console result.
func FromResultSet(rs *adapter.ResultSet) Grid {
	return Grid{Columns: rs.Columns, Rows: rs.Rows}
}

// Write renders g to w in format f.
func Write(w io.Writer, g Grid, f Format) error {
	switch f {
	case JSON:
		return writeJSON(w, g)
	case CSV:
		_, err := io.WriteString(w, newTable(g, csvCell).RenderCSV()+"\n")
		return err
	case Markdown:
		_, err := io.WriteString(w, newTable(g, fullCell).RenderMarkdown()+"\n")
		return err
	default:
		if len(g.Rows) == 0 {
			_, err := fmt.Fprintln(w, "(0 rows)")
			return err
		}
		t := newTable(g, gridCell)
		t.SetStyle(table.StyleLight)
		_, err := fmt.Fprintf(w, "%s\n(%d rows)\n", t.Render(), len(g.Rows))
		return err
	}
}

// WriteFile renders g into a new file at path, in the format its extension
// names. It returns the number of rows written.
func WriteFile(path string, g Grid) (int, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	if err := Write(f, g, FormatForPath(path)); err != nil {
		f.Close()
		return 0, fmt.Errorf("export %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("export %s: %w", path, err)
	}
	return len(g.Rows), nil
}

func gridCell(v value.Value) string { return cell.SingleLine(cell.Display(v, cell.DefaultWidth)) }
func fullCell(v value.Value) string { return cell.SingleLine(cell.Full(v)) }

// csvCell leaves NULL empty so spreadsheets read it as a blank cell.
func csvCell(v value.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

func newTable(g Grid, render func(value.Value) string) table.Writer {
	t := table.NewWriter()
	header := make(table.Row, len(g.Columns))
	for i, c := range g.Columns {
		header[i] = c
	}
	t.AppendHeader(header)
	for _, vals := range g.Rows {
		row := make(table.Row, len(vals))
		for i, v := range vals {
			row[i] = render(v)
		}
		t.AppendRow(row)
	}
	return t
}

func writeJSON(w io.Writer, g Grid) error {
	rows := make([]value.Row, len(g.Rows))
	for i, vals := range g.Rows {
		rows[i] = value.NewRow(g.Columns, vals)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}
