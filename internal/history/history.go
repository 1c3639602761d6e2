// Package history keeps the statements run from the console in a small
// SQLite database so they can be browsed and re-run.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/sadopc/tablescope/internal/config"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS console_history (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	statement   TEXT NOT NULL,
	driver      TEXT,
	db_name     TEXT,
	executed_at DATETIME DEFAULT CURRENT_TIMESTAMP,
	duration_ms INTEGER,
	row_count   INTEGER,
	error_text  TEXT
)`

const selectColumns = `SELECT id, statement, driver, db_name, executed_at, duration_ms, row_count, error_text
	FROM console_history`

// Entry is one console run.
type Entry struct {
	ID         int64
	Statement  string
	Driver     string
	Database   string
	ExecutedAt time.Time
	DurationMS int64
	RowCount   int64
	// Error is the backend message of a failed run, or empty.
	Error string
}

// Failed reports whether the run returned an error.
func (e Entry) Failed() bool { return e.Error != "" }

// History provides SQLite-backed console history storage.
type History struct {
	db         *sql.DB
	maxEntries int
}

// DefaultPath is ConfigDir()/history.db.
func DefaultPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", fmt.Errorf("history: config dir: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}

// Open opens (or creates) the history database at path. When maxEntries is
// positive only that many of the newest entries are kept.
func Open(path string, maxEntries int) (*History, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	// A single writer keeps SQLite from reporting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}

	return &History{db: db, maxEntries: maxEntries}, nil
}

// Add inserts a new entry and drops the oldest ones beyond the limit.
func (h *History) Add(e Entry) error {
	if e.ExecutedAt.IsZero() {
		e.ExecutedAt = time.Now().UTC()
	}
	_, err := h.db.Exec(
		`INSERT INTO console_history (statement, driver, db_name, executed_at, duration_ms, row_count, error_text)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Statement, e.Driver, e.Database, e.ExecutedAt, e.DurationMS, e.RowCount, e.Error,
	)
	if err != nil {
		return fmt.Errorf("history add: %w", err)
	}
	if h.maxEntries > 0 {
		if _, err := h.db.Exec(
			`DELETE FROM console_history WHERE id NOT IN (
				SELECT id FROM console_history ORDER BY executed_at DESC, id DESC LIMIT ?)`,
			h.maxEntries,
		); err != nil {
			return fmt.Errorf("history trim: %w", err)
		}
	}
	return nil
}

// Search returns entries whose statement contains term, most recent first.
func (h *History) Search(term string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		selectColumns+` WHERE statement LIKE ? ESCAPE '\'
		 ORDER BY executed_at DESC, id DESC LIMIT ?`,
		"%"+escapeLike(term)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history search: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Recent returns the most recent entries, limited to limit rows.
func (h *History) Recent(limit int) ([]Entry, error) {
	rows, err := h.db.Query(selectColumns+` ORDER BY executed_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Clear deletes all entries.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM console_history`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var (
			e      Entry
			driver sql.NullString
			db     sql.NullString
			errMsg sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Statement, &driver, &db, &e.ExecutedAt, &e.DurationMS, &e.RowCount, &errMsg); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		e.Driver, e.Database, e.Error = driver.String, db.String, errMsg.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}
