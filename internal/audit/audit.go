// Package audit appends a JSON Lines record of every statement run from the
// console and every row mutation made through the explorer.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sadopc/tablescope/internal/config"
	"github.com/sadopc/tablescope/internal/value"
)

// Entry is a single audit log record.
type Entry struct {
	Timestamp  time.Time  `json:"timestamp"`
	Session    string     `json:"session"`
	Action     string     `json:"action"` // query, insert, update, delete, reset
	Driver     string     `json:"driver,omitempty"`
	Database   string     `json:"database,omitempty"`
	DSN        string     `json:"dsn,omitempty"`
	Table      string     `json:"table,omitempty"`
	Statement  string     `json:"statement,omitempty"`
	Key        *value.Row `json:"key,omitempty"`
	Values     *value.Row `json:"values,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	RowCount   int64      `json:"row_count"`
	Error      string     `json:"error,omitempty"`
}

// Pairs wraps ordered pairs for an Entry's Key or Values field. Empty input
// gives nil so the field is omitted.
func Pairs(p []value.Pair) *value.Row {
	if len(p) == 0 {
		return nil
	}
	r := value.RowOf(p)
	return &r
}

// Logger writes JSON Lines audit entries to a file. Every entry carries the
// logger's session id so one run of the program can be picked out.
type Logger struct {
	mu        sync.Mutex
	f         *os.File
	enc       *json.Encoder
	path      string
	maxSizeMB int
	session   string
}

// New creates an audit Logger. It creates parent directories (0o700) and opens
// the file in append mode (0o600). If maxSizeMB > 0, the file is rotated when
// it exceeds that size.
func New(path string, maxSizeMB int) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}

	return &Logger{
		f:         f,
		enc:       json.NewEncoder(f),
		path:      path,
		maxSizeMB: maxSizeMB,
		session:   uuid.NewString(),
	}, nil
}

// DefaultPath is ConfigDir()/audit.jsonl.
func DefaultPath() (string, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "audit.jsonl"), nil
}

// Session returns the id stamped on this logger's entries.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Log writes an entry as a JSON line. It fills in the timestamp and session
// and masks any password in the DSN. It is safe for concurrent use; calling
// Log on a nil Logger is a no-op.
func (l *Logger) Log(e Entry) {
	if l == nil {
		return
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	e.Session = l.session
	e.DSN = config.Redact(e.DSN)

	l.mu.Lock()
	defer l.mu.Unlock()

	_ = l.enc.Encode(e)

	if l.maxSizeMB > 0 {
		l.rotateIfNeeded()
	}
}

// Close closes the underlying file. Calling Close on a nil Logger is a no-op.
func (l *Logger) Close() error {
	if l == nil {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.f.Close()
}

func (l *Logger) rotateIfNeeded() {
	info, err := l.f.Stat()
	if err != nil || info.Size() < int64(l.maxSizeMB)*1024*1024 {
		return
	}
	_ = l.f.Close()
	_ = os.Rename(l.path, l.path+".1")

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return
	}
	l.f = f
	l.enc = json.NewEncoder(f)
}
