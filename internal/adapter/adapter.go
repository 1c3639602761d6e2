package adapter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

var (
	ErrNotConnected   = errors.New("not connected to database")
	ErrNoPrimaryKey   = errors.New("table has no primary key; rows cannot be targeted")
	ErrRowNotFound    = errors.New("no row matched the primary key")
	ErrUnknownTable   = errors.New("unknown table")
	ErrUnknownColumn  = errors.New("unknown column")
	ErrEmptyStatement = errors.New("empty statement")
	ErrNoValues       = errors.New("no values to write")
	ErrUnknownDriver  = errors.New("unknown driver")
)

// Adapter opens stores for one database driver.
type Adapter interface {
	Open(ctx context.Context, dsn string) (Store, error)
	Name() string
	DefaultPort() int
}

// Store is the storage API consumed by the explorer. Every operation may
// fail; errors carry a human-readable message from the backend.
type Store interface {
	ListTables(ctx context.Context) ([]schema.Table, error)
	ReadTable(ctx context.Context, req ReadRequest) (*PagedResult, error)
	UpdateRow(ctx context.Context, table string, pk, changes []value.Pair) error
	InsertRow(ctx context.Context, table string, values []value.Pair) error
	DeleteRow(ctx context.Context, table string, pk []value.Pair) error
	ExecuteStatement(ctx context.Context, sql string) (*QueryOutcome, error)
	// ResetDatabase drops every user table and recreates the default empty
	// application schema.
	ResetDatabase(ctx context.Context) error

	Ping(ctx context.Context) error
	Close() error
	DatabaseName() string
	DriverName() string
}

// ReadRequest selects one page of a table, optionally filtered by a search
// term matched against every column.
type ReadRequest struct {
	Table    string
	Page     int
	PageSize int
	Search   string
}

// Offset is the number of rows skipped before the requested page.
func (r ReadRequest) Offset() int {
	if r.Page < 1 {
		return 0
	}
	return (r.Page - 1) * r.PageSize
}

// PagedResult is one page of a table.
type PagedResult struct {
	Table      string
	Columns    []schema.Column
	Rows       []value.Row
	TotalRows  int64
	Page       int
	PageSize   int
	TotalPages int
}

// FirstRow and LastRow are the 1-based positions of the page's rows within
// the filtered table, or 0 when the page is empty.
func (p *PagedResult) FirstRow() int64 {
	if len(p.Rows) == 0 {
		return 0
	}
	return int64(p.Page-1)*int64(p.PageSize) + 1
}

func (p *PagedResult) LastRow() int64 {
	if len(p.Rows) == 0 {
		return 0
	}
	return int64(p.Page-1)*int64(p.PageSize) + int64(len(p.Rows))
}

// TotalPages is ceil(totalRows / pageSize), and 0 for an empty table.
func TotalPages(totalRows int64, pageSize int) int {
	if totalRows <= 0 || pageSize <= 0 {
		return 0
	}
	return int((totalRows + int64(pageSize) - 1) / int64(pageSize))
}

// ClampPage clamps page into [1, max(totalPages, 1)].
func ClampPage(page, totalPages int) int {
	if page > totalPages {
		page = totalPages
	}
	if page < 1 {
		page = 1
	}
	return page
}

// ResultSet is the outcome of a row-returning statement.
type ResultSet struct {
	Columns []string
	Rows    [][]value.Value
}

// MutationSummary is the outcome of a statement that changes data or schema.
type MutationSummary struct {
	RowsAffected int64
	LastInsertID *int64
}

// QueryOutcome holds exactly one of ResultSet or Mutation.
type QueryOutcome struct {
	ResultSet *ResultSet
	Mutation  *MutationSummary
	Duration  time.Duration
}

// IsMutation reports whether the outcome is a mutation summary.
func (o *QueryOutcome) IsMutation() bool { return o != nil && o.Mutation != nil }

// RowCount is the number of returned rows, or the affected row count for a
// mutation.
func (o *QueryOutcome) RowCount() int64 {
	switch {
	case o == nil:
		return 0
	case o.Mutation != nil:
		return o.Mutation.RowsAffected
	case o.ResultSet != nil:
		return int64(len(o.ResultSet.Rows))
	}
	return 0
}

// Summary is a one-line description of the outcome.
func (o *QueryOutcome) Summary() string {
	if o.IsMutation() {
		s := fmt.Sprintf("%d row(s) affected", o.Mutation.RowsAffected)
		if o.Mutation.LastInsertID != nil {
			s += fmt.Sprintf(", last insert id %d", *o.Mutation.LastInsertID)
		}
		return s
	}
	return fmt.Sprintf("%d row(s) returned", o.RowCount())
}

// CheckColumns rejects pairs naming a column t does not have.
func CheckColumns(t schema.Table, pairs []value.Pair) error {
	for _, p := range pairs {
		if _, ok := t.Column(p.Column); !ok {
			return fmt.Errorf("%w %q in table %q", ErrUnknownColumn, p.Column, t.Name)
		}
	}
	return nil
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}

// Names returns the registered adapter names, sorted.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for n := range Registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the adapter registered under name.
func Lookup(name string) (Adapter, error) {
	a, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (available: %s)", ErrUnknownDriver, name, strings.Join(Names(), ", "))
	}
	return a, nil
}

// Open detects the driver from dsn and opens a store. An explicit driver
// name overrides detection.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	if driver == "" {
		driver = DetectDriver(dsn)
	}
	a, err := Lookup(driver)
	if err != nil {
		return nil, err
	}
	return a.Open(ctx, dsn)
}

// DetectDriver guesses the driver for dsn from its scheme or file
// extension. Anything unrecognised is treated as a SQLite path.
func DetectDriver(dsn string) string {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("):
		return "mysql"
	case strings.HasPrefix(lower, "duckdb://"),
		strings.HasSuffix(lower, ".duckdb"), strings.HasSuffix(lower, ".ddb"):
		return "duckdb"
	case strings.Contains(lower, "host=") && strings.Contains(lower, "dbname="):
		return "postgres"
	}
	return "sqlite"
}
