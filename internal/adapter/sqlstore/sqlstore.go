// Package sqlstore implements adapter.Store on top of database/sql. The
// SQLite, MySQL and DuckDB adapters embed it and only supply their dialect,
// catalog queries and default schema.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/adapter/sqlgen"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

// DefaultPageSize is used when a read request carries no page size.
const DefaultPageSize = 25

// Querier is the read side shared by *sql.DB and *sql.Conn.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Introspector reads the catalog of one database flavour.
type Introspector interface {
	// TableNames lists user tables in the order they should be shown.
	TableNames(ctx context.Context, q Querier) ([]string, error)
	// Columns lists the columns of table in ordinal order.
	Columns(ctx context.Context, q Querier, table string) ([]schema.Column, error)
}

// Options configures a Store.
type Options struct {
	Driver       string
	Database     string
	Dialect      sqlgen.Dialect
	Introspector Introspector
	// DefaultSchema is executed in order by ResetDatabase after every user
	// table has been dropped.
	DefaultSchema []string
	// ResetPrelude and ResetPostlude run on the reset connection before and
	// after the drops, e.g. to suspend foreign key checks.
	ResetPrelude  []string
	ResetPostlude []string
	// RowReturning decides whether a console statement is run as a query.
	// Defaults to IsRowReturning.
	RowReturning func(stmt string) bool
	// Concurrency bounds the catalog reads ListTables runs in parallel.
	Concurrency int
	Logger      *slog.Logger
}

// Store is a database/sql backed adapter.Store.
type Store struct {
	DB   *sql.DB
	opts Options

	mu     sync.Mutex
	tables map[string]schema.Table
}

var _ adapter.Store = (*Store)(nil)

// New wraps db. The Store owns db and closes it in Close.
func New(db *sql.DB, opts Options) *Store {
	if opts.RowReturning == nil {
		opts.RowReturning = IsRowReturning
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Store{DB: db, opts: opts}
}

func (s *Store) DriverName() string   { return s.opts.Driver }
func (s *Store) DatabaseName() string { return s.opts.Database }

func (s *Store) Ping(ctx context.Context) error {
	if s.DB == nil {
		return adapter.ErrNotConnected
	}
	return s.DB.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.DB == nil {
		return nil
	}
	s.opts.Logger.Debug("closing database", "driver", s.opts.Driver)
	return s.DB.Close()
}

// ListTables returns every user table with its columns and row count. Column
// and count queries for different tables run concurrently.
func (s *Store) ListTables(ctx context.Context) ([]schema.Table, error) {
	if s.DB == nil {
		return nil, adapter.ErrNotConnected
	}
	names, err := s.opts.Introspector.TableNames(ctx, s.DB)
	if err != nil {
		return nil, fmt.Errorf("%s tables: %w", s.opts.Driver, err)
	}

	tables := make([]schema.Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			t, err := s.describe(gctx, name)
			if err != nil {
				return err
			}
			q, args := s.opts.Dialect.Count(t, "")
			if err := s.DB.QueryRowContext(gctx, q, args...).Scan(&t.RowCount); err != nil {
				return fmt.Errorf("%s count %s: %w", s.opts.Driver, name, err)
			}
			tables[i] = t
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tables = make(map[string]schema.Table, len(tables))
	for _, t := range tables {
		s.tables[t.Name] = t
	}
	s.mu.Unlock()

	s.opts.Logger.Debug("listed tables", "driver", s.opts.Driver, "count", len(tables))
	return tables, nil
}

func (s *Store) describe(ctx context.Context, name string) (schema.Table, error) {
	cols, err := s.opts.Introspector.Columns(ctx, s.DB, name)
	if err != nil {
		return schema.Table{}, fmt.Errorf("%s columns %s: %w", s.opts.Driver, name, err)
	}
	return schema.Table{Name: name, Columns: cols}, nil
}

// table returns the cached descriptor of name, consulting the catalog when
// it is not cached. Unknown names are rejected before any SQL mentions them.
func (s *Store) table(ctx context.Context, name string) (schema.Table, error) {
	s.mu.Lock()
	t, ok := s.tables[name]
	s.mu.Unlock()
	if ok {
		return t, nil
	}

	names, err := s.opts.Introspector.TableNames(ctx, s.DB)
	if err != nil {
		return schema.Table{}, fmt.Errorf("%s tables: %w", s.opts.Driver, err)
	}
	found := false
	for _, n := range names {
		if n == name {
			found = true
			break
		}
	}
	if !found {
		return schema.Table{}, fmt.Errorf("%w %q", adapter.ErrUnknownTable, name)
	}
	t, err = s.describe(ctx, name)
	if err != nil {
		return schema.Table{}, err
	}

	s.mu.Lock()
	if s.tables == nil {
		s.tables = make(map[string]schema.Table)
	}
	s.tables[name] = t
	s.mu.Unlock()
	return t, nil
}

// forget drops the cached catalog after statements that may change it.
func (s *Store) forget() {
	s.mu.Lock()
	s.tables = nil
	s.mu.Unlock()
}

// ReadTable returns one page of table rows matching the search term.
func (s *Store) ReadTable(ctx context.Context, req adapter.ReadRequest) (*adapter.PagedResult, error) {
	if s.DB == nil {
		return nil, adapter.ErrNotConnected
	}
	t, err := s.table(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	if req.PageSize <= 0 {
		req.PageSize = DefaultPageSize
	}
	if req.Page < 1 {
		req.Page = 1
	}

	var total int64
	q, args := s.opts.Dialect.Count(t, req.Search)
	if err := s.DB.QueryRowContext(ctx, q, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("%s count %s: %w", s.opts.Driver, t.Name, err)
	}

	q, args = s.opts.Dialect.Select(t, req.Search, req.PageSize, req.Offset())
	s.opts.Logger.Debug("read table", "sql", q, "page", req.Page)
	rows, err := s.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("%s read %s: %w", s.opts.Driver, t.Name, err)
	}
	defer rows.Close()

	declared := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		declared[i] = c.Type
	}
	names, data, err := ScanValues(rows, declared)
	if err != nil {
		return nil, fmt.Errorf("%s read %s: %w", s.opts.Driver, t.Name, err)
	}

	result := &adapter.PagedResult{
		Table:      t.Name,
		Columns:    t.Columns,
		Rows:       make([]value.Row, len(data)),
		TotalRows:  total,
		Page:       req.Page,
		PageSize:   req.PageSize,
		TotalPages: adapter.TotalPages(total, req.PageSize),
	}
	for i, vals := range data {
		result.Rows[i] = value.NewRow(names, vals)
	}
	return result, nil
}

// UpdateRow sets changes on the row identified by pk.
func (s *Store) UpdateRow(ctx context.Context, table string, pk, changes []value.Pair) error {
	if len(pk) == 0 {
		return adapter.ErrNoPrimaryKey
	}
	if len(changes) == 0 {
		return adapter.ErrNoValues
	}
	t, err := s.table(ctx, table)
	if err != nil {
		return err
	}
	if err := adapter.CheckColumns(t, append(append([]value.Pair(nil), pk...), changes...)); err != nil {
		return err
	}
	q, args, err := s.opts.Dialect.Update(t.Name, pk, changes)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "update", q, args)
}

// InsertRow inserts values. Columns missing from values take their
// defaults.
func (s *Store) InsertRow(ctx context.Context, table string, values []value.Pair) error {
	t, err := s.table(ctx, table)
	if err != nil {
		return err
	}
	if err := adapter.CheckColumns(t, values); err != nil {
		return err
	}
	q, args := s.opts.Dialect.Insert(t.Name, values)
	s.opts.Logger.Debug("insert row", "sql", q)
	if _, err := s.DB.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("%s insert: %w", s.opts.Driver, err)
	}
	return nil
}

// DeleteRow deletes the row identified by pk.
func (s *Store) DeleteRow(ctx context.Context, table string, pk []value.Pair) error {
	if len(pk) == 0 {
		return adapter.ErrNoPrimaryKey
	}
	t, err := s.table(ctx, table)
	if err != nil {
		return err
	}
	if err := adapter.CheckColumns(t, pk); err != nil {
		return err
	}
	q, args, err := s.opts.Dialect.Delete(t.Name, pk)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "delete", q, args)
}

// execOne runs a keyed statement and fails with ErrRowNotFound when it
// touched nothing.
func (s *Store) execOne(ctx context.Context, op, q string, args []any) error {
	s.opts.Logger.Debug(op+" row", "sql", q)
	res, err := s.DB.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s %s: %w", s.opts.Driver, op, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return adapter.ErrRowNotFound
	}
	return nil
}

// ExecuteStatement runs one console statement.
func (s *Store) ExecuteStatement(ctx context.Context, stmt string) (*adapter.QueryOutcome, error) {
	if s.DB == nil {
		return nil, adapter.ErrNotConnected
	}
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil, adapter.ErrEmptyStatement
	}
	start := time.Now()

	if s.opts.RowReturning(stmt) {
		rows, err := s.DB.QueryContext(ctx, stmt)
		if err != nil {
			return nil, fmt.Errorf("%s query: %w", s.opts.Driver, err)
		}
		defer rows.Close()
		cols, data, err := ScanValues(rows, nil)
		if err != nil {
			return nil, fmt.Errorf("%s query: %w", s.opts.Driver, err)
		}
		return &adapter.QueryOutcome{
			ResultSet: &adapter.ResultSet{Columns: cols, Rows: data},
			Duration:  time.Since(start),
		}, nil
	}

	res, err := s.DB.ExecContext(ctx, stmt)
	if err != nil {
		return nil, fmt.Errorf("%s exec: %w", s.opts.Driver, err)
	}
	// A console mutation may have changed any table, including its shape.
	s.forget()

	summary := &adapter.MutationSummary{}
	summary.RowsAffected, _ = res.RowsAffected()
	if kw := FirstKeyword(stmt); kw == "INSERT" || kw == "REPLACE" {
		if id, err := res.LastInsertId(); err == nil && id > 0 {
			summary.LastInsertID = &id
		}
	}
	return &adapter.QueryOutcome{Mutation: summary, Duration: time.Since(start)}, nil
}

// ResetDatabase drops every user table and recreates the default schema.
func (s *Store) ResetDatabase(ctx context.Context) (err error) {
	if s.DB == nil {
		return adapter.ErrNotConnected
	}
	defer s.forget()

	conn, err := s.DB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("%s reset: %w", s.opts.Driver, err)
	}
	defer conn.Close()

	for _, q := range s.opts.ResetPrelude {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s reset: %w", s.opts.Driver, err)
		}
	}
	defer func() {
		for _, q := range s.opts.ResetPostlude {
			if _, perr := conn.ExecContext(ctx, q); perr != nil && err == nil {
				err = fmt.Errorf("%s reset: %w", s.opts.Driver, perr)
			}
		}
	}()

	names, err := s.opts.Introspector.TableNames(ctx, conn)
	if err != nil {
		return fmt.Errorf("%s reset: %w", s.opts.Driver, err)
	}
	if err := DropAll(ctx, conn, s.opts.Dialect, names); err != nil {
		return fmt.Errorf("%s reset: %w", s.opts.Driver, err)
	}
	for _, q := range s.opts.DefaultSchema {
		if _, err := conn.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("%s reset: %w", s.opts.Driver, err)
		}
	}
	s.opts.Logger.Info("database reset", "driver", s.opts.Driver, "dropped", len(names))
	return nil
}

// Execer is the write side shared by *sql.DB and *sql.Conn.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// DropAll drops tables, retrying those that fail while other drops still
// make progress. Tables referenced by foreign keys succeed once their
// dependants are gone.
func DropAll(ctx context.Context, ex Execer, d sqlgen.Dialect, tables []string) error {
	pending := tables
	for len(pending) > 0 {
		var failed []string
		var lastErr error
		for _, name := range pending {
			if _, err := ex.ExecContext(ctx, d.DropTable(name)); err != nil {
				failed = append(failed, name)
				lastErr = err
			}
		}
		if len(failed) == len(pending) {
			return fmt.Errorf("drop %s: %w", strings.Join(failed, ", "), lastErr)
		}
		pending = failed
	}
	return nil
}

// ScanValues reads all rows into values. declared supplies the declared
// column types; when it is nil the driver's column types are used.
func ScanValues(rows *sql.Rows, declared []string) ([]string, [][]value.Value, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}
	if len(declared) != len(cols) {
		declared = make([]string, len(cols))
		if types, err := rows.ColumnTypes(); err == nil {
			for i, ct := range types {
				declared[i] = ct.DatabaseTypeName()
			}
		}
	}

	holders := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range holders {
		ptrs[i] = &holders[i]
	}

	var out [][]value.Value
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]value.Value, len(cols))
		for i, h := range holders {
			row[i] = value.FromDriver(h, declared[i])
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	return cols, out, nil
}
