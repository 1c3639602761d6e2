package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/adapter/sqlgen"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

func init() {
	adapter.Register(&postgresAdapter{})
}

const defaultPageSize = 25

// postgresAdapter implements adapter.Adapter for PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string     { return "postgres" }
func (a *postgresAdapter) DefaultPort() int { return 5432 }

func (a *postgresAdapter) Open(ctx context.Context, dsn string) (adapter.Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &pgStore{
		pool:   pool,
		dbName: extractDBName(dsn),
		log:    slog.Default().With("driver", "postgres"),
	}, nil
}

// extractDBName parses the database name from the DSN.
func extractDBName(dsn string) string {
	if dsn == "" {
		return ""
	}
	// URL form (postgres://... or postgresql://...)
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	// keyword=value form (e.g. "host=localhost dbname=myapp")
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}
	return ""
}

// pgStore implements adapter.Store on a pgx connection pool. Tables are
// those of the connection's current schema.
type pgStore struct {
	pool   *pgxpool.Pool
	dbName string
	log    *slog.Logger

	mu     sync.Mutex
	tables map[string]schema.Table
}

var _ adapter.Store = (*pgStore)(nil)

var dialect = sqlgen.Postgres

func (s *pgStore) DatabaseName() string { return s.dbName }
func (s *pgStore) DriverName() string   { return "postgres" }

func (s *pgStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *pgStore) Close() error {
	s.pool.Close()
	return nil
}

// ---------------------------------------------------------------------------
// Introspection
// ---------------------------------------------------------------------------

func (s *pgStore) tableNames(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT table_name
		 FROM information_schema.tables
		 WHERE table_schema = current_schema()
		   AND table_type   = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}

func (s *pgStore) describe(ctx context.Context, table string) (schema.Table, error) {
	pk, err := s.primaryKeyColumns(ctx, table)
	if err != nil {
		return schema.Table{}, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT column_name,
		        data_type,
		        is_nullable,
		        column_default,
		        is_identity
		 FROM information_schema.columns
		 WHERE table_schema = current_schema()
		   AND table_name   = $1
		 ORDER BY ordinal_position`, table)
	if err != nil {
		return schema.Table{}, fmt.Errorf("columns %s: %w", table, err)
	}
	defer rows.Close()

	t := schema.Table{Name: table}
	for rows.Next() {
		var (
			name, dtype, nullable, identity string
			dflt                            *string
		)
		if err := rows.Scan(&name, &dtype, &nullable, &dflt, &identity); err != nil {
			return schema.Table{}, fmt.Errorf("columns scan: %w", err)
		}
		col := schema.Column{
			Ordinal:  len(t.Columns),
			Name:     name,
			Type:     strings.ToUpper(dtype),
			Nullable: nullable == "YES",
			Default:  dflt,
			IsPK:     pk[name],
		}
		// serial columns default to nextval(); identity columns are generated.
		if identity == "YES" || (dflt != nil && strings.HasPrefix(*dflt, "nextval(")) {
			col.AutoIncrement = true
		}
		t.Columns = append(t.Columns, col)
	}
	return t, rows.Err()
}

// primaryKeyColumns returns a set of column names that belong to the primary key.
func (s *pgStore) primaryKeyColumns(ctx context.Context, table string) (map[string]bool, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT a.attname
		 FROM pg_index i
		 JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		 WHERE i.indrelid = $1::regclass
		   AND i.indisprimary`, dialect.Quote(table))
	if err != nil {
		return nil, fmt.Errorf("primary keys: %w", err)
	}
	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("primary keys scan: %w", err)
	}
	pk := make(map[string]bool, len(names))
	for _, n := range names {
		pk[n] = true
	}
	return pk, nil
}

func (s *pgStore) count(ctx context.Context, t schema.Table, search string) (int64, error) {
	q, args := dialect.Count(t, search)
	var n int64
	if err := s.pool.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count %s: %w", t.Name, err)
	}
	return n, nil
}

func (s *pgStore) ListTables(ctx context.Context) ([]schema.Table, error) {
	names, err := s.tableNames(ctx)
	if err != nil {
		return nil, err
	}

	tables := make([]schema.Table, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, name := range names {
		g.Go(func() error {
			t, err := s.describe(gctx, name)
			if err != nil {
				return err
			}
			if t.RowCount, err = s.count(gctx, t, ""); err != nil {
				return err
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
	return tables, nil
}

func (s *pgStore) table(ctx context.Context, name string) (schema.Table, error) {
	s.mu.Lock()
	t, ok := s.tables[name]
	s.mu.Unlock()
	if ok {
		return t, nil
	}

	names, err := s.tableNames(ctx)
	if err != nil {
		return schema.Table{}, err
	}
	found := false
	for _, n := range names {
		found = found || n == name
	}
	if !found {
		return schema.Table{}, fmt.Errorf("%w %q", adapter.ErrUnknownTable, name)
	}
	if t, err = s.describe(ctx, name); err != nil {
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

func (s *pgStore) forget() {
	s.mu.Lock()
	s.tables = nil
	s.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Rows
// ---------------------------------------------------------------------------

func (s *pgStore) ReadTable(ctx context.Context, req adapter.ReadRequest) (*adapter.PagedResult, error) {
	t, err := s.table(ctx, req.Table)
	if err != nil {
		return nil, err
	}
	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.Page < 1 {
		req.Page = 1
	}

	total, err := s.count(ctx, t, req.Search)
	if err != nil {
		return nil, err
	}

	q, args := dialect.Select(t, req.Search, req.PageSize, req.Offset())
	s.log.Debug("read table", "sql", q, "page", req.Page)
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Name, err)
	}
	names, data, err := collectValues(rows)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.Name, err)
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

func (s *pgStore) UpdateRow(ctx context.Context, table string, pk, changes []value.Pair) error {
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
	q, args, err := dialect.Update(t.Name, pk, changes)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "update", q, args)
}

func (s *pgStore) InsertRow(ctx context.Context, table string, values []value.Pair) error {
	t, err := s.table(ctx, table)
	if err != nil {
		return err
	}
	if err := adapter.CheckColumns(t, values); err != nil {
		return err
	}
	q, args := dialect.Insert(t.Name, values)
	s.log.Debug("insert row", "sql", q)
	if _, err := s.pool.Exec(ctx, q, args...); err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (s *pgStore) DeleteRow(ctx context.Context, table string, pk []value.Pair) error {
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
	q, args, err := dialect.Delete(t.Name, pk)
	if err != nil {
		return err
	}
	return s.execOne(ctx, "delete", q, args)
}

func (s *pgStore) execOne(ctx context.Context, op, q string, args []any) error {
	s.log.Debug(op+" row", "sql", q)
	tag, err := s.pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return adapter.ErrRowNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Console and reset
// ---------------------------------------------------------------------------

// ExecuteStatement runs stmt over the simple protocol. Whether the
// statement produced rows is read from the server's row description, so
// RETURNING clauses and utility statements need no guessing.
func (s *pgStore) ExecuteStatement(ctx context.Context, stmt string) (*adapter.QueryOutcome, error) {
	stmt = strings.TrimSpace(stmt)
	if stmt == "" {
		return nil, adapter.ErrEmptyStatement
	}
	start := time.Now()

	rows, err := s.pool.Query(ctx, stmt, pgx.QueryExecModeSimpleProtocol)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	names, data, err := collectValues(rows)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	elapsed := time.Since(start)

	if len(names) > 0 {
		return &adapter.QueryOutcome{
			ResultSet: &adapter.ResultSet{Columns: names, Rows: data},
			Duration:  elapsed,
		}, nil
	}
	s.forget()
	return &adapter.QueryOutcome{
		Mutation: &adapter.MutationSummary{RowsAffected: rows.CommandTag().RowsAffected()},
		Duration: elapsed,
	}, nil
}

// ResetDatabase drops every table of the current schema and recreates the
// default schema in one transaction.
func (s *pgStore) ResetDatabase(ctx context.Context) error {
	defer s.forget()

	names, err := s.tableNames(ctx)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	err = pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		for _, name := range names {
			if _, err := tx.Exec(ctx, dialect.DropTable(name)); err != nil {
				return fmt.Errorf("drop %s: %w", name, err)
			}
		}
		for _, q := range defaultSchema {
			if _, err := tx.Exec(ctx, q); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	s.log.Info("database reset", "dropped", len(names))
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// collectValues drains rows into values and closes them.
func collectValues(rows pgx.Rows) ([]string, [][]value.Value, error) {
	defer rows.Close()

	var data [][]value.Value
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, nil, err
		}
		out := make([]value.Value, len(vals))
		for i, v := range vals {
			out[i] = pgValue(v)
		}
		data = append(data, out)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}

	fds := rows.FieldDescriptions()
	names := make([]string, len(fds))
	for i, fd := range fds {
		names[i] = fd.Name
	}
	return names, data, nil
}

// pgValue converts a value decoded by pgx. uuid columns decode to raw
// bytes; arrays decode to []any and become JSON.
func pgValue(v any) value.Value {
	if x, ok := v.([16]byte); ok {
		return value.String(uuid.UUID(x).String())
	}
	return value.FromAny(v)
}
