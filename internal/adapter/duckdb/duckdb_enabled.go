//go:build duckdb

package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	_ "github.com/marcboeker/go-duckdb"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/adapter/sqlgen"
	"github.com/sadopc/tablescope/internal/adapter/sqlstore"
	"github.com/sadopc/tablescope/internal/schema"
)

func init() {
	adapter.Register(&duckdbAdapter{})
}

type duckdbAdapter struct{}

func (a *duckdbAdapter) Name() string     { return "duckdb" }
func (a *duckdbAdapter) DefaultPort() int { return 0 }

func (a *duckdbAdapter) Open(ctx context.Context, dsn string) (adapter.Store, error) {
	dsn = strings.TrimPrefix(dsn, "duckdb://")

	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}

	name := ":memory:"
	if dsn != "" {
		name = filepath.Base(dsn)
	}
	return sqlstore.New(db, sqlstore.Options{
		Driver:        "duckdb",
		Database:      name,
		Dialect:       sqlgen.DuckDB,
		Introspector:  catalog{},
		DefaultSchema: defaultSchema,
	}), nil
}

type catalog struct{}

func (catalog) TableNames(ctx context.Context, q sqlstore.Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT table_name FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, fmt.Errorf("tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("tables scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (catalog) Columns(ctx context.Context, q sqlstore.Querier, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", sqlgen.DuckDB.Quote(table)))
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			cid           int32
			name, colType string
			notNull, pk   bool
			dflt          sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dflt, &pk); err != nil {
			return nil, fmt.Errorf("columns scan: %w", err)
		}
		col := schema.Column{
			Ordinal:  int(cid),
			Name:     name,
			Type:     colType,
			Nullable: !notNull && !pk,
			IsPK:     pk,
		}
		if dflt.Valid {
			d := dflt.String
			col.Default = &d
			col.AutoIncrement = strings.HasPrefix(strings.ToLower(d), "nextval(")
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}
