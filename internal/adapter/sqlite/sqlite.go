package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/adapter/sqlgen"
	"github.com/sadopc/tablescope/internal/adapter/sqlstore"
	"github.com/sadopc/tablescope/internal/schema"

	_ "modernc.org/sqlite"
)

func init() {
	adapter.Register(&sqliteAdapter{})
}

// sqliteAdapter implements adapter.Adapter for SQLite databases.
type sqliteAdapter struct{}

func (a *sqliteAdapter) Name() string     { return "sqlite" }
func (a *sqliteAdapter) DefaultPort() int { return 0 }

func (a *sqliteAdapter) Open(ctx context.Context, dsn string) (adapter.Store, error) {
	dsn = normalizeDSN(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// One connection keeps :memory: databases and per-connection pragmas
	// consistent across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite enable foreign keys: %w", err)
	}

	dbName := dsn
	if dsn != ":memory:" {
		dbName = filepath.Base(dsn)
	}
	return NewStore(db, dbName), nil
}

// NewStore wraps an open SQLite handle.
func NewStore(db *sql.DB, dbName string) *sqlstore.Store {
	return sqlstore.New(db, sqlstore.Options{
		Driver:        "sqlite",
		Database:      dbName,
		Dialect:       sqlgen.SQLite,
		Introspector:  catalog{},
		DefaultSchema: defaultSchema,
		ResetPrelude:  []string{"PRAGMA foreign_keys = OFF"},
		ResetPostlude: []string{"PRAGMA foreign_keys = ON"},
		Concurrency:   1,
	})
}

// normalizeDSN strips common SQLite URI prefixes.
func normalizeDSN(dsn string) string {
	if strings.HasPrefix(dsn, "sqlite://") {
		return strings.TrimPrefix(dsn, "sqlite://")
	}
	if strings.HasPrefix(dsn, "file:") {
		return strings.TrimPrefix(dsn, "file:")
	}
	return dsn
}

// catalog reads sqlite_master and PRAGMA table_info.
type catalog struct{}

func (catalog) TableNames(ctx context.Context, q sqlstore.Querier) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("sqlite tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("sqlite tables scan: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

func (catalog) Columns(ctx context.Context, q sqlstore.Querier, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", sqlgen.SQLite.Quote(table)))
	if err != nil {
		return nil, fmt.Errorf("sqlite columns: %w", err)
	}
	defer rows.Close()

	var columns []schema.Column
	pkCount := 0
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, fmt.Errorf("sqlite columns scan: %w", err)
		}
		col := schema.Column{
			Ordinal:  cid,
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0,
			IsPK:     pk > 0,
		}
		if dfltValue.Valid {
			d := dfltValue.String
			col.Default = &d
		}
		if col.IsPK {
			pkCount++
		}
		columns = append(columns, col)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// A lone INTEGER PRIMARY KEY aliases the rowid and is assigned on insert.
	if pkCount == 1 {
		for i := range columns {
			if columns[i].IsPK && strings.EqualFold(columns[i].Type, "INTEGER") {
				columns[i].AutoIncrement = true
				columns[i].Nullable = false
			}
		}
	}
	return columns, nil
}
