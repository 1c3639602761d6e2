//go:build duckdb

package duckdb

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/value"
)

func openMemory(t *testing.T) adapter.Store {
	t.Helper()
	store, err := (&duckdbAdapter{}).Open(context.Background(), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.ResetDatabase(context.Background()))
	return store
}

func TestDuckDB_ResetAndList(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	// A second reset must find and drop the tables of the first.
	require.NoError(t, store.ResetDatabase(ctx))

	tables, err := store.ListTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 3)
	assert.Equal(t, "agent_runs", tables[0].Name)
	assert.Equal(t, "agents", tables[1].Name)
	assert.True(t, tables[1].Columns[0].AutoIncrement)
	assert.Equal(t, "app_settings", tables[2].Name)
}

func TestDuckDB_RowLifecycle(t *testing.T) {
	store := openMemory(t)
	ctx := context.Background()

	require.NoError(t, store.InsertRow(ctx, "agents", []value.Pair{
		{Column: "name", Value: value.String("Reviewer")},
		{Column: "icon", Value: value.String("R")},
		{Column: "system_prompt", Value: value.String("review code")},
	}))

	page, err := store.ReadTable(ctx, adapter.ReadRequest{Table: "agents", Page: 1, Search: "review"})
	require.NoError(t, err)
	require.Len(t, page.Rows, 1)
	id, _ := page.Rows[0].Get("id")
	enabled, _ := page.Rows[0].Get("enable_file_read")
	assert.Equal(t, value.KindBool, enabled.Kind())

	pk := []value.Pair{{Column: "id", Value: id}}
	require.NoError(t, store.UpdateRow(ctx, "agents", pk, []value.Pair{{Column: "enable_network", Value: value.Bool(true)}}))
	require.NoError(t, store.DeleteRow(ctx, "agents", pk))
	assert.True(t, errors.Is(store.DeleteRow(ctx, "agents", pk), adapter.ErrRowNotFound))
}
