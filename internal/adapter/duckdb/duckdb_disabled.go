//go:build !duckdb

package duckdb

import (
	"context"
	"errors"

	"github.com/sadopc/tablescope/internal/adapter"
)

var errDisabled = errors.New("DuckDB support not compiled in. Rebuild with -tags duckdb")

func init() {
	adapter.Register(&disabledAdapter{})
}

// disabledAdapter keeps the driver name known so that duckdb DSNs fail with
// a useful message instead of being opened as SQLite files.
type disabledAdapter struct{}

func (d *disabledAdapter) Name() string     { return "duckdb" }
func (d *disabledAdapter) DefaultPort() int { return 0 }

func (d *disabledAdapter) Open(_ context.Context, _ string) (adapter.Store, error) {
	return nil, errDisabled
}
