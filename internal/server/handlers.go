package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/audit"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	body := errorBody{Error: http.StatusText(status), Code: code}
	if err != nil {
		body.Details = err.Error()
	}
	writeJSON(w, status, body)
}

// writeStoreError maps storage errors onto HTTP statuses. Backend messages
// are passed through in details.
func writeStoreError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "body_too_large", err)
	case errors.Is(err, errBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, adapter.ErrUnknownTable):
		writeError(w, http.StatusNotFound, "unknown_table", err)
	case errors.Is(err, adapter.ErrRowNotFound):
		writeError(w, http.StatusNotFound, "row_not_found", err)
	case errors.Is(err, adapter.ErrUnknownColumn):
		writeError(w, http.StatusBadRequest, "unknown_column", err)
	case errors.Is(err, adapter.ErrEmptyStatement), errors.Is(err, adapter.ErrNoValues):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, adapter.ErrNoPrimaryKey):
		writeError(w, http.StatusConflict, "no_primary_key", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "timeout", err)
	default:
		writeError(w, http.StatusInternalServerError, "storage_error", err)
	}
}

func (s *Server) ctx(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), s.timeout)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ok",
		"driver":   s.store.DriverName(),
		"database": s.store.DatabaseName(),
	})
}

type columnJSON struct {
	Name          string  `json:"name"`
	Type          string  `json:"type"`
	Nullable      bool    `json:"nullable"`
	PrimaryKey    bool    `json:"primary_key"`
	AutoIncrement bool    `json:"auto_increment"`
	Default       *string `json:"default,omitempty"`
}

type tableJSON struct {
	Name     string       `json:"name"`
	RowCount int64        `json:"row_count"`
	Columns  []columnJSON `json:"columns"`
}

func columnsJSON(cols []schema.Column) []columnJSON {
	out := make([]columnJSON, len(cols))
	for i, c := range cols {
		out[i] = columnJSON{
			Name:          c.Name,
			Type:          c.Type,
			Nullable:      c.Nullable,
			PrimaryKey:    c.IsPK,
			AutoIncrement: c.AutoIncrement,
			Default:       c.Default,
		}
	}
	return out
}

func (s *Server) listTables(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()
	tables, err := s.store.ListTables(ctx)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.tables.set(tables)
	out := make([]tableJSON, len(tables))
	for i, t := range tables {
		out[i] = tableJSON{Name: t.Name, RowCount: t.RowCount, Columns: columnsJSON(t.Columns)}
	}
	writeJSON(w, http.StatusOK, map[string]any{"tables": out})
}

// table resolves the {table} URL parameter against the live table list.
// tableCache holds the descriptors row mutations are validated against. It
// is filled on first use and dropped after a statement or reset that may
// have changed the schema.
type tableCache struct {
	mu     sync.Mutex
	tables []schema.Table
	ok     bool
}

func (c *tableCache) get() ([]schema.Table, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tables, c.ok
}

func (c *tableCache) set(tables []schema.Table) {
	c.mu.Lock()
	c.tables, c.ok = tables, true
	c.mu.Unlock()
}

func (c *tableCache) invalidate() {
	c.mu.Lock()
	c.tables, c.ok = nil, false
	c.mu.Unlock()
}

// describe resolves the {table} of r and runs build against its
// descriptor. An unknown table or column on a cached list reloads the list
// once before the miss is reported.
func (s *Server) describe(ctx context.Context, r *http.Request, build func(schema.Table) error) (schema.Table, error) {
	name := chi.URLParam(r, "table")
	tables, cached := s.tables.get()
	fresh := false
	for {
		if !cached {
			var err error
			if tables, err = s.store.ListTables(ctx); err != nil {
				return schema.Table{}, err
			}
			s.tables.set(tables)
			cached, fresh = true, true
		}
		t, ok := schema.Find(tables, name)
		var err error
		if !ok {
			err = fmt.Errorf("%w: %s", adapter.ErrUnknownTable, name)
		} else {
			err = build(t)
		}
		if err == nil {
			return t, nil
		}
		stale := errors.Is(err, adapter.ErrUnknownTable) || errors.Is(err, adapter.ErrUnknownColumn)
		if fresh || !stale {
			return t, err
		}
		cached = false
	}
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", errBadRequest, name)
	}
	return n, nil
}

type pageJSON struct {
	Table      string       `json:"table"`
	Columns    []columnJSON `json:"columns"`
	Rows       []value.Row  `json:"rows"`
	TotalRows  int64        `json:"total_rows"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
	Search     string       `json:"search,omitempty"`
}

func (s *Server) readRows(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	page, err := queryInt(r, "page", 1)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	size, err := queryInt(r, "page_size", s.pageSize)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	search := r.URL.Query().Get("search")

	res, err := s.store.ReadTable(ctx, adapter.ReadRequest{
		Table:    chi.URLParam(r, "table"),
		Page:     page,
		PageSize: min(size, MaxPageSize),
		Search:   search,
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	rows := res.Rows
	if rows == nil {
		rows = []value.Row{}
	}
	writeJSON(w, http.StatusOK, pageJSON{
		Table:      res.Table,
		Columns:    columnsJSON(res.Columns),
		Rows:       rows,
		TotalRows:  res.TotalRows,
		Page:       res.Page,
		PageSize:   res.PageSize,
		TotalPages: res.TotalPages,
		Search:     search,
	})
}

type rowRequest struct {
	Values  json.RawMessage `json:"values"`
	PK      json.RawMessage `json:"pk"`
	Changes json.RawMessage `json:"changes"`
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxBody))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	return nil
}

// pairs decodes a JSON object into pairs for t, ordered by column ordinal.
func pairs(t schema.Table, field string, raw json.RawMessage) ([]value.Pair, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %q is required", errBadRequest, field)
	}
	ps, err := value.DecodeObject(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", errBadRequest, field, err)
	}
	if err := adapter.CheckColumns(t, ps); err != nil {
		return nil, err
	}
	ordinal := func(p value.Pair) int {
		c, _ := t.Column(p.Column)
		return c.Ordinal
	}
	slices.SortStableFunc(ps, func(a, b value.Pair) int { return ordinal(a) - ordinal(b) })
	return ps, nil
}

func (s *Server) insertRow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	var req rowRequest
	if err := s.decode(w, r, &req); err != nil {
		writeStoreError(w, err)
		return
	}
	var values []value.Pair
	t, err := s.describe(ctx, r, func(t schema.Table) (err error) {
		values, err = pairs(t, "values", req.Values)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	start := time.Now()
	err = s.store.InsertRow(ctx, t.Name, values)
	s.record("insert", t.Name, nil, values, start, err)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]int{"inserted": 1})
}

func (s *Server) updateRow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	var req rowRequest
	if err := s.decode(w, r, &req); err != nil {
		writeStoreError(w, err)
		return
	}
	var pk, changes []value.Pair
	t, err := s.describe(ctx, r, func(t schema.Table) (err error) {
		if pk, err = pairs(t, "pk", req.PK); err != nil {
			return err
		}
		changes, err = pairs(t, "changes", req.Changes)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	start := time.Now()
	err = s.store.UpdateRow(ctx, t.Name, pk, changes)
	s.record("update", t.Name, pk, changes, start, err)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"updated": 1})
}

func (s *Server) deleteRow(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	var req rowRequest
	if err := s.decode(w, r, &req); err != nil {
		writeStoreError(w, err)
		return
	}
	var pk []value.Pair
	t, err := s.describe(ctx, r, func(t schema.Table) (err error) {
		pk, err = pairs(t, "pk", req.PK)
		return err
	})
	if err != nil {
		writeStoreError(w, err)
		return
	}
	start := time.Now()
	err = s.store.DeleteRow(ctx, t.Name, pk)
	s.record("delete", t.Name, pk, nil, start, err)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": 1})
}

type queryResponse struct {
	Columns      []string        `json:"columns,omitempty"`
	Rows         [][]value.Value `json:"rows,omitempty"`
	RowsAffected *int64          `json:"rows_affected,omitempty"`
	LastInsertID *int64          `json:"last_insert_id,omitempty"`
	Summary      string          `json:"summary"`
	DurationMS   int64           `json:"duration_ms"`
}

func (s *Server) query(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	var req struct {
		SQL string `json:"sql"`
	}
	if err := s.decode(w, r, &req); err != nil {
		writeStoreError(w, err)
		return
	}
	start := time.Now()
	out, err := s.store.ExecuteStatement(ctx, req.SQL)
	if err != nil {
		if errors.Is(err, adapter.ErrEmptyStatement) {
			writeStoreError(w, err)
			return
		}
		// The backend rejected the statement; its message is the answer.
		writeError(w, http.StatusUnprocessableEntity, "query_failed", err)
		return
	}

	resp := queryResponse{Summary: out.Summary(), DurationMS: time.Since(start).Milliseconds()}
	if out.IsMutation() {
		s.tables.invalidate()
		n := out.Mutation.RowsAffected
		resp.RowsAffected = &n
		resp.LastInsertID = out.Mutation.LastInsertID
		s.audit.Log(audit.Entry{
			Action:     "query",
			Driver:     s.store.DriverName(),
			Database:   s.store.DatabaseName(),
			Statement:  req.SQL,
			DurationMS: resp.DurationMS,
			RowCount:   n,
		})
	} else if out.ResultSet != nil {
		resp.Columns = out.ResultSet.Columns
		resp.Rows = out.ResultSet.Rows
		if resp.Rows == nil {
			resp.Rows = [][]value.Value{}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := s.ctx(r)
	defer cancel()

	start := time.Now()
	err := s.store.ResetDatabase(ctx)
	s.tables.invalidate()
	s.record("reset", "", nil, nil, start, err)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	s.logger.Info("database reset", "request_id", RequestID(r.Context()))
	writeJSON(w, http.StatusOK, map[string]bool{"reset": true})
}

func (s *Server) record(action, table string, key, values []value.Pair, start time.Time, err error) {
	e := audit.Entry{
		Action:     action,
		Driver:     s.store.DriverName(),
		Database:   s.store.DatabaseName(),
		Table:      table,
		Key:        audit.Pairs(key),
		Values:     audit.Pairs(values),
		DurationMS: time.Since(start).Milliseconds(),
	}
	if err != nil {
		e.Error = err.Error()
		s.logger.Warn("mutation failed", "action", action, "table", table, "err", err)
	} else if action != "reset" {
		e.RowCount = 1
	}
	s.audit.Log(e)
}
