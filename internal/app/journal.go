package app

import (
	"log/slog"
	"time"

	"github.com/sadopc/tablescope/internal/audit"
	"github.com/sadopc/tablescope/internal/explorer"
	"github.com/sadopc/tablescope/internal/history"
)

// journal records console runs in the history store and mutations in the
// audit log for one connection. Either sink may be nil.
type journal struct {
	hist   *history.History
	audit  *audit.Logger
	log    *slog.Logger
	driver string
	db     string
	dsn    string
}

func (j *journal) RecordQuery(r explorer.QueryRecord) {
	errText := ""
	if r.Err != nil {
		errText = r.Err.Error()
	}
	if j.hist != nil {
		if err := j.hist.Add(history.Entry{
			Statement:  r.Statement,
			Driver:     j.driver,
			Database:   j.db,
			ExecutedAt: time.Now().UTC(),
			DurationMS: r.Duration.Milliseconds(),
			RowCount:   r.Outcome.RowCount(),
			Error:      errText,
		}); err != nil {
			j.log.Warn("history add failed", "err", err)
		}
	}
	// Only statements that changed data belong in the audit log.
	if r.Outcome.IsMutation() {
		j.audit.Log(audit.Entry{
			Action:     "query",
			Driver:     j.driver,
			Database:   j.db,
			DSN:        j.dsn,
			Statement:  r.Statement,
			DurationMS: r.Duration.Milliseconds(),
			RowCount:   r.Outcome.RowCount(),
		})
	}
}

func (j *journal) RecordMutation(r explorer.MutationRecord) {
	e := audit.Entry{
		Action:     r.Op,
		Driver:     j.driver,
		Database:   j.db,
		DSN:        j.dsn,
		Table:      r.Table,
		Key:        audit.Pairs(r.Key),
		Values:     audit.Pairs(r.Values),
		DurationMS: r.Duration.Milliseconds(),
	}
	if r.Err != nil {
		e.Error = r.Err.Error()
	} else if r.Op != "reset" {
		e.RowCount = 1
	}
	j.audit.Log(e)
}
