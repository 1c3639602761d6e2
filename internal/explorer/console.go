package explorer

import (
	"errors"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/msg"
)

// Console holds the state of the raw statement console: the last statement
// run and either its outcome or its error.
type Console struct {
	runID     uint64
	running   bool
	statement string
	outcome   *adapter.QueryOutcome
	err       *QueryError
}

func (c *Console) Running() bool                  { return c.running }
func (c *Console) Statement() string              { return c.statement }
func (c *Console) Outcome() *adapter.QueryOutcome { return c.outcome }
func (c *Console) Err() *QueryError               { return c.err }

// begin starts a run of stmt and returns its id. A newer run supersedes an
// older one still in flight.
func (c *Console) begin(stmt string) uint64 {
	c.runID++
	c.running = true
	c.statement = stmt
	c.err = nil
	return c.runID
}

func (c *Console) apply(m msg.QueryResultMsg) bool {
	if m.RunID != c.runID {
		return false
	}
	c.running = false
	c.outcome = m.Outcome
	c.err = nil
	return true
}

func (c *Console) fail(m msg.QueryErrMsg) bool {
	if m.RunID != c.runID {
		return false
	}
	c.running = false
	c.outcome = nil
	c.err = asQueryError(c.statement, m.Err)
	return true
}

// reject records an error found before any storage call.
func (c *Console) reject(stmt string, err error) {
	c.statement = stmt
	c.outcome = nil
	c.err = asQueryError(stmt, err)
}

// Clear forgets the last run.
func (c *Console) Clear() {
	c.runID++
	c.running = false
	c.statement = ""
	c.outcome = nil
	c.err = nil
}

func asQueryError(stmt string, err error) *QueryError {
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe
	}
	return &QueryError{Statement: stmt, Err: err}
}
