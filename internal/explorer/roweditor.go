package explorer

import (
	"fmt"

	"github.com/sadopc/tablescope/internal/adapter"
	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/msg"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

// EditorState is the row dialog state.
type EditorState int

const (
	Idle EditorState = iota
	Editing
	Inserting
	ConfirmingDelete
)

func (s EditorState) String() string {
	switch s {
	case Editing:
		return "editing"
	case Inserting:
		return "inserting"
	case ConfirmingDelete:
		return "confirming delete"
	default:
		return "idle"
	}
}

// Field is one column of the draft.
type Field struct {
	Column   schema.Column
	Kind     cell.InputKind
	Text     string
	Null     bool
	Touched  bool
	ReadOnly bool
	Required bool

	original value.Value
}

// Value parses the field's draft.
func (f Field) Value() (value.Value, error) {
	if f.Null {
		return value.Null(), nil
	}
	return cell.Parse(f.Column, f.Text)
}

// Placeholder is the hint for an empty field.
func (f Field) Placeholder() string { return cell.Placeholder(f.Column) }

// RowEditor is the create/edit/delete dialog state machine. Transitions
// happen only through its methods, each of which stands for a user intent.
type RowEditor struct {
	state    EditorState
	table    schema.Table
	row      value.Row
	identity []value.Pair
	fields   []Field

	busy bool
	err  error
}

func (e *RowEditor) State() EditorState     { return e.state }
func (e *RowEditor) Open() bool             { return e.state != Idle }
func (e *RowEditor) Busy() bool             { return e.busy }
func (e *RowEditor) Err() error             { return e.err }
func (e *RowEditor) Table() schema.Table    { return e.table }
func (e *RowEditor) Row() value.Row         { return e.row }
func (e *RowEditor) Fields() []Field        { return e.fields }
func (e *RowEditor) Identity() []value.Pair { return e.identity }

// OpenEdit starts editing row. The row identity is captured here from the
// fetched row and never recomputed from the draft.
func (e *RowEditor) OpenEdit(t schema.Table, row value.Row) error {
	if e.state != Idle {
		return nil
	}
	if !t.HasPrimaryKey() {
		return &MutationError{Op: "edit", Table: t.Name, Err: adapter.ErrNoPrimaryKey}
	}
	e.reset()
	e.state = Editing
	e.table = t
	e.row = row
	e.identity = row.Select(t.PrimaryKeyNames())
	for _, c := range t.Columns {
		v, _ := row.Get(c.Name)
		e.fields = append(e.fields, Field{
			Column:   c,
			Kind:     cell.KindOfColumn(c),
			Text:     cell.EditText(v),
			Null:     v.IsNull(),
			ReadOnly: c.IsPK,
			original: v,
		})
	}
	return nil
}

// OpenInsert starts a blank draft for t.
func (e *RowEditor) OpenInsert(t schema.Table) {
	if e.state != Idle {
		return
	}
	e.reset()
	e.state = Inserting
	e.table = t
	for _, c := range t.Columns {
		f := Field{
			Column:   c,
			Kind:     cell.KindOfColumn(c),
			Required: c.Required(),
		}
		if f.Kind == cell.Checkbox {
			f.Text = "false"
		}
		e.fields = append(e.fields, f)
	}
}

// OpenDelete asks for confirmation before deleting row.
func (e *RowEditor) OpenDelete(t schema.Table, row value.Row) error {
	if e.state != Idle {
		return nil
	}
	if !t.HasPrimaryKey() {
		return &MutationError{Op: "delete", Table: t.Name, Err: adapter.ErrNoPrimaryKey}
	}
	e.reset()
	e.state = ConfirmingDelete
	e.table = t
	e.row = row
	e.identity = row.Select(t.PrimaryKeyNames())
	return nil
}

func (e *RowEditor) editable(i int) bool {
	return !e.busy && (e.state == Editing || e.state == Inserting) &&
		i >= 0 && i < len(e.fields) && !e.fields[i].ReadOnly
}

// SetField replaces the draft text of field i and clears its NULL flag.
func (e *RowEditor) SetField(i int, text string) {
	if !e.editable(i) {
		return
	}
	f := &e.fields[i]
	f.Text = text
	f.Null = false
	f.Touched = true
}

// ToggleNull flips the NULL flag of a nullable field.
func (e *RowEditor) ToggleNull(i int) {
	if !e.editable(i) || !e.fields[i].Column.Nullable {
		return
	}
	f := &e.fields[i]
	f.Null = !f.Null
	f.Touched = true
}

// ToggleCheckbox flips a checkbox field between true and false.
func (e *RowEditor) ToggleCheckbox(i int) {
	if !e.editable(i) || e.fields[i].Kind != cell.Checkbox {
		return
	}
	b, _ := cell.ParseBool(e.fields[i].Text)
	e.SetField(i, fmt.Sprint(!b))
}

// Cancel closes the dialog and discards the draft. It is ignored while a
// submission is in flight.
func (e *RowEditor) Cancel() {
	if e.busy {
		return
	}
	e.reset()
}

// Changes returns the columns whose draft differs from the fetched row.
func (e *RowEditor) Changes() ([]value.Pair, error) {
	var out []value.Pair
	for _, f := range e.fields {
		if f.ReadOnly || !f.Touched {
			continue
		}
		v, err := f.Value()
		if err != nil {
			return nil, err
		}
		if !sameValue(v, f.original) {
			out = append(out, value.Pair{Column: f.Column.Name, Value: v})
		}
	}
	return out, nil
}

// sameValue compares a parsed draft with the fetched value. Text fields
// parse to strings, so a JSON value typed back unchanged compares by text.
func sameValue(draft, original value.Value) bool {
	if draft.Equal(original) {
		return true
	}
	if draft.IsNull() || original.IsNull() {
		return false
	}
	return draft.String() == original.String()
}

// InsertValues returns the touched fields of an insert draft. Untouched
// columns are left out so the table's defaults apply.
func (e *RowEditor) InsertValues() ([]value.Pair, error) {
	var out []value.Pair
	for _, f := range e.fields {
		if !f.Touched {
			if f.Required {
				return nil, fmt.Errorf("%s is required", f.Column.Name)
			}
			continue
		}
		v, err := f.Value()
		if err != nil {
			return nil, err
		}
		out = append(out, value.Pair{Column: f.Column.Name, Value: v})
	}
	return out, nil
}

// Op is the mutation a submit in the current state performs.
func (e *RowEditor) Op() msg.MutationOp {
	switch e.state {
	case Inserting:
		return msg.OpInsert
	case ConfirmingDelete:
		return msg.OpDelete
	default:
		return msg.OpUpdate
	}
}

// begin marks a submission in flight. It refuses when one already is.
func (e *RowEditor) begin() bool {
	if e.busy || e.state == Idle {
		return false
	}
	e.busy = true
	e.err = nil
	return true
}

// invalid records a draft error found before any storage call.
func (e *RowEditor) invalid(err error) {
	e.err = err
}

// succeed closes the dialog after a successful submission.
func (e *RowEditor) succeed() {
	e.reset()
}

// fail keeps the dialog and draft and shows err inline.
func (e *RowEditor) fail(err error) {
	e.busy = false
	e.err = err
}

func (e *RowEditor) reset() {
	*e = RowEditor{}
}
