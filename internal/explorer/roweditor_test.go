package explorer

import (
	"testing"

	"github.com/sadopc/tablescope/internal/cell"
	"github.com/sadopc/tablescope/internal/schema"
	"github.com/sadopc/tablescope/internal/value"
)

func settingsTable() schema.Table {
	return schema.Table{
		Name: "app_settings",
		Columns: []schema.Column{
			{Ordinal: 0, Name: "key", Type: "TEXT", IsPK: true},
			{Ordinal: 1, Name: "value", Type: "JSON", Nullable: true},
			{Ordinal: 2, Name: "enabled", Type: "BOOLEAN"},
		},
	}
}

func settingsRow() value.Row {
	raw, _ := value.JSON([]byte(`{"a":1}`))
	return value.NewRow(
		[]string{"key", "value", "enabled"},
		[]value.Value{value.String("theme"), raw, value.Bool(true)},
	)
}

func TestRowEditorUnchangedJSONIsNotAChange(t *testing.T) {
	var e RowEditor
	if err := e.OpenEdit(settingsTable(), settingsRow()); err != nil {
		t.Fatal(err)
	}
	e.SetField(1, `{"a":1}`)

	changes, err := e.Changes()
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 0 {
		t.Fatalf("changes = %+v, want none", changes)
	}
}

func TestRowEditorNullAndCheckbox(t *testing.T) {
	var e RowEditor
	if err := e.OpenEdit(settingsTable(), settingsRow()); err != nil {
		t.Fatal(err)
	}
	if e.Fields()[2].Kind != cell.Checkbox {
		t.Fatalf("enabled kind = %v", e.Fields()[2].Kind)
	}

	e.ToggleNull(2) // not nullable
	e.ToggleNull(1)
	e.ToggleCheckbox(2)

	changes, err := e.Changes()
	if err != nil {
		t.Fatal(err)
	}
	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want 2", changes)
	}
	if !changes[0].Value.IsNull() || changes[0].Column != "value" {
		t.Errorf("first change = %+v, want value=NULL", changes[0])
	}
	if !changes[1].Value.Equal(value.Bool(false)) {
		t.Errorf("second change = %+v, want enabled=false", changes[1])
	}
	if got := e.Identity(); len(got) != 1 || got[0].Value.String() != "theme" {
		t.Errorf("identity = %+v", got)
	}
}

func TestRowEditorInvalidNumber(t *testing.T) {
	var e RowEditor
	e.OpenInsert(agentsTable())
	e.SetField(0, "twelve")

	if _, err := e.InsertValues(); err == nil {
		t.Fatal("expected a parse error")
	}
	if e.State() != Inserting {
		t.Errorf("state = %v", e.State())
	}
}
