package value

import (
	"encoding/json"
	"testing"
)

func TestValueString(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want string
	}{
		{"null", Null(), "NULL"},
		{"true", Bool(true), "true"},
		{"int", Int(-42), "-42"},
		{"float", Float(1.5), "1.5"},
		{"whole float", Float(3), "3"},
		{"large float", Float(1e22), "1e+22"},
		{"string", String("hello"), "hello"},
		{"blob", Blob([]byte{0xde, 0xad}), `\xdead`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestJSONCompacts(t *testing.T) {
	v, err := JSON([]byte(`{ "a" : [1, 2] }`))
	if err != nil {
		t.Fatalf("JSON: %v", err)
	}
	if v.Kind() != KindJSON {
		t.Fatalf("Kind = %v, want json", v.Kind())
	}
	if v.String() != `{"a":[1,2]}` {
		t.Errorf("String() = %q", v.String())
	}
	if _, err := JSON([]byte(`{broken`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestFromDriver(t *testing.T) {
	tests := []struct {
		name     string
		in       any
		declared string
		want     Value
	}{
		{"nil", nil, "TEXT", Null()},
		{"sqlite bool", int64(1), "BOOLEAN", Bool(true)},
		{"sqlite bool false", int64(0), "bool", Bool(false)},
		{"mysql int bytes", []byte("17"), "INT", Int(17)},
		{"mysql double bytes", []byte("2.25"), "DOUBLE", Float(2.25)},
		{"text bytes", []byte("abc"), "VARCHAR", String("abc")},
		{"blob bytes", []byte("abc"), "BLOB", Blob([]byte("abc"))},
		{"json text", `{"k": true}`, "JSON", mustJSON(t, `{"k":true}`)},
		{"plain int", int32(7), "", Int(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromDriver(tt.in, tt.declared)
			if !got.Equal(tt.want) {
				t.Errorf("FromDriver(%v, %q) = %v (%v), want %v (%v)",
					tt.in, tt.declared, got, got.Kind(), tt.want, tt.want.Kind())
			}
		})
	}
}

func TestUnmarshalJSONNumbers(t *testing.T) {
	var v Value
	if err := json.Unmarshal([]byte(`12`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindInt || v.AsInt() != 12 {
		t.Errorf("got %v (%v), want int 12", v, v.Kind())
	}
	if err := json.Unmarshal([]byte(`12.5`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Kind() != KindFloat || v.AsFloat() != 12.5 {
		t.Errorf("got %v (%v), want float 12.5", v, v.Kind())
	}
	if err := json.Unmarshal([]byte(`null`), &v); err != nil {
		t.Fatal(err)
	}
	if !v.IsNull() {
		t.Errorf("got %v, want NULL", v)
	}
}

func TestRowMarshalKeepsOrder(t *testing.T) {
	r := NewRow([]string{"z", "a", "m"}, []Value{Int(1), Null(), String("x")})
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"z":1,"a":null,"m":"x"}` {
		t.Errorf("Marshal = %s", data)
	}
}

func TestDecodeObjectKeepsOrder(t *testing.T) {
	pairs, err := DecodeObject([]byte(`{"b": 2, "a": "x", "c": null}`))
	if err != nil {
		t.Fatal(err)
	}
	cols := Columns(pairs)
	want := []string{"b", "a", "c"}
	if len(cols) != len(want) {
		t.Fatalf("columns = %v, want %v", cols, want)
	}
	for i := range want {
		if cols[i] != want[i] {
			t.Errorf("columns[%d] = %q, want %q", i, cols[i], want[i])
		}
	}
	if !pairs[2].Value.IsNull() {
		t.Errorf("c = %v, want NULL", pairs[2].Value)
	}

	if _, err := DecodeObject([]byte(`[1,2]`)); err == nil {
		t.Error("expected error for array input")
	}
}

func TestRowSelect(t *testing.T) {
	r := NewRow([]string{"id", "name"}, []Value{Int(3), String("n")})
	got := r.Select([]string{"name", "missing", "id"})
	if len(got) != 2 || got[0].Column != "name" || got[1].Column != "id" {
		t.Errorf("Select = %+v", got)
	}
}

func mustJSON(t *testing.T, s string) Value {
	t.Helper()
	v, err := JSON([]byte(s))
	if err != nil {
		t.Fatal(err)
	}
	return v
}
