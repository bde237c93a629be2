package schema

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func testContext() *TableContext {
	return NewTableContext("metrics", []Column{
		{Name: "host", Type: TypeString, Options: []ColumnOption{PrimaryKey}},
		{Name: "ts", Type: TypeTimestamp, Options: []ColumnOption{TimeIndex}},
		{Name: "cpu", Type: TypeFloat64, Options: []ColumnOption{Null}},
		{Name: "mem", Type: TypeInt64, Options: []ColumnOption{DefaultValue("0")}},
	}, OptionPrimaryKey, OptionTimeIndex)
}

func TestWriteAndLoadYAML(t *testing.T) {
	ctx := testContext()

	dir := t.TempDir()
	path := filepath.Join(dir, "context.yaml")

	if err := ctx.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	// Verify file exists
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("context file not created: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}

	if loaded.Name() != "metrics" {
		t.Errorf("expected name metrics, got %s", loaded.Name())
	}
	if loaded.NumColumns() != 4 {
		t.Fatalf("expected 4 columns, got %d", loaded.NumColumns())
	}
	mem := loaded.ColumnAt(3)
	if mem.Type != TypeInt64 || len(mem.Options) != 1 || mem.Options[0] != DefaultValue("0") {
		t.Errorf("unexpected mem column after round trip: %+v", mem)
	}
	if got := loaded.Protected(); len(got) != 2 {
		t.Errorf("expected 2 protected kinds, got %v", got)
	}
}

func TestParseYAMLErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing name", "columns:\n  - name: a\n    type: Int32\n"},
		{"unknown type", "name: t\ncolumns:\n  - name: a\n    type: Decimal\n"},
		{"duplicate column", "name: t\ncolumns:\n  - name: a\n    type: Int32\n  - name: a\n    type: Int64\n"},
		{"unnamed column", "name: t\ncolumns:\n  - type: Int32\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseYAML([]byte(tt.content)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseYAMLDefaultProtection(t *testing.T) {
	ctx, err := ParseYAML([]byte("name: t\ncolumns:\n  - name: id\n    type: Int64\n    options:\n      - kind: PrimaryKey\n"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ctx.Protected(); len(got) != 1 || got[0] != OptionPrimaryKey {
		t.Errorf("expected default protection [PrimaryKey], got %v", got)
	}
}

func TestDroppableColumns(t *testing.T) {
	ctx := testContext()
	droppable := ctx.DroppableColumns()
	if len(droppable) != 2 {
		t.Fatalf("expected 2 droppable columns, got %d", len(droppable))
	}
	if droppable[0].Name != "cpu" || droppable[1].Name != "mem" {
		t.Errorf("unexpected droppable columns: %v", droppable)
	}

	// Time index is only protected when the policy says so.
	relaxed := NewTableContext("metrics", ctx.Columns())
	if got := len(relaxed.DroppableColumns()); got != 3 {
		t.Errorf("expected 3 droppable columns under default policy, got %d", got)
	}
}

func TestContextIsImmutable(t *testing.T) {
	cols := []Column{{Name: "a", Type: TypeInt32, Options: []ColumnOption{Null}}}
	ctx := NewTableContext("t", cols)

	cols[0].Name = "changed"
	cols[0].Options[0] = PrimaryKey
	if c := ctx.ColumnAt(0); c.Name != "a" || c.Options[0] != Null {
		t.Errorf("context observed caller mutation: %+v", c)
	}

	out := ctx.Columns()
	out[0].Options[0] = PrimaryKey
	if !ctx.ColumnAt(0).HasOption(OptionNull) {
		t.Error("context observed mutation through Columns()")
	}

	renamed := ctx.WithName("u")
	if ctx.Name() != "t" || renamed.Name() != "u" {
		t.Errorf("WithName mutated receiver: %s / %s", ctx.Name(), renamed.Name())
	}
}

func TestColumnOptionString(t *testing.T) {
	tests := []struct {
		opt  ColumnOption
		want string
	}{
		{Null, "NULL"},
		{NotNull, "NOT NULL"},
		{DefaultValue("'abc'"), "DEFAULT 'abc'"},
		{TimeIndex, "TIME INDEX"},
		{PrimaryKey, "PRIMARY KEY"},
	}
	for _, tt := range tests {
		if got := tt.opt.String(); got != tt.want {
			t.Errorf("%v.String() = %q, want %q", tt.opt.Kind, got, tt.want)
		}
	}
}

func TestColumnJSON(t *testing.T) {
	c := Column{Name: "sit", Type: TypeBoolean, Options: []ColumnOption{PrimaryKey, DefaultValue("true")}}
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"name":"sit","column_type":{"Boolean":null},"options":["PrimaryKey",{"DefaultValue":"true"}]}`
	if string(data) != want {
		t.Fatalf("got %s, want %s", data, want)
	}

	var back Column
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.Options[1] != DefaultValue("true") {
		t.Errorf("unexpected option after decode: %+v", back.Options[1])
	}
}

func TestDataTypeJSONAcceptsBareName(t *testing.T) {
	var dt DataType
	if err := json.Unmarshal([]byte(`"Float64"`), &dt); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if dt != TypeFloat64 {
		t.Errorf("expected Float64, got %s", dt)
	}
	if _, err := json.Marshal(DataType("Varchar")); err == nil {
		t.Error("expected error encoding an unknown type")
	}
}

func TestColumnJSONRejectsInvalidInput(t *testing.T) {
	bad := []string{
		`{"name":"c","column_type":"Varchar","options":[]}`,
		`{"name":"c","column_type":{"Int32":null,"Int64":null},"options":[]}`,
		`{"name":"c","column_type":{"Int32":null},"options":["Unique"]}`,
		`{"name":"c","column_type":{"Int32":null},"options":[{"DefaultValue":"  "}]}`,
		`{"name":"c","column_type":{"Int32":null},"options":[{"NotNull":"1"}]}`,
	}
	for _, in := range bad {
		var c Column
		if err := json.Unmarshal([]byte(in), &c); err == nil {
			t.Errorf("expected error decoding %s, got %+v", in, c)
		}
	}
}

func TestIsIdentifier(t *testing.T) {
	for _, ok := range []string{"a", "_x", "DigNissIMOS", "c_10", "caf\u00e9"} {
		if !IsIdentifier(ok) {
			t.Errorf("expected %q to be an identifier", ok)
		}
	}
	for _, bad := range []string{"", "1a", "a b", "a-b", "cafe\u0301"} {
		if IsIdentifier(bad) {
			t.Errorf("expected %q not to be an identifier", bad)
		}
	}
}
