package typemap

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

func TestDefaultMySQLMapping(t *testing.T) {
	tm := DefaultMySQL()

	tests := []struct {
		dataType schema.DataType
		want     string
	}{
		{schema.TypeBoolean, "BOOLEAN"},
		{schema.TypeInt16, "SMALLINT"},
		{schema.TypeInt32, "INT"},
		{schema.TypeInt64, "BIGINT"},
		{schema.TypeFloat32, "FLOAT"},
		{schema.TypeFloat64, "DOUBLE"},
		{schema.TypeString, "STRING"},
		{schema.TypeTimestamp, "TIMESTAMP(3)"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dataType), func(t *testing.T) {
			got := tm.MustResolve(tt.dataType)
			if got != tt.want {
				t.Errorf("MustResolve(%s) = %s, want %s", tt.dataType, got, tt.want)
			}
		})
	}
}

func TestEveryDialectMapsEveryType(t *testing.T) {
	for _, dialect := range []string{MySQL, Postgres} {
		tm, err := ForDialect(dialect)
		if err != nil {
			t.Fatal(err)
		}
		for _, dt := range schema.AllDataTypes {
			if _, ok := tm.Resolve(dt); !ok {
				t.Errorf("%s has no mapping for %s", dialect, dt)
			}
		}
	}
}

func TestForDialectUnknown(t *testing.T) {
	if _, err := ForDialect("oracle"); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestMustResolvePanicsOnUnmappedType(t *testing.T) {
	tm := DefaultMySQL()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected panic")
		}
		if !strings.Contains(r.(string), "Decimal") {
			t.Errorf("panic message should name the type, got %v", r)
		}
	}()
	tm.MustResolve(schema.DataType("Decimal"))
}

func TestOverride(t *testing.T) {
	tm, err := ForDialect(MySQL)
	if err != nil {
		t.Fatal(err)
	}

	tm.Override(schema.TypeString, "VARCHAR(255)")
	if got := tm.MustResolve(schema.TypeString); got != "VARCHAR(255)" {
		t.Errorf("expected VARCHAR(255) after override, got %s", got)
	}
	if !tm.IsOverridden(schema.TypeString) {
		t.Error("String should be marked as overridden")
	}

	// Setting back to the default clears the override.
	tm.Override(schema.TypeString, "STRING")
	if tm.IsOverridden(schema.TypeString) {
		t.Error("String should not be overridden once set back to its default")
	}

	tm.Override(schema.TypeInt32, "INTEGER")
	tm.RestoreDefault(schema.TypeInt32)
	if got := tm.MustResolve(schema.TypeInt32); got != "INT" {
		t.Errorf("expected INT after restore, got %s", got)
	}
}

func TestApplyOverrides(t *testing.T) {
	tm, err := ForDialect(Postgres)
	if err != nil {
		t.Fatal(err)
	}
	if err := tm.ApplyOverrides(map[string]string{"String": "VARCHAR(64)"}); err != nil {
		t.Fatal(err)
	}
	if got := tm.MustResolve(schema.TypeString); got != "VARCHAR(64)" {
		t.Errorf("expected VARCHAR(64), got %s", got)
	}
	if err := tm.ApplyOverrides(map[string]string{"Decimal": "NUMERIC"}); err == nil {
		t.Error("expected error for unknown data type")
	}
	if err := tm.ApplyOverrides(map[string]string{"Int32": ""}); err == nil {
		t.Error("expected error for empty keyword")
	}
}

func TestWriteAndLoadYAML(t *testing.T) {
	tm, err := ForDialect(Postgres)
	if err != nil {
		t.Fatal(err)
	}
	tm.Override(schema.TypeFloat32, "FLOAT4")

	path := filepath.Join(t.TempDir(), "types", "postgres.yaml")
	if err := tm.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	loaded, err := LoadYAML(path)
	if err != nil {
		t.Fatalf("LoadYAML: %v", err)
	}
	if loaded.Dialect != Postgres {
		t.Errorf("expected dialect postgres, got %s", loaded.Dialect)
	}
	if got := loaded.MustResolve(schema.TypeFloat32); got != "FLOAT4" {
		t.Errorf("expected FLOAT4, got %s", got)
	}
	if !loaded.IsOverridden(schema.TypeFloat32) {
		t.Error("Float32 should still be overridden after reload")
	}
	if loaded.IsOverridden(schema.TypeInt64) {
		t.Error("Int64 should not be overridden")
	}
}

func TestSortedTypes(t *testing.T) {
	types := DefaultMySQL().SortedTypes()
	if len(types) != len(schema.AllDataTypes) {
		t.Fatalf("expected %d types, got %d", len(schema.AllDataTypes), len(types))
	}
	for i := 1; i < len(types); i++ {
		if types[i-1] >= types[i] {
			t.Errorf("types not sorted: %v", types)
		}
	}
}
