package ir

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

func TestAlterTableExprJSON(t *testing.T) {
	tests := []struct {
		name string
		expr AlterTableExpr
		want string
	}{
		{
			name: "add column without location",
			expr: AlterTableExpr{
				TableName: "DigNissIMOS",
				Operation: AddColumn{
					Column: schema.Column{Name: "sit", Type: schema.TypeBoolean, Options: []schema.ColumnOption{schema.PrimaryKey}},
				},
			},
			want: `{"table_name":"DigNissIMOS","alter_options":{"AddColumn":{"column":{"name":"sit","column_type":{"Boolean":null},"options":["PrimaryKey"]},"location":null}}}`,
		},
		{
			name: "add column first",
			expr: AlterTableExpr{
				TableName: "t",
				Operation: AddColumn{
					Column:   schema.Column{Name: "c", Type: schema.TypeInt32},
					Location: First{},
				},
			},
			want: `{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Int32":null},"options":[]},"location":"First"}}}`,
		},
		{
			name: "add column after",
			expr: AlterTableExpr{
				TableName: "t",
				Operation: AddColumn{
					Column:   schema.Column{Name: "c", Type: schema.TypeString, Options: []schema.ColumnOption{schema.DefaultValue("'x'")}},
					Location: After{ColumnName: "b"},
				},
			},
			want: `{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"String":null},"options":[{"DefaultValue":"'x'"}]},"location":{"After":{"column_name":"b"}}}}}`,
		},
		{
			name: "rename",
			expr: AlterTableExpr{TableName: "DigNissIMOS", Operation: RenameTable{NewTableName: "excepturi"}},
			want: `{"table_name":"DigNissIMOS","alter_options":{"RenameTable":{"new_table_name":"excepturi"}}}`,
		},
		{
			name: "drop",
			expr: AlterTableExpr{TableName: "DigNissIMOS", Operation: DropColumn{Name: "INVentORE"}},
			want: `{"table_name":"DigNissIMOS","alter_options":{"DropColumn":{"name":"INVentORE"}}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.expr)
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(data) != tt.want {
				t.Fatalf("got  %s\nwant %s", data, tt.want)
			}

			var back AlterTableExpr
			if err := json.Unmarshal(data, &back); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			again, err := json.Marshal(back)
			if err != nil {
				t.Fatalf("re-marshal: %v", err)
			}
			if string(again) != tt.want {
				t.Errorf("decode changed the expression: %s", again)
			}
		})
	}
}

func TestAlterTableExprJSONErrors(t *testing.T) {
	bad := []string{
		`{"table_name":"t","alter_options":{}}`,
		`{"table_name":"t","alter_options":{"Truncate":{}}}`,
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Int32":null},"options":[]},"location":"Last"}}}`,
		`{"table_name":"t","alter_options":{"DropColumn":{"name":"a"},"RenameTable":{"new_table_name":"b"}}}`,
		// Types and options a translator could not render.
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":"Varchar","options":[]},"location":null}}}`,
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Varchar":null},"options":[]},"location":null}}}`,
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Int32":null},"options":["Unique"]},"location":null}}}`,
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Int32":null},"options":[{"DefaultValue":""}]},"location":"First"}}}`,
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Int32":null},"options":[{"PrimaryKey":"x"}]},"location":null}}}`,
		`{"table_name":"t","alter_options":{"AddColumn":{"column":{"name":"c","column_type":{"Int32":null},"options":["DefaultValue"]},"location":null}}}`,
	}
	for _, in := range bad {
		var e AlterTableExpr
		if err := json.Unmarshal([]byte(in), &e); err == nil {
			t.Errorf("expected error decoding %s", in)
		}
	}

	if _, err := json.Marshal(AlterTableExpr{TableName: "t"}); err == nil {
		t.Error("expected error marshaling expression without operation")
	}
}

func baseContext() *schema.TableContext {
	return schema.NewTableContext("t", []schema.Column{
		{Name: "id", Type: schema.TypeInt64, Options: []schema.ColumnOption{schema.PrimaryKey}},
		{Name: "a", Type: schema.TypeString},
		{Name: "b", Type: schema.TypeFloat64},
	})
}

func columnNames(ctx *schema.TableContext) []string {
	var names []string
	for _, c := range ctx.Columns() {
		names = append(names, c.Name)
	}
	return names
}

func TestApply(t *testing.T) {
	newCol := schema.Column{Name: "c", Type: schema.TypeBoolean}

	tests := []struct {
		name      string
		op        AlterTableOperation
		wantCols  []string
		wantTable string
	}{
		{"append", AddColumn{Column: newCol}, []string{"id", "a", "b", "c"}, "t"},
		{"first", AddColumn{Column: newCol, Location: First{}}, []string{"c", "id", "a", "b"}, "t"},
		{"after", AddColumn{Column: newCol, Location: After{ColumnName: "a"}}, []string{"id", "a", "c", "b"}, "t"},
		{"after last", AddColumn{Column: newCol, Location: After{ColumnName: "b"}}, []string{"id", "a", "b", "c"}, "t"},
		{"drop", DropColumn{Name: "a"}, []string{"id", "b"}, "t"},
		{"rename", RenameTable{NewTableName: "u"}, []string{"id", "a", "b"}, "u"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := baseContext()
			out, err := Apply(ctx, AlterTableExpr{TableName: "t", Operation: tt.op})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.wantCols, columnNames(out)); diff != "" {
				t.Errorf("columns mismatch (-want +got):\n%s", diff)
			}
			if out.Name() != tt.wantTable {
				t.Errorf("expected table %s, got %s", tt.wantTable, out.Name())
			}
			if diff := cmp.Diff([]string{"id", "a", "b"}, columnNames(ctx)); diff != "" {
				t.Errorf("Apply mutated its input (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyRejectsInconsistentIR(t *testing.T) {
	tests := []struct {
		name    string
		expr    AlterTableExpr
		wantErr string
	}{
		{"wrong table", AlterTableExpr{TableName: "x", Operation: DropColumn{Name: "a"}}, "context is t"},
		{"duplicate column", AlterTableExpr{TableName: "t", Operation: AddColumn{Column: schema.Column{Name: "A", Type: schema.TypeInt32}}}, "already exists"},
		{"unknown after", AlterTableExpr{TableName: "t", Operation: AddColumn{Column: schema.Column{Name: "z", Type: schema.TypeInt32}, Location: After{ColumnName: "nope"}}}, "does not exist"},
		{"drop unknown", AlterTableExpr{TableName: "t", Operation: DropColumn{Name: "nope"}}, "does not exist"},
		{"drop protected", AlterTableExpr{TableName: "t", Operation: DropColumn{Name: "id"}}, "protected"},
		{"empty rename", AlterTableExpr{TableName: "t", Operation: RenameTable{}}, "empty name"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Apply(baseContext(), tt.expr)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestCreateTableContext(t *testing.T) {
	create := CreateTableExpr{
		TableName: "m",
		Columns: []schema.Column{
			{Name: "host", Type: schema.TypeString, Options: []schema.ColumnOption{schema.PrimaryKey}},
			{Name: "ts", Type: schema.TypeTimestamp, Options: []schema.ColumnOption{schema.TimeIndex}},
			{Name: "v", Type: schema.TypeFloat64},
		},
	}
	ctx := create.TableContext()
	droppable := ctx.DroppableColumns()
	if len(droppable) != 1 || droppable[0].Name != "v" {
		t.Errorf("expected only v to be droppable, got %v", droppable)
	}

	back := FromTableContext(ctx)
	if diff := cmp.Diff(create.Columns, back.Columns); diff != "" {
		t.Errorf("columns mismatch (-want +got):\n%s", diff)
	}
}
