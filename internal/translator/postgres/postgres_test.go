package postgres

import (
	"errors"
	"testing"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
)

func TestTranslateAlter(t *testing.T) {
	tests := []struct {
		name string
		expr ir.AlterTableExpr
		want string
	}{
		{
			name: "add column",
			expr: ir.AlterTableExpr{
				TableName: "Test",
				Operation: ir.AddColumn{Column: schema.Column{Name: "host", Type: schema.TypeString, Options: []schema.ColumnOption{schema.PrimaryKey}}},
			},
			want: `ALTER TABLE "Test" ADD COLUMN "host" TEXT PRIMARY KEY;`,
		},
		{
			name: "add time index column",
			expr: ir.AlterTableExpr{
				TableName: "t",
				Operation: ir.AddColumn{Column: schema.Column{
					Name:    "ts",
					Type:    schema.TypeTimestamp,
					Options: []schema.ColumnOption{schema.NotNull, schema.TimeIndex},
				}},
			},
			want: `ALTER TABLE "t" ADD COLUMN "ts" TIMESTAMP(3) NOT NULL;`,
		},
		{
			name: "drop column",
			expr: ir.AlterTableExpr{TableName: "test", Operation: ir.DropColumn{Name: "foo"}},
			want: `ALTER TABLE "test" DROP COLUMN "foo";`,
		},
		{
			name: "rename",
			expr: ir.AlterTableExpr{TableName: "test", Operation: ir.RenameTable{NewTableName: "Foo"}},
			want: `ALTER TABLE "test" RENAME TO "Foo";`,
		},
		{
			name: "quote in identifier",
			expr: ir.AlterTableExpr{TableName: `a"b`, Operation: ir.DropColumn{Name: "c"}},
			want: `ALTER TABLE "a""b" DROP COLUMN "c";`,
		},
	}

	tr := New(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tr.TranslateAlter(tt.expr)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got  %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestPlacementUnsupported(t *testing.T) {
	for _, loc := range []ir.Location{ir.First{}, ir.After{ColumnName: "a"}} {
		_, err := New(nil).TranslateAlter(ir.AlterTableExpr{
			TableName: "t",
			Operation: ir.AddColumn{Column: schema.Column{Name: "c", Type: schema.TypeInt32}, Location: loc},
		})
		if !errors.Is(err, translator.ErrUnsupportedPlacement) {
			t.Errorf("%T: expected ErrUnsupportedPlacement, got %v", loc, err)
		}
	}
}

func TestTranslateCreate(t *testing.T) {
	expr := ir.CreateTableExpr{
		TableName:   "Monitor",
		IfNotExists: true,
		Columns: []schema.Column{
			{Name: "host", Type: schema.TypeString, Options: []schema.ColumnOption{schema.PrimaryKey}},
			{Name: "ts", Type: schema.TypeTimestamp, Options: []schema.ColumnOption{schema.TimeIndex}},
			{Name: "cpu", Type: schema.TypeFloat32, Options: []schema.ColumnOption{schema.Null}},
		},
	}
	want := `CREATE TABLE IF NOT EXISTS "Monitor"("host" TEXT, "ts" TIMESTAMP(3) NOT NULL, "cpu" REAL NULL, PRIMARY KEY ("host"));`

	got, err := New(nil).TranslateCreate(expr)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got  %q\nwant %q", got, want)
	}
}
