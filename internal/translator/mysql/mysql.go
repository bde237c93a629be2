// Package mysql renders IR in the MySQL-compatible dialect accepted by the
// database under test.
package mysql

import (
	"fmt"
	"strings"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
	"github.com/schemafuzz/schemafuzz/internal/typemap"
)

func init() {
	translator.Register(typemap.MySQL, func(tm *typemap.TypeMap) translator.Translator { return New(tm) })
}

// Translator is the MySQL translator. It is stateless apart from its type
// map and safe for concurrent use.
type Translator struct {
	types *typemap.TypeMap
}

// New returns a translator using tm, or the MySQL defaults when tm is nil.
func New(tm *typemap.TypeMap) *Translator {
	if tm == nil {
		tm = typemap.DefaultMySQL()
	}
	return &Translator{types: tm}
}

func (t *Translator) Dialect() string { return typemap.MySQL }

// TranslateAlter renders one ALTER TABLE statement.
func (t *Translator) TranslateAlter(expr ir.AlterTableExpr) (string, error) {
	switch op := expr.Operation.(type) {
	case ir.AddColumn:
		return fmt.Sprintf("%s;", translator.Join(
			"ALTER TABLE", expr.TableName, "ADD COLUMN", t.column(op.Column), location(op.Location),
		)), nil
	case ir.DropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", expr.TableName, op.Name), nil
	case ir.RenameTable:
		return fmt.Sprintf("ALTER TABLE %s RENAME %s;", expr.TableName, op.NewTableName), nil
	default:
		return "", fmt.Errorf("mysql: unknown alter operation %T", expr.Operation)
	}
}

// TranslateCreate renders one CREATE TABLE statement. TIME INDEX and
// PRIMARY KEY column options become table constraints.
func (t *Translator) TranslateCreate(expr ir.CreateTableExpr) (string, error) {
	if len(expr.Columns) == 0 {
		return "", fmt.Errorf("mysql: create table %s has no columns", expr.TableName)
	}

	defs := make([]string, 0, len(expr.Columns)+2)
	for _, c := range expr.Columns {
		c.Options = translator.WithoutOptions(c.Options, schema.OptionTimeIndex, schema.OptionPrimaryKey)
		defs = append(defs, t.column(c))
	}
	timeIndex, keys := translator.Constraints(expr.Columns)
	if timeIndex != "" {
		defs = append(defs, fmt.Sprintf("TIME INDEX (%s)", timeIndex))
	}
	if len(keys) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(keys, ", ")))
	}

	head := "CREATE TABLE "
	if expr.IfNotExists {
		head += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s(%s);", head, expr.TableName, strings.Join(defs, ", ")), nil
}

func (t *Translator) column(c schema.Column) string {
	return translator.Join(c.Name, t.types.MustResolve(c.Type), translator.Options(c.Options))
}

func location(loc ir.Location) string {
	switch l := loc.(type) {
	case ir.First:
		return "FIRST"
	case ir.After:
		return "AFTER " + l.ColumnName
	default:
		return ""
	}
}
