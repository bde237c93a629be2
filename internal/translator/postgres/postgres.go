// Package postgres renders IR as PostgreSQL DDL. Identifiers are always
// quoted. PostgreSQL has no column placement and no time index, so
// placement is rejected and a time index column is rendered NOT NULL.
package postgres

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
	"github.com/schemafuzz/schemafuzz/internal/typemap"
)

func init() {
	translator.Register(typemap.Postgres, func(tm *typemap.TypeMap) translator.Translator { return New(tm) })
}

// Translator is the PostgreSQL translator.
type Translator struct {
	types *typemap.TypeMap
}

// New returns a translator using tm, or the PostgreSQL defaults when tm is nil.
func New(tm *typemap.TypeMap) *Translator {
	if tm == nil {
		tm = typemap.DefaultPostgres()
	}
	return &Translator{types: tm}
}

func (t *Translator) Dialect() string { return typemap.Postgres }

func quote(name string) string {
	return pgx.Identifier{name}.Sanitize()
}

// TranslateAlter renders one ALTER TABLE statement.
func (t *Translator) TranslateAlter(expr ir.AlterTableExpr) (string, error) {
	table := quote(expr.TableName)
	switch op := expr.Operation.(type) {
	case ir.AddColumn:
		if op.Location != nil {
			return "", fmt.Errorf("postgres: add column %s: %w", op.Column.Name, translator.ErrUnsupportedPlacement)
		}
		return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s;", table, t.column(op.Column, true)), nil
	case ir.DropColumn:
		return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s;", table, quote(op.Name)), nil
	case ir.RenameTable:
		return fmt.Sprintf("ALTER TABLE %s RENAME TO %s;", table, quote(op.NewTableName)), nil
	default:
		return "", fmt.Errorf("postgres: unknown alter operation %T", expr.Operation)
	}
}

// TranslateCreate renders one CREATE TABLE statement with the primary key
// as a table constraint.
func (t *Translator) TranslateCreate(expr ir.CreateTableExpr) (string, error) {
	if len(expr.Columns) == 0 {
		return "", fmt.Errorf("postgres: create table %s has no columns", expr.TableName)
	}

	defs := make([]string, 0, len(expr.Columns)+1)
	for _, c := range expr.Columns {
		defs = append(defs, t.column(c, false))
	}
	if _, keys := translator.Constraints(expr.Columns); len(keys) > 0 {
		quoted := make([]string, len(keys))
		for i, k := range keys {
			quoted[i] = quote(k)
		}
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(quoted, ", ")))
	}

	head := "CREATE TABLE "
	if expr.IfNotExists {
		head += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s(%s);", head, quote(expr.TableName), strings.Join(defs, ", ")), nil
}

// column renders a column definition. Inline primary keys are kept only for
// ADD COLUMN; CREATE TABLE lists them as a constraint instead.
func (t *Translator) column(c schema.Column, inlineKey bool) string {
	var opts []string
	seen := make(map[string]bool)
	for _, o := range c.Options {
		var s string
		switch o.Kind {
		case schema.OptionTimeIndex:
			s = schema.NotNull.String()
		case schema.OptionPrimaryKey:
			if !inlineKey {
				continue
			}
			s = o.String()
		default:
			s = o.String()
		}
		if !seen[s] {
			seen[s] = true
			opts = append(opts, s)
		}
	}
	return translator.Join(quote(c.Name), t.types.MustResolve(c.Type), translator.Join(opts...))
}
