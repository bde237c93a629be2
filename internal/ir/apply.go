package ir

import (
	"fmt"

	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// Apply returns the table context that results from executing expr against
// ctx. ctx itself is never modified. IR that could not have come from a
// generator run against ctx is rejected.
func Apply(ctx *schema.TableContext, expr AlterTableExpr) (*schema.TableContext, error) {
	if expr.TableName != ctx.Name() {
		return nil, fmt.Errorf("alter targets table %s, context is %s", expr.TableName, ctx.Name())
	}

	switch op := expr.Operation.(type) {
	case AddColumn:
		return applyAddColumn(ctx, op)
	case DropColumn:
		col, idx, ok := ctx.FindColumn(op.Name)
		if !ok {
			return nil, fmt.Errorf("drop column: %s does not exist in %s", op.Name, ctx.Name())
		}
		if ctx.IsProtected(col) {
			return nil, fmt.Errorf("drop column: %s is protected in %s", op.Name, ctx.Name())
		}
		cols := ctx.Columns()
		cols = append(cols[:idx], cols[idx+1:]...)
		return ctx.WithColumns(cols), nil
	case RenameTable:
		if op.NewTableName == "" {
			return nil, fmt.Errorf("rename table: empty name")
		}
		return ctx.WithName(op.NewTableName), nil
	default:
		return nil, fmt.Errorf("unknown alter operation %T", expr.Operation)
	}
}

func applyAddColumn(ctx *schema.TableContext, op AddColumn) (*schema.TableContext, error) {
	if ctx.HasColumnFold(op.Column.Name) {
		return nil, fmt.Errorf("add column: %s already exists in %s", op.Column.Name, ctx.Name())
	}

	cols := ctx.Columns()
	pos := len(cols)
	switch loc := op.Location.(type) {
	case nil:
	case First:
		pos = 0
	case After:
		_, idx, ok := ctx.FindColumn(loc.ColumnName)
		if !ok {
			return nil, fmt.Errorf("add column: AFTER %s does not exist in %s", loc.ColumnName, ctx.Name())
		}
		pos = idx + 1
	default:
		return nil, fmt.Errorf("add column: unknown location %T", op.Location)
	}

	out := make([]schema.Column, 0, len(cols)+1)
	out = append(out, cols[:pos]...)
	out = append(out, op.Column.Clone())
	out = append(out, cols[pos:]...)
	return ctx.WithColumns(out), nil
}
