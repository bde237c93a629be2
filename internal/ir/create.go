package ir

import "github.com/schemafuzz/schemafuzz/internal/schema"

// CreateTableExpr is one CREATE TABLE statement. It seeds the table context
// that the alter generators mutate.
type CreateTableExpr struct {
	TableName   string          `json:"table_name"`
	IfNotExists bool            `json:"if_not_exists"`
	Columns     []schema.Column `json:"columns"`
}

// TableContext builds the schema snapshot described by the statement. When
// the table has a time index column, time index columns are protected
// alongside primary keys.
func (e CreateTableExpr) TableContext() *schema.TableContext {
	protected := []schema.OptionKind{schema.OptionPrimaryKey}
	for _, c := range e.Columns {
		if c.HasOption(schema.OptionTimeIndex) {
			protected = append(protected, schema.OptionTimeIndex)
			break
		}
	}
	return schema.NewTableContext(e.TableName, e.Columns, protected...)
}

// FromTableContext returns the CREATE TABLE statement that produces ctx.
func FromTableContext(ctx *schema.TableContext) CreateTableExpr {
	return CreateTableExpr{
		TableName:   ctx.Name(),
		IfNotExists: true,
		Columns:     ctx.Columns(),
	}
}
