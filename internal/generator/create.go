package generator

import (
	"fmt"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/random"
	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// CreateTableConfig configures a CreateTableGenerator. Columns counts every
// column, including the time index and the primary key.
type CreateTableConfig struct {
	Columns                int `validate:"gte=2,lte=1024"`
	IfNotExists            bool
	NameGenerator          random.Strategy[string]
	ColumnOptionsGenerator random.OptionStrategy
	ColumnTypeGenerator    random.Strategy[schema.DataType]
}

// CreateTableGenerator generates CREATE TABLE statements that seed the
// contexts the alter generators work on.
type CreateTableGenerator struct {
	columns     int
	ifNotExists bool
	names       random.Strategy[string]
	options     random.OptionStrategy
	types       random.Strategy[schema.DataType]
}

// NewCreateTable validates cfg and returns the generator.
func NewCreateTable(cfg CreateTableConfig) (*CreateTableGenerator, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	g := &CreateTableGenerator{
		columns:     cfg.Columns,
		ifNotExists: cfg.IfNotExists,
		names:       cfg.NameGenerator,
		options:     cfg.ColumnOptionsGenerator,
		types:       cfg.ColumnTypeGenerator,
	}
	if g.names == nil {
		g.names = random.CapitalizedWords(nil)
	}
	if g.options == nil {
		g.options = random.NonKeyOptionGenerator{}
	}
	if g.types == nil {
		g.types = random.ColumnTypeGenerator{}
	}
	return g, nil
}

// Generate draws the table name, then the column names, then picks which
// column becomes the time index and which the primary key.
func (g *CreateTableGenerator) Generate(rng random.Rng) (ir.CreateTableExpr, error) {
	tableName := g.names.Next(rng)

	taken := foldSet{}
	names := make([]string, 0, g.columns)
	for len(names) < g.columns {
		name, err := uniqueName(rng, g.names, taken.has)
		if err != nil {
			return ir.CreateTableExpr{}, fmt.Errorf("create table %s: %w", tableName, err)
		}
		taken.add(name)
		names = append(names, name)
	}

	tsIdx := rng.IntN(g.columns)
	pkIdx := (tsIdx + 1 + rng.IntN(g.columns-1)) % g.columns

	columns := generateColumns(rng, names, g.types, g.options)
	columns[tsIdx] = schema.Column{
		Name:    names[tsIdx],
		Type:    schema.TypeTimestamp,
		Options: []schema.ColumnOption{schema.TimeIndex},
	}
	columns[pkIdx].Options = []schema.ColumnOption{schema.PrimaryKey}

	return ir.CreateTableExpr{
		TableName:   tableName,
		IfNotExists: g.ifNotExists,
		Columns:     columns,
	}, nil
}

var _ Generator[ir.CreateTableExpr] = (*CreateTableGenerator)(nil)
