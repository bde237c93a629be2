package generator

import (
	"fmt"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/random"
	"github.com/schemafuzz/schemafuzz/internal/schema"
)

// AddColumnConfig configures an AddColumnGenerator. Nil strategies are
// replaced by the defaults.
type AddColumnConfig struct {
	TableCtx               *schema.TableContext `validate:"required"`
	Location               bool
	NameGenerator          random.Strategy[string]
	ColumnOptionsGenerator random.OptionStrategy
	ColumnTypeGenerator    random.Strategy[schema.DataType]
}

// AddColumnGenerator generates ALTER TABLE ... ADD COLUMN.
type AddColumnGenerator struct {
	tableCtx *schema.TableContext
	location bool
	names    random.Strategy[string]
	options  random.OptionStrategy
	types    random.Strategy[schema.DataType]
}

// NewAddColumn validates cfg and returns the generator.
func NewAddColumn(cfg AddColumnConfig) (*AddColumnGenerator, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.Location && cfg.TableCtx.NumColumns() == 0 {
		return nil, &ConfigError{Field: "Location", Reason: "placement needs a table with at least one column"}
	}

	g := &AddColumnGenerator{
		tableCtx: cfg.TableCtx,
		location: cfg.Location,
		names:    cfg.NameGenerator,
		options:  cfg.ColumnOptionsGenerator,
		types:    cfg.ColumnTypeGenerator,
	}
	if g.names == nil {
		g.names = random.WordGenerator{}
	}
	if g.options == nil {
		g.options = random.ColumnOptionGenerator{}
	}
	if g.types == nil {
		g.types = random.ColumnTypeGenerator{}
	}
	return g, nil
}

// Generate draws the placement first, then the column.
func (g *AddColumnGenerator) Generate(rng random.Rng) (ir.AlterTableExpr, error) {
	var loc ir.Location
	if g.location && random.Bool(rng) {
		if random.Bool(rng) {
			loc = ir.First{}
		} else {
			col := g.tableCtx.ColumnAt(rng.IntN(g.tableCtx.NumColumns()))
			loc = ir.After{ColumnName: col.Name}
		}
	}

	name, err := uniqueName(rng, g.names, g.tableCtx.HasColumnFold)
	if err != nil {
		return ir.AlterTableExpr{}, fmt.Errorf("add column to %s: %w", g.tableCtx.Name(), err)
	}
	column := generateColumns(rng, []string{name}, g.types, g.options)[0]

	return ir.AlterTableExpr{
		TableName: g.tableCtx.Name(),
		Operation: ir.AddColumn{Column: column, Location: loc},
	}, nil
}

// DropColumnConfig configures a DropColumnGenerator.
type DropColumnConfig struct {
	TableCtx *schema.TableContext `validate:"required"`
}

// DropColumnGenerator generates ALTER TABLE ... DROP COLUMN for columns
// that are not protected.
type DropColumnGenerator struct {
	tableCtx *schema.TableContext
}

// NewDropColumn validates cfg and returns the generator.
func NewDropColumn(cfg DropColumnConfig) (*DropColumnGenerator, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	return &DropColumnGenerator{tableCtx: cfg.TableCtx}, nil
}

// Generate picks a droppable column uniformly. It returns an error wrapping
// ErrNoDroppableColumns when every column is protected.
func (g *DropColumnGenerator) Generate(rng random.Rng) (ir.AlterTableExpr, error) {
	droppable := g.tableCtx.DroppableColumns()
	if len(droppable) == 0 {
		return ir.AlterTableExpr{}, fmt.Errorf("drop column from %s: %w", g.tableCtx.Name(), ErrNoDroppableColumns)
	}
	col := droppable[rng.IntN(len(droppable))]
	return ir.AlterTableExpr{
		TableName: g.tableCtx.Name(),
		Operation: ir.DropColumn{Name: col.Name},
	}, nil
}

// RenameTableConfig configures a RenameTableGenerator.
type RenameTableConfig struct {
	TableCtx      *schema.TableContext `validate:"required"`
	NameGenerator random.Strategy[string]
}

// RenameTableGenerator generates ALTER TABLE ... RENAME.
type RenameTableGenerator struct {
	tableCtx *schema.TableContext
	names    random.Strategy[string]
}

// NewRenameTable validates cfg and returns the generator.
func NewRenameTable(cfg RenameTableConfig) (*RenameTableGenerator, error) {
	if err := checkConfig(cfg); err != nil {
		return nil, err
	}
	g := &RenameTableGenerator{tableCtx: cfg.TableCtx, names: cfg.NameGenerator}
	if g.names == nil {
		g.names = random.WordGenerator{}
	}
	return g, nil
}

// Generate draws a new table name. Names equal to the current one are
// redrawn so the statement always changes the table.
func (g *RenameTableGenerator) Generate(rng random.Rng) (ir.AlterTableExpr, error) {
	current := foldSet{}
	current.add(g.tableCtx.Name())
	name, err := uniqueName(rng, g.names, current.has)
	if err != nil {
		return ir.AlterTableExpr{}, fmt.Errorf("rename %s: %w", g.tableCtx.Name(), err)
	}
	return ir.AlterTableExpr{
		TableName: g.tableCtx.Name(),
		Operation: ir.RenameTable{NewTableName: name},
	}, nil
}

var (
	_ Generator[ir.AlterTableExpr] = (*AddColumnGenerator)(nil)
	_ Generator[ir.AlterTableExpr] = (*DropColumnGenerator)(nil)
	_ Generator[ir.AlterTableExpr] = (*RenameTableGenerator)(nil)
)
