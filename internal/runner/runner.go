// Package runner drives fuzz scenarios. A scenario seeds a table with a
// generated CREATE TABLE and then evolves it through a sequence of random
// ALTER TABLE statements, each applied to the table context before the next
// is generated.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/schemafuzz/schemafuzz/internal/generator"
	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/logging"
	"github.com/schemafuzz/schemafuzz/internal/metrics"
	"github.com/schemafuzz/schemafuzz/internal/random"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
)

// Operation names, matching ir.AlterTableOperation.Kind.
const (
	OpAddColumn   = "AddColumn"
	OpDropColumn  = "DropColumn"
	OpRenameTable = "RenameTable"
)

// Weights sets the relative frequency of each operation.
type Weights struct {
	AddColumn   int `json:"add_column"`
	DropColumn  int `json:"drop_column"`
	RenameTable int `json:"rename_table"`
}

func (w Weights) total() int { return w.AddColumn + w.DropColumn + w.RenameTable }

// pick draws an operation with probability proportional to its weight.
func (w Weights) pick(rng random.Rng) string {
	n := rng.IntN(w.total())
	if n < w.AddColumn {
		return OpAddColumn
	}
	if n < w.AddColumn+w.DropColumn {
		return OpDropColumn
	}
	return OpRenameTable
}

// Options configures a run. The fields that influence generated output are
// exactly the ones recorded in a replay manifest.
type Options struct {
	Seed       uint64
	Scenarios  int
	Statements int
	Columns    int
	Workers    int
	Location   bool
	Weights    Weights
	// Words is the name dictionary; nil selects the built-in words.
	Words []string
	// Protected overrides the protected option kinds. Nil protects primary
	// keys and the time index.
	Protected []schema.OptionKind

	Translator translator.Translator
	Logger     *slog.Logger
}

func (o *Options) validate() error {
	switch {
	case o.Scenarios < 1:
		return fmt.Errorf("scenarios must be positive, got %d", o.Scenarios)
	case o.Statements < 0:
		return fmt.Errorf("statements must not be negative, got %d", o.Statements)
	case o.Weights.total() <= 0:
		return fmt.Errorf("at least one operation weight must be positive")
	case o.Weights.AddColumn < 0 || o.Weights.DropColumn < 0 || o.Weights.RenameTable < 0:
		return fmt.Errorf("operation weights must not be negative")
	case o.Translator == nil:
		return fmt.Errorf("translator is required")
	}
	return nil
}

// Step is one ALTER step of a scenario. Exactly one of SQL and Skipped is set.
type Step struct {
	Index     int                `json:"index"`
	Operation string             `json:"operation"`
	Expr      *ir.AlterTableExpr `json:"expr,omitempty"`
	SQL       string             `json:"sql,omitempty"`
	Skipped   string             `json:"skipped,omitempty"`
}

// Scenario is the outcome of one scenario.
type Scenario struct {
	Index     int                  `json:"index"`
	Create    ir.CreateTableExpr   `json:"create"`
	CreateSQL string               `json:"create_sql"`
	Steps     []Step               `json:"steps"`
	Final     *schema.TableContext `json:"-"`
	Duration  time.Duration        `json:"-"`
}

// Statements returns the SQL of the scenario in execution order.
func (s Scenario) Statements() []string {
	out := make([]string, 0, len(s.Steps)+1)
	out = append(out, s.CreateSQL)
	for _, st := range s.Steps {
		if st.SQL != "" {
			out = append(out, st.SQL)
		}
	}
	return out
}

// Exhausted counts the skipped steps.
func (s Scenario) Exhausted() int {
	n := 0
	for _, st := range s.Steps {
		if st.Skipped != "" {
			n++
		}
	}
	return n
}

// Result is the outcome of a run, with scenarios in index order.
type Result struct {
	Seed      uint64     `json:"seed"`
	Dialect   string     `json:"dialect"`
	Scenarios []Scenario `json:"scenarios"`
}

// Run executes every scenario on up to Workers goroutines. Each scenario
// owns a random stream derived from (Seed, index), so the result does not
// depend on scheduling.
func Run(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("invalid run options: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	res := &Result{
		Seed:      opts.Seed,
		Dialect:   opts.Translator.Dialect(),
		Scenarios: make([]Scenario, opts.Scenarios),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < opts.Scenarios; i++ {
		g.Go(func() error {
			sc, err := RunScenario(gctx, opts, i)
			if err != nil {
				return fmt.Errorf("scenario %d: %w", i, err)
			}
			res.Scenarios[i] = sc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}

// RunScenario executes scenario index of the run described by opts.
func RunScenario(ctx context.Context, opts Options, index int) (sc Scenario, err error) {
	start := time.Now()
	defer func() {
		sc.Duration = time.Since(start)
		metrics.RecordScenario(err, sc.Duration)
	}()

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("scenario", index, "seed", opts.Seed)

	rng := random.NewStream(opts.Seed, uint64(index))
	names := random.CapitalizedWords(opts.Words)
	dialect := opts.Translator.Dialect()

	create, err := generator.NewCreateTable(generator.CreateTableConfig{
		Columns:       opts.Columns,
		IfNotExists:   true,
		NameGenerator: names,
	})
	if err != nil {
		return sc, err
	}
	sc.Index = index
	sc.Create, err = create.Generate(rng)
	if err != nil {
		return sc, err
	}
	sc.CreateSQL, err = opts.Translator.TranslateCreate(sc.Create)
	if err != nil {
		return sc, fmt.Errorf("translating create: %w", err)
	}
	metrics.RecordStatement(dialect, "CreateTable")

	tableCtx := sc.Create.TableContext()
	if len(opts.Protected) > 0 {
		tableCtx = schema.NewTableContext(sc.Create.TableName, sc.Create.Columns, opts.Protected...)
	}

	for k := 0; k < opts.Statements; k++ {
		if err := ctx.Err(); err != nil {
			return sc, err
		}

		op := opts.Weights.pick(rng)
		step := Step{Index: k, Operation: op}

		g, err := newGenerator(op, tableCtx, names, opts.Location)
		if err != nil {
			return sc, err
		}
		expr, err := g.Generate(rng)
		if reason := skipReason(err); reason != "" {
			step.Skipped = reason
			sc.Steps = append(sc.Steps, step)
			metrics.RecordExhausted(op, reason)
			logger.Debug("step skipped", "step", k, "operation", op, "reason", reason)
			continue
		}
		if err != nil {
			return sc, fmt.Errorf("step %d: %w", k, err)
		}

		sql, err := opts.Translator.TranslateAlter(expr)
		if reason := skipReason(err); reason != "" {
			step.Skipped = reason
			sc.Steps = append(sc.Steps, step)
			metrics.RecordExhausted(op, reason)
			logger.Debug("step skipped", "step", k, "operation", op, "reason", reason)
			continue
		}
		if err != nil {
			return sc, fmt.Errorf("step %d: translating: %w", k, err)
		}

		next, err := ir.Apply(tableCtx, expr)
		if err != nil {
			return sc, fmt.Errorf("step %d: generated IR does not apply: %w", k, err)
		}
		tableCtx = next

		step.Expr = &expr
		step.SQL = sql
		sc.Steps = append(sc.Steps, step)
		metrics.RecordStatement(dialect, op)
	}

	sc.Final = tableCtx
	logger.Info("scenario finished",
		"table", sc.Create.TableName,
		"statements", len(sc.Statements()),
		"exhausted", sc.Exhausted(),
		"columns", tableCtx.NumColumns(),
	)
	return sc, nil
}

func newGenerator(op string, tableCtx *schema.TableContext, names random.Strategy[string], location bool) (generator.Generator[ir.AlterTableExpr], error) {
	switch op {
	case OpAddColumn:
		return generator.NewAddColumn(generator.AddColumnConfig{
			TableCtx:      tableCtx,
			Location:      location && tableCtx.NumColumns() > 0,
			NameGenerator: names,
		})
	case OpDropColumn:
		return generator.NewDropColumn(generator.DropColumnConfig{TableCtx: tableCtx})
	case OpRenameTable:
		return generator.NewRenameTable(generator.RenameTableConfig{TableCtx: tableCtx, NameGenerator: names})
	default:
		return nil, fmt.Errorf("unknown operation %q", op)
	}
}

// skipReason classifies the errors that end a step without failing the
// scenario. It returns "" for nil and for real failures.
func skipReason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, generator.ErrNoDroppableColumns):
		return "no_droppable_columns"
	case errors.Is(err, generator.ErrNoUniqueName):
		return "no_unique_name"
	case errors.Is(err, translator.ErrUnsupportedPlacement):
		return "unsupported_placement"
	default:
		return ""
	}
}
