package cmd

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/schemafuzz/schemafuzz/internal/codegen"
	"github.com/schemafuzz/schemafuzz/internal/config"
	"github.com/schemafuzz/schemafuzz/internal/lock"
	"github.com/schemafuzz/schemafuzz/internal/metrics"
	"github.com/schemafuzz/schemafuzz/internal/metrics/datadog"
	"github.com/schemafuzz/schemafuzz/internal/metrics/prom"
	"github.com/schemafuzz/schemafuzz/internal/random"
	"github.com/schemafuzz/schemafuzz/internal/replay"
	"github.com/schemafuzz/schemafuzz/internal/report"
	"github.com/schemafuzz/schemafuzz/internal/runner"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate random DDL scenarios",
	Long: `Generate seeds each scenario with a random CREATE TABLE and evolves it with
random ALTER TABLE statements. The output directory receives:

  statements.sql  the rendered statements
  replay.json     the seed and fingerprints needed to reproduce the run
  report.json     run totals and per-scenario summaries
  metrics.prom    Prometheus textfile (when metrics are enabled)

A seed of 0 draws a fresh seed; the seed used is recorded in replay.json.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		applyGenerateFlags(cmd, cfg)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := setupLogging(cfg); err != nil {
			return err
		}

		if cfg.Fuzz.Seed == 0 {
			cfg.Fuzz.Seed = rand.Uint64()
		}

		var words []string
		if cfg.Fuzz.Dictionary != "" {
			words, err = random.LoadWords(config.ExpandHome(cfg.Fuzz.Dictionary))
			if err != nil {
				return err
			}
		}

		tr, err := translator.ForDialect(cfg.Dialect, cfg.TypeOverrides)
		if err != nil {
			return err
		}

		out := cfg.Output.Directory
		if err := lock.Acquire(out); err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(out); err != nil {
				logger.Warn("releasing output lock", "error", err)
			}
		}()

		backend, err := metricsBackend(cfg)
		if err != nil {
			return err
		}
		if backend != nil {
			prev := metrics.SetBackend(backend)
			defer metrics.SetBackend(prev)
		}

		opts := runner.Options{
			Seed:       cfg.Fuzz.Seed,
			Scenarios:  cfg.Fuzz.Scenarios,
			Statements: cfg.Fuzz.Statements,
			Columns:    cfg.Fuzz.Columns,
			Workers:    cfg.Fuzz.Workers,
			Location:   cfg.Fuzz.Location,
			Weights: runner.Weights{
				AddColumn:   cfg.Fuzz.Weights.AddColumn,
				DropColumn:  cfg.Fuzz.Weights.DropColumn,
				RenameTable: cfg.Fuzz.Weights.RenameTable,
			},
			Words:      words,
			Protected:  protectedKinds(cfg.Fuzz.Protected),
			Translator: tr,
			Logger:     logger,
		}

		runID := uuid.NewString()
		logger.Info("starting run", "run_id", runID, "seed", opts.Seed, "dialect", cfg.Dialect, "scenarios", opts.Scenarios)

		res, err := runner.Run(cmd.Context(), opts)
		if err != nil {
			return fmt.Errorf("running scenarios: %w", err)
		}

		g := &codegen.Generator{RunID: runID, Skipped: resolveBoolFlag(cmd, "skipped")}
		if err := g.WriteFile(res, filepath.Join(out, codegen.FileName)); err != nil {
			return fmt.Errorf("writing statements: %w", err)
		}

		m := replay.NewManifest(runID, res, opts, cfg.TypeOverrides, cfg.Fuzz.Dictionary)
		if err := m.Save(filepath.Join(out, replay.FileName)); err != nil {
			return err
		}

		r := report.GenerateReport(runID, res, m, nil)
		if err := report.WriteJSON(r, filepath.Join(out, report.FileName)); err != nil {
			return err
		}

		if err := metrics.Flush(); err != nil {
			return fmt.Errorf("flushing metrics: %w", err)
		}

		fmt.Println(report.FormatText(r))
		fmt.Printf("Output written to %s\n", out)
		return nil
	},
}

func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	if isSet(cmd, "seed") {
		cfg.Fuzz.Seed = resolveUint64Flag(cmd, "seed")
	}
	if isSet(cmd, "scenarios") {
		cfg.Fuzz.Scenarios = resolveIntFlag(cmd, "scenarios")
	}
	if isSet(cmd, "statements") {
		cfg.Fuzz.Statements = resolveIntFlag(cmd, "statements")
	}
	if isSet(cmd, "columns") {
		cfg.Fuzz.Columns = resolveIntFlag(cmd, "columns")
	}
	if isSet(cmd, "workers") {
		cfg.Fuzz.Workers = resolveIntFlag(cmd, "workers")
	}
	if isSet(cmd, "location") {
		cfg.Fuzz.Location = resolveBoolFlag(cmd, "location")
	}
	if isSet(cmd, "dialect") {
		cfg.Dialect = resolveStringFlag(cmd, "dialect")
	}
	if isSet(cmd, "dictionary") {
		cfg.Fuzz.Dictionary = resolveStringFlag(cmd, "dictionary")
	}
	if isSet(cmd, "metrics") {
		cfg.Metrics.Enabled = resolveBoolFlag(cmd, "metrics")
	}
	if isSet(cmd, "dogstatsd") {
		cfg.Metrics.DogStatsD = resolveStringFlag(cmd, "dogstatsd")
	}
	if isSet(cmd, "output") {
		// The default textfile follows the output directory.
		if cfg.Metrics.Textfile == filepath.Join(cfg.Output.Directory, "metrics.prom") {
			cfg.Metrics.Textfile = filepath.Join(resolveStringFlag(cmd, "output"), "metrics.prom")
		}
		cfg.Output.Directory = resolveStringFlag(cmd, "output")
	}
}

// metricsBackend builds the configured backends. It returns nil when
// metrics are off.
func metricsBackend(cfg *config.Config) (metrics.Backend, error) {
	var backends []metrics.Backend
	if cfg.Metrics.Enabled {
		b, err := prom.NewBackend(prom.Options{
			Textfile:   cfg.Metrics.Textfile,
			GatewayURL: cfg.Metrics.Pushgateway,
			Job:        cfg.Metrics.Job,
		})
		if err != nil {
			return nil, fmt.Errorf("creating prometheus backend: %w", err)
		}
		backends = append(backends, b)
	}
	if cfg.Metrics.DogStatsD != "" {
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.Metrics.DogStatsD,
			GlobalTags: []string{"dialect:" + cfg.Dialect},
		})
		if err != nil {
			return nil, fmt.Errorf("creating datadog backend: %w", err)
		}
		backends = append(backends, b)
	}
	switch len(backends) {
	case 0:
		return nil, nil
	case 1:
		return backends[0], nil
	default:
		return metrics.Multi(backends...), nil
	}
}

// protectedKinds converts configured option names. Nil keeps the runner
// default.
func protectedKinds(names []string) []schema.OptionKind {
	if len(names) == 0 {
		return nil
	}
	kinds := make([]schema.OptionKind, len(names))
	for i, n := range names {
		kinds[i] = schema.OptionKind(n)
	}
	return kinds
}

func init() {
	f := generateCmd.Flags()
	f.Uint64("seed", 0, "random seed (0 draws one)")
	f.Int("scenarios", 0, "number of scenarios (default from config, 16)")
	f.Int("statements", 0, "ALTER statements per scenario (default from config, 32)")
	f.Int("columns", 0, "columns of each seeding CREATE TABLE (default from config, 10)")
	f.Int("workers", 0, "scenarios generated in parallel (default from config, 4)")
	f.Bool("location", false, "emit FIRST/AFTER column placement")
	f.String("dialect", "", "SQL dialect (mysql, postgres)")
	f.String("dictionary", "", "word file used for table and column names")
	f.StringP("output", "o", "", "output directory (default schemafuzz-out)")
	f.Bool("metrics", false, "write Prometheus metrics")
	f.String("dogstatsd", "", "also send metrics to this DogStatsD address")
	f.Bool("skipped", false, "annotate skipped steps in statements.sql")
	rootCmd.AddCommand(generateCmd)
}
