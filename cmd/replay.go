package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/schemafuzz/schemafuzz/internal/config"
	"github.com/schemafuzz/schemafuzz/internal/random"
	"github.com/schemafuzz/schemafuzz/internal/replay"
	"github.com/schemafuzz/schemafuzz/internal/report"
)

var replayCmd = &cobra.Command{
	Use:   "replay <replay.json>",
	Short: "Regenerate a recorded run and verify it is byte-identical",
	Long: `Replay regenerates every scenario of a recorded run from its seed and
compares the xxh3 fingerprints of the statements with the record. It fails
when any scenario differs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := setupLogging(cfg); err != nil {
			return err
		}

		m, err := replay.Load(args[0])
		if err != nil {
			return err
		}

		dictionary := m.Dictionary
		if isSet(cmd, "dictionary") {
			dictionary = resolveStringFlag(cmd, "dictionary")
		}
		var words []string
		if dictionary != "" {
			words, err = random.LoadWords(config.ExpandHome(dictionary))
			if err != nil {
				return err
			}
		}

		workers := cfg.Fuzz.Workers
		if isSet(cmd, "workers") {
			workers = resolveIntFlag(cmd, "workers")
		}

		logger.Info("replaying run", "run_id", m.RunID, "seed", m.Options.Seed, "dialect", m.Dialect)
		res, mismatches, err := replay.Verify(cmd.Context(), m, words, workers, logger)
		if err != nil {
			return err
		}

		r := report.GenerateReport(m.RunID, res, m, mismatches)
		if out := resolveStringFlag(cmd, "report"); out != "" {
			if err := report.WriteJSON(r, filepath.Clean(out)); err != nil {
				return err
			}
		}
		fmt.Println(report.FormatText(r))

		if len(mismatches) > 0 {
			return fmt.Errorf("%d of %d scenario(s) differ from the record", len(mismatches), len(m.Scenarios))
		}
		fmt.Println("Replay matches the record.")
		return nil
	},
}

func init() {
	replayCmd.Flags().String("dictionary", "", "word file (default: the one recorded in the manifest)")
	replayCmd.Flags().Int("workers", 0, "scenarios regenerated in parallel")
	replayCmd.Flags().String("report", "", "also write the replay report as JSON to this path")
	rootCmd.AddCommand(replayCmd)
}
