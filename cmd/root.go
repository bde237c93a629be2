package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/schemafuzz/schemafuzz/internal/config"
	"github.com/schemafuzz/schemafuzz/internal/logging"

	// Register the SQL dialects.
	_ "github.com/schemafuzz/schemafuzz/internal/translator/mysql"
	_ "github.com/schemafuzz/schemafuzz/internal/translator/postgres"
)

var (
	cfgFile  string
	logLevel string
	quiet    bool
	logger   = logging.Discard()
	version  = "dev"
	commit   = "none"
	date     = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "schemafuzz",
	Short: "schemafuzz - randomized ALTER TABLE generator for DDL fuzzing",
	Long: `schemafuzz generates reproducible sequences of random CREATE TABLE and
ALTER TABLE statements (add column, drop column, rename table) and renders
them for a SQL dialect.

Every flag can also be set with a SCHEMAFUZZ_<FLAG> environment variable.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile = resolveStringFlag(cmd, "config")
		logLevel = resolveStringFlag(cmd, "log-level")
		quiet = resolveBoolFlag(cmd, "quiet")
		return nil
	},
}

func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	viper.SetEnvPrefix("SCHEMAFUZZ")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.schemafuzz/schemafuzz.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "log to the log file only")
}

// loadConfig reads the config file. A missing default config file yields
// the built-in defaults; a missing explicit one is an error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		if cfgFile == "" && errors.Is(err, fs.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	return cfg, nil
}

// setupLogging replaces the package logger according to cfg.
func setupLogging(cfg *config.Config) error {
	l, err := logging.Setup(cfg.Logging.Level, cfg.Logging.Directory, quiet)
	if err != nil {
		return err
	}
	logger = l
	slog.SetDefault(l)
	return nil
}

func resolveStringFlag(cmd *cobra.Command, key string) string {
	value, err := cmd.Flags().GetString(key)
	if err != nil {
		return ""
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetString(key)
	}
	return value
}

func resolveIntFlag(cmd *cobra.Command, key string) int {
	value, err := cmd.Flags().GetInt(key)
	if err != nil {
		return 0
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetInt(key)
	}
	return value
}

func resolveUint64Flag(cmd *cobra.Command, key string) uint64 {
	value, err := cmd.Flags().GetUint64(key)
	if err != nil {
		return 0
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetUint64(key)
	}
	return value
}

func resolveBoolFlag(cmd *cobra.Command, key string) bool {
	value, err := cmd.Flags().GetBool(key)
	if err != nil {
		return false
	}
	if f := cmd.Flags().Lookup(key); f == nil || (!f.Changed && viper.IsSet(key)) {
		return viper.GetBool(key)
	}
	return value
}

// isSet reports whether key was given as a flag or through the environment.
func isSet(cmd *cobra.Command, key string) bool {
	if f := cmd.Flags().Lookup(key); f != nil && f.Changed {
		return true
	}
	return viper.IsSet(key)
}
