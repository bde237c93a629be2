package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemafuzz/schemafuzz/internal/config"
	"github.com/schemafuzz/schemafuzz/internal/typemap"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `View, validate, and manage schemafuzz configuration and type mappings.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective config (secrets masked)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		fmt.Println("Current configuration:")
		fmt.Println()
		fmt.Printf("  Dialect:          %s\n", cfg.Dialect)
		fmt.Printf("  Fuzz:\n")
		fmt.Printf("    Seed:           %d\n", cfg.Fuzz.Seed)
		fmt.Printf("    Scenarios:      %d\n", cfg.Fuzz.Scenarios)
		fmt.Printf("    Statements:     %d\n", cfg.Fuzz.Statements)
		fmt.Printf("    Columns:        %d\n", cfg.Fuzz.Columns)
		fmt.Printf("    Workers:        %d\n", cfg.Fuzz.Workers)
		fmt.Printf("    Location:       %t\n", cfg.Fuzz.Location)
		fmt.Printf("    Dictionary:     %s\n", orDefault(cfg.Fuzz.Dictionary, "(built-in)"))
		fmt.Printf("    Protected:      %s\n", orDefault(strings.Join(cfg.Fuzz.Protected, ", "), "PrimaryKey, TimeIndex"))
		fmt.Printf("    Weights:        add %d, drop %d, rename %d\n",
			cfg.Fuzz.Weights.AddColumn, cfg.Fuzz.Weights.DropColumn, cfg.Fuzz.Weights.RenameTable)
		fmt.Println()
		fmt.Printf("  Output:           %s\n", cfg.Output.Directory)
		fmt.Printf("  Metrics:\n")
		fmt.Printf("    Enabled:        %t\n", cfg.Metrics.Enabled)
		fmt.Printf("    Textfile:       %s\n", cfg.Metrics.Textfile)
		fmt.Printf("    Pushgateway:    %s\n", maskSecret(cfg.Metrics.Pushgateway))
		fmt.Printf("  Logging:\n")
		fmt.Printf("    Level:          %s\n", cfg.Logging.Level)
		fmt.Printf("    Directory:      %s\n", cfg.Logging.Directory)

		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		tm, err := typemap.ForDialect(cfg.Dialect)
		if err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}
		if err := tm.ApplyOverrides(cfg.TypeOverrides); err != nil {
			return fmt.Errorf("config invalid: %w", err)
		}

		fmt.Println("Configuration is valid.")
		return nil
	},
}

var configTypeMappingCmd = &cobra.Command{
	Use:   "type-mapping",
	Short: "Show the effective type mapping of a dialect",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dialect := cfg.Dialect
		if isSet(cmd, "dialect") {
			dialect = resolveStringFlag(cmd, "dialect")
		}
		tm, err := typemap.ForDialect(dialect)
		if err != nil {
			return err
		}
		if err := tm.ApplyOverrides(cfg.TypeOverrides); err != nil {
			return err
		}

		if path := resolveStringFlag(cmd, "write"); path != "" {
			if err := tm.WriteYAML(config.ExpandHome(path)); err != nil {
				return err
			}
			fmt.Printf("Type mapping written to %s\n", path)
			return nil
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Type", dialect, "Overridden"})
		for _, dt := range tm.SortedTypes() {
			kw, _ := tm.Resolve(dt)
			mark := ""
			if tm.IsOverridden(dt) {
				mark = "yes"
			}
			t.AppendRow(table.Row{dt, kw, mark})
		}
		t.Render()
		return nil
	},
}

func maskSecret(s string) string {
	if len(s) <= 4 {
		return strings.Repeat("*", len(s))
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

func init() {
	configTypeMappingCmd.Flags().String("dialect", "", "dialect to show (default from config)")
	configTypeMappingCmd.Flags().String("write", "", "write the mapping as YAML to this path")
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configTypeMappingCmd)
	rootCmd.AddCommand(configCmd)
}
