package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/schemafuzz/schemafuzz/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a default config file interactively",
	Long:  `Walk through prompts to create a schemafuzz configuration file at ~/.schemafuzz/schemafuzz.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)
		def := config.Default()

		fmt.Println("schemafuzz Configuration Setup")
		fmt.Println("==============================")
		fmt.Println()

		dialect := prompt(reader, "Dialect (mysql/postgres)", def.Dialect)
		seed, err := promptInt(reader, "Seed (0 draws one per run)", 0)
		if err != nil {
			return err
		}
		scenarios, err := promptInt(reader, "Scenarios", def.Fuzz.Scenarios)
		if err != nil {
			return err
		}
		statements, err := promptInt(reader, "ALTER statements per scenario", def.Fuzz.Statements)
		if err != nil {
			return err
		}
		columns, err := promptInt(reader, "Columns per CREATE TABLE", def.Fuzz.Columns)
		if err != nil {
			return err
		}
		location := prompt(reader, "Emit FIRST/AFTER placement (y/n)", "n")
		output := prompt(reader, "Output directory", def.Output.Directory)
		fmt.Println()

		cfg := &config.Config{
			Version: config.CurrentVersion,
			Dialect: dialect,
			Fuzz: config.FuzzConfig{
				Seed:       uint64(seed),
				Scenarios:  scenarios,
				Statements: statements,
				Columns:    columns,
				Location:   strings.HasPrefix(strings.ToLower(location), "y"),
				Weights:    def.Fuzz.Weights,
			},
			Output: config.OutputConfig{Directory: output},
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		cfgPath := config.ExpandHome(config.DefaultPath)
		if cfgFile != "" {
			cfgPath = cfgFile
		}

		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Config written to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  schemafuzz generate            Generate DDL scenarios")
		fmt.Println("  schemafuzz replay <replay.json> Reproduce a recorded run")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}

func promptInt(reader *bufio.Reader, label string, defaultVal int) (int, error) {
	s := prompt(reader, label, strconv.Itoa(defaultVal))
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %s", strings.ToLower(label), s)
	}
	return n, nil
}
