package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/translator"
)

var translateCmd = &cobra.Command{
	Use:   "translate <ir.json>",
	Short: "Render ALTER TABLE IR as SQL",
	Long: `Translate reads one ALTER TABLE expression, or a JSON array of them, in
the IR encoding and prints one SQL statement per expression.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		dialect := cfg.Dialect
		if isSet(cmd, "dialect") {
			dialect = resolveStringFlag(cmd, "dialect")
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("reading IR: %w", err)
		}
		exprs, err := decodeAlterExprs(data)
		if err != nil {
			return err
		}

		tr, err := translator.ForDialect(dialect, cfg.TypeOverrides)
		if err != nil {
			return err
		}
		for i, e := range exprs {
			sql, err := tr.TranslateAlter(e)
			if err != nil {
				return fmt.Errorf("expression %d: %w", i, err)
			}
			fmt.Println(sql)
		}
		return nil
	},
}

func decodeAlterExprs(data []byte) ([]ir.AlterTableExpr, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var exprs []ir.AlterTableExpr
		if err := json.Unmarshal(data, &exprs); err != nil {
			return nil, fmt.Errorf("parsing IR: %w", err)
		}
		return exprs, nil
	}
	var e ir.AlterTableExpr
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("parsing IR: %w", err)
	}
	return []ir.AlterTableExpr{e}, nil
}

func init() {
	translateCmd.Flags().String("dialect", "", "SQL dialect (default from config, mysql)")
	rootCmd.AddCommand(translateCmd)
}
