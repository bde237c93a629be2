package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/schemafuzz/schemafuzz/internal/ir"
	"github.com/schemafuzz/schemafuzz/internal/schema"
	"github.com/schemafuzz/schemafuzz/internal/translator"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <context.yaml>",
	Short: "Show a table context and its droppable columns",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, err := schema.LoadYAML(args[0])
		if err != nil {
			return err
		}

		protected := make([]string, 0, len(ctx.Protected()))
		for _, k := range ctx.Protected() {
			protected = append(protected, string(k))
		}
		fmt.Printf("Table:     %s\n", ctx.Name())
		fmt.Printf("Protected: %s\n\n", strings.Join(protected, ", "))

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"#", "Column", "Type", "Options", "Droppable"})
		droppable := 0
		for i, c := range ctx.Columns() {
			opts := make([]string, len(c.Options))
			for j, o := range c.Options {
				opts[j] = o.String()
			}
			mark := ""
			if !ctx.IsProtected(c) {
				mark = "yes"
				droppable++
			}
			t.AppendRow(table.Row{i, c.Name, c.Type, strings.Join(opts, " "), mark})
		}
		t.Render()
		fmt.Printf("\n%d of %d column(s) droppable\n", droppable, ctx.NumColumns())

		if dialect := resolveStringFlag(cmd, "dialect"); dialect != "" {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			tr, err := translator.ForDialect(dialect, cfg.TypeOverrides)
			if err != nil {
				return err
			}
			sql, err := tr.TranslateCreate(ir.FromTableContext(ctx))
			if err != nil {
				return err
			}
			fmt.Printf("\n%s\n", sql)
		}
		return nil
	},
}

func init() {
	inspectCmd.Flags().String("dialect", "", "also print the CREATE TABLE statement in this dialect")
	rootCmd.AddCommand(inspectCmd)
}
