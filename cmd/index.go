package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sells-group/disclosure-cli/internal/assemble"
	"github.com/sells-group/disclosure-cli/internal/output"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Rebuild index.json from the records in the output directory",
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := output.NewWriter(cfg.Output.Dir)
		if err != nil {
			return err
		}
		summaries, err := w.Summaries()
		if err != nil {
			return err
		}
		if err := w.WriteIndex(assemble.BuildIndex(summaries, nowFunc(), nil)); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "indexed %d record(s)\n", len(summaries))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(indexCmd)
}
