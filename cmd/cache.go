package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneOlderThan time.Duration

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the document cache",
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached documents older than the max age",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("cache"); err != nil {
			return err
		}
		st, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		age := pruneOlderThan
		if age <= 0 {
			age = cfg.Cache.MaxAge()
		}
		n, err := st.Prune(cmd.Context(), nowFunc().Add(-age))
		if err != nil {
			return err
		}
		zap.L().Info("cache pruned", zap.Int("removed", n), zap.Duration("older_than", age))
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d cached document(s)\n", n)
		return nil
	},
}

func init() {
	cachePruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 0, "age cutoff (0 = cache.max_age_hours)")
	cacheCmd.AddCommand(cachePruneCmd)
	rootCmd.AddCommand(cacheCmd)
}
