package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/disclosure-cli/internal/config"
)

var cfg *config.Config

// nowFunc is the clock used for record and prune timestamps.
var nowFunc = time.Now

var rootCmd = &cobra.Command{
	Use:   "disclosure-cli",
	Short: "Financial declaration discovery and extraction pipeline",
	Long:  "Locates members' declarations of financial interests, fetches them with caching and retry, extracts income, board roles, holdings and gifts from HTML or PDF, and writes validated JSON records.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
