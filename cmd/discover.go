package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	discoverInput       string
	discoverSheet       string
	discoverLimit       int
	discoverConcurrency int
	discoverRediscover  bool
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Locate and probe each subject's declaration URL",
	Long:  "Reads the seed list, finds each subject's declaration link on their profile page or by URL template, probes it, and saves the outcome as metadata for later fetches. Subjects with a saved URL are skipped unless --rediscover is given.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		subjects, err := loadSubjects("discover", discoverInput, discoverSheet, discoverLimit)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, discoverConcurrency, discoverRediscover)
		if err != nil {
			return err
		}
		defer env.Close()

		summary := env.Pipeline.DiscoverBatch(ctx, subjects)
		summary.Print(cmd.OutOrStdout())
		return ctx.Err()
	},
}

func init() {
	discoverCmd.Flags().StringVar(&discoverInput, "input", "", "seed list (.csv, .tsv or .xlsx); defaults to input.path")
	discoverCmd.Flags().StringVar(&discoverSheet, "sheet", "", "worksheet name for .xlsx input")
	discoverCmd.Flags().IntVar(&discoverLimit, "limit", 0, "max number of subjects (0 = all)")
	discoverCmd.Flags().IntVar(&discoverConcurrency, "concurrency", 0, "worker count (0 = fetch.concurrency)")
	discoverCmd.Flags().BoolVar(&discoverRediscover, "rediscover", false, "probe subjects that already have a saved declaration URL")
	rootCmd.AddCommand(discoverCmd)
}
