package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	fetchInput       string
	fetchSheet       string
	fetchLimit       int
	fetchConcurrency int
	fetchRediscover  bool
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Run the full pipeline and write declaration records",
	Long:  "For every subject: reuse or discover the declaration URL, fetch it through the cache, extract entries from HTML or PDF, validate, and write the record. The index and changelog are updated at the end.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		subjects, err := loadSubjects("fetch", fetchInput, fetchSheet, fetchLimit)
		if err != nil {
			return err
		}

		env, err := initEnv(ctx, fetchConcurrency, fetchRediscover)
		if err != nil {
			return err
		}
		defer env.Close()

		summary, err := env.Pipeline.Batch(ctx, subjects)
		summary.Print(cmd.OutOrStdout())
		if err != nil {
			return err
		}
		return ctx.Err()
	},
}

func init() {
	fetchCmd.Flags().StringVar(&fetchInput, "input", "", "seed list (.csv, .tsv or .xlsx); defaults to input.path")
	fetchCmd.Flags().StringVar(&fetchSheet, "sheet", "", "worksheet name for .xlsx input")
	fetchCmd.Flags().IntVar(&fetchLimit, "limit", 0, "max number of subjects (0 = all)")
	fetchCmd.Flags().IntVar(&fetchConcurrency, "concurrency", 0, "worker count (0 = fetch.concurrency)")
	fetchCmd.Flags().BoolVar(&fetchRediscover, "rediscover", false, "ignore saved metadata and locate every declaration again")
	rootCmd.AddCommand(fetchCmd)
}
