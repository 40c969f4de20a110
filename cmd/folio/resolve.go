package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/folio/internal/api"
	"github.com/jackzampolin/folio/internal/jobs"
)

var (
	resolveWait    bool
	resolveWorkers int
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <job-id> [job-id...]",
	Short: "Reconstruct job documents from saved responses",
	Long: `Resolve reads every saved response page of a job and prints the
reconstructed document: lines, words, form fields and tables.

With several job ids the jobs are resolved concurrently and a list of
{job_id, document, error} results is printed in argument order.

Examples:
  folio resolve 4f1c2e                # Resolve from {home}/responses/4f1c2e
  folio resolve 4f1c2e --wait         # Wait for the completion notification first
  folio resolve 4f1c2e -o json        # Print as JSON
  folio resolve a1 b2 c3 --workers 3  # Resolve a batch`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := loadEnv()
		if err != nil {
			return err
		}
		runner, err := e.newRunner()
		if err != nil {
			return err
		}

		if len(args) == 1 {
			doc, err := runner.Resolve(cmd.Context(), args[0], resolveWait)
			if err != nil {
				return err
			}
			return api.Output(doc)
		}

		pool := jobs.NewPool(jobs.PoolConfig{
			Runner:      runner,
			Logger:      e.logger,
			WorkerCount: resolveWorkers,
		})
		results := pool.ResolveAll(cmd.Context(), args, resolveWait)
		if err := api.Output(results); err != nil {
			return err
		}

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d jobs failed", failed, len(results))
		}
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveWait, "wait", false, "Wait for each job's completion notification first")
	resolveCmd.Flags().IntVar(&resolveWorkers, "workers", 4, "Number of jobs resolved concurrently")
	rootCmd.AddCommand(resolveCmd)
}
