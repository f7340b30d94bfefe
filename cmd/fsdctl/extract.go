package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/danmuck/fsdctl/internal/extract"
	logs "github.com/danmuck/fsdctl/internal/logging"
	"github.com/danmuck/fsdctl/internal/observability"
)

func (c *cli) newExtractCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "extract [names...]",
		Short: "Extract configured resources from the game install",
		Long: `Runs every [[resources]] entry of the config, or only the named ones, and
writes one output file per resource to output_dir. A failing resource does
not stop the others; the command fails when any resource failed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if workers > 0 {
				cfg.Workers = workers
			}
			runner, err := extract.NewRunner(cfg)
			if err != nil {
				return err
			}
			jobs, err := extract.JobsFromConfig(cfg, args...)
			if err != nil {
				return err
			}
			results, runErr := runner.Run(cmd.Context(), jobs)
			printResults(cmd.OutOrStdout(), results)

			if cfg.MetricsFile != "" {
				if err := observability.WriteTextfile(cfg.MetricsFile); err != nil {
					logs.Warnf("fsdctl metrics textfile=%s: %v", cfg.MetricsFile, err)
				}
			}
			return runErr
		},
	}
	cmd.Flags().IntVarP(&workers, "workers", "j", 0, "concurrent jobs (default from config)")
	return cmd
}

func printResults(w io.Writer, results []extract.Result) {
	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			fmt.Fprintf(w, "%s %s %v\n", failText("FAIL"), nameText(res.Job.Name), res.Err)
			continue
		}
		fmt.Fprintf(w, "%s %s %s %s\n", okText("ok  "), nameText(res.Job.Name), res.OutputPath,
			dimText(fmt.Sprintf("(%s, %d -> %d bytes, %s)", res.Decoder, res.BytesIn, res.BytesOut, res.Duration.Round(time.Millisecond))))
	}
	fmt.Fprintf(w, "%d extracted, %d failed\n", len(results)-failed, failed)
}
