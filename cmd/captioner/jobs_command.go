package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/api"
	"captioner/internal/jobs"
)

func newJobsCommand(ctx *commandContext) *cobra.Command {
	var limit int
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Show recent transcription and render jobs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if !cfg.History.Enabled {
				fmt.Fprintln(cmd.OutOrStdout(), "Job history is disabled (history.enabled = false).")
				return nil
			}
			store, err := jobs.Open(cfg.HistoryDBPath())
			if err != nil {
				return fmt.Errorf("open job ledger: %w", err)
			}
			defer store.Close()

			entries, err := store.List(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("list jobs: %w", err)
			}
			if jsonOutput {
				payload := make([]api.JobEntry, 0, len(entries))
				for _, entry := range entries {
					payload = append(payload, api.FromJobEntry(entry))
				}
				return writeJSON(cmd, payload)
			}
			printJobs(cmd, entries)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of jobs to show")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print jobs as JSON")
	return cmd
}

func printJobs(cmd *cobra.Command, entries []*jobs.Entry) {
	out := cmd.OutOrStdout()
	if len(entries) == 0 {
		fmt.Fprintln(out, "No jobs recorded yet.")
		return
	}
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		status := statusLabel(statusOK, string(entry.Status), colorize)
		detail := fmt.Sprintf("%d captions", entry.SegmentCount)
		if entry.Kind == jobs.KindRender {
			detail = fmt.Sprintf("%s, %d bytes", entry.Preset, entry.OutputBytes)
		}
		if entry.Failed() {
			status = statusLabel(statusError, string(entry.Status), colorize)
			detail = entry.ErrorKind
		}
		rows = append(rows, []string{
			entry.CreatedAt.Local().Format(time.DateTime),
			string(entry.Kind),
			status,
			entry.InputName,
			detail,
			strconv.FormatInt(entry.ElapsedMS, 10),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Created", "Kind", "Status", "Input", "Detail", "Elapsed ms"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
}
