package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"captioner/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Inspect and clean the staging directory",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List staged files and engine work directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			entries, err := staging.ListEntries(cfg.Paths.StagingDir)
			if err != nil {
				return fmt.Errorf("list staging entries: %w", err)
			}
			if jsonOutput {
				if entries == nil {
					entries = []staging.EntryInfo{}
				}
				return writeJSON(cmd, entries)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Staging directory is empty")
				return nil
			}
			fmt.Fprintf(out, "Staging directory: %s\n", cfg.Paths.StagingDir)

			var total int64
			rows := make([][]string, 0, len(entries))
			for _, entry := range entries {
				total += entry.Size
				kind := "file"
				if entry.Dir {
					kind = "dir"
				}
				rows = append(rows, []string{
					entry.Name,
					kind,
					formatDuration(time.Since(entry.ModTime)),
					formatBytes(entry.Size),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Type", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight},
			))
			fmt.Fprintf(out, "Total: %d entries, %s\n", len(entries), formatBytes(total))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	return cmd
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove staged entries older than the configured max age",
		Long: `Remove staged uploads, rendered outputs, and engine work directories
left behind by crashed or interrupted requests.

The pass takes the same lock as the server's background sweeper, so it is
skipped while another process is sweeping.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := cfg.StagingMaxAge()
			if cmd.Flags().Changed("max-age") {
				age = maxAge
			}
			if age <= 0 {
				return fmt.Errorf("max age must be positive, got %s", age)
			}

			sweeper := staging.NewSweeper(cfg.Paths.StagingDir, 0, age, ctx.cliLogger(false))
			result, ran, err := sweeper.SweepOnce()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !ran {
				fmt.Fprintln(out, "Another process is sweeping the staging directory; nothing removed")
				return nil
			}
			for _, path := range result.Removed {
				fmt.Fprintf(out, "removed %s\n", path)
			}
			for _, failure := range result.Errors {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", failure.Path, failure.Error)
			}
			fmt.Fprintf(out, "Removed %d entries older than %s\n", len(result.Removed), age)
			if len(result.Errors) > 0 {
				return fmt.Errorf("%d entries could not be removed", len(result.Errors))
			}
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Override staging.max_age_minutes (e.g. 30m)")
	return cmd
}

func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	switch {
	case d < time.Minute:
		return "<1m"
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 48*time.Hour:
		return fmt.Sprintf("%dh%02dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for value := n / unit; value >= unit; value /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
