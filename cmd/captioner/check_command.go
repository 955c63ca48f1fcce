package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"captioner/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify external tools and directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			results := preflight.RunAll(cmd.Context(), cfg, nil)
			if jsonOutput {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				printChecks(cmd, ctx.configPath, results)
			}
			if failed := preflight.Failed(results); len(failed) > 0 {
				return fmt.Errorf("%d required check(s) failed", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print check results as JSON")
	return cmd
}

func printChecks(cmd *cobra.Command, configPath string, results []preflight.Result) {
	out := cmd.OutOrStdout()
	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(results))
	for _, result := range results {
		status := statusLabel(statusOK, "ok", colorize)
		switch {
		case !result.Passed && result.Optional:
			status = statusLabel(statusWarn, "missing", colorize)
		case !result.Passed:
			status = statusLabel(statusError, "fail", colorize)
		}
		rows = append(rows, []string{result.Name, status, yesNo(result.Optional), result.Detail})
	}
	if configPath != "" {
		fmt.Fprintf(out, "Config: %s\n", configPath)
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Check", "Status", "Optional", "Detail"},
		rows,
		nil,
	))
}
