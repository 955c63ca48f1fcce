package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/subtitles"
)

func newValidateCommand() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:         "validate <srt>",
		Short:       "Check an SRT file for index, timing, and overlap problems",
		Args:        cobra.ExactArgs(1),
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			validation, err := subtitles.ValidateFile(path)
			if err != nil {
				return err
			}

			if jsonOutput {
				if err := writeJSON(cmd, validation); err != nil {
					return err
				}
			} else {
				printValidation(cmd, path, validation)
			}
			if !validation.IsValid {
				problems := len(validation.Errors) - len(validation.Warnings())
				return fmt.Errorf("%s is invalid: %d problem(s)", path, problems)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the validation result as JSON")
	return cmd
}

func printValidation(cmd *cobra.Command, path string, validation subtitles.Validation) {
	out := cmd.OutOrStdout()
	if len(validation.Errors) == 0 {
		fmt.Fprintf(out, "%s: valid\n", path)
		return
	}

	colorize := shouldColorize(out)
	rows := make([][]string, 0, len(validation.Errors))
	for i, entry := range validation.Errors {
		severity := statusLabel(statusError, "error", colorize)
		if subtitles.IsWarning(entry) {
			severity = statusLabel(statusWarn, "warning", colorize)
		}
		rows = append(rows, []string{strconv.Itoa(i + 1), severity, entry})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Severity", "Message"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft},
	))
	verdict := statusLabel(statusOK, "valid", colorize)
	if !validation.IsValid {
		verdict = statusLabel(statusError, "invalid", colorize)
	}
	fmt.Fprintf(out, "%s: %s\n", path, verdict)
}
