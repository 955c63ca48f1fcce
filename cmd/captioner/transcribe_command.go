package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"captioner/internal/api"
	"captioner/internal/config"
	"captioner/internal/fileutil"
	"captioner/internal/language"
	"captioner/internal/pipeline"
	"captioner/internal/services/whisper"
	"captioner/internal/staging"
	"captioner/internal/subtitles"
)

func newTranscribeCommand(ctx *commandContext) *cobra.Command {
	var variantFlag string
	var outputFlag string
	var jsonOutput bool
	var verbose bool

	cmd := &cobra.Command{
		Use:   "transcribe <audio>",
		Short: "Transcribe an audio or video file to SRT",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			variant, err := whisper.ParseVariant(variantFlag)
			if err != nil {
				return err
			}
			source, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}

			runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := ctx.cliLogger(verbose)
			p, closeLedger, err := localPipeline(runCtx, cfg, logger)
			if err != nil {
				return err
			}
			defer closeLedger()

			scope := staging.NewScope(logger)
			staged, err := stageCopy(cfg, scope, source, "audio")
			if err != nil {
				scope.Release()
				return err
			}
			result, err := p.Transcribe(runCtx, pipeline.TranscribeRequest{
				AudioPath:    staged,
				OriginalName: filepath.Base(source),
				Variant:      variant,
				Scope:        scope,
			})
			if err != nil {
				return err
			}

			if output := strings.TrimSpace(outputFlag); output != "" {
				target, err := config.ExpandPath(output)
				if err != nil {
					return err
				}
				if err := fileutil.WriteFileAtomic(target, strings.NewReader(result.SRT), 0o644); err != nil {
					return fmt.Errorf("write srt: %w", err)
				}
				if !jsonOutput {
					fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %d captions to %s\n", result.SegmentCount, target)
				}
			}

			if jsonOutput {
				return writeJSON(cmd, api.FromTranscribeResult(result))
			}
			lang := language.DisplayName(cfg.Transcription.Language)
			if variant == whisper.VariantHinglish {
				lang = "Hinglish"
			}
			printTranscript(cmd, result, lang)
			return nil
		},
	}

	cmd.Flags().StringVar(&variantFlag, "variant", string(whisper.VariantGeneral), "Recognition variant: general or hinglish")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Write the SRT to this path")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the full result as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log engine commands and progress to stderr")
	return cmd
}

func printTranscript(cmd *cobra.Command, result pipeline.TranscribeResult, lang string) {
	out := cmd.OutOrStdout()
	if result.SegmentCount == 0 {
		fmt.Fprintln(out, "No speech recognized.")
		return
	}
	rows := make([][]string, 0, len(result.Segments))
	for i, segment := range result.Segments {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			subtitles.FormatTimestamp(segment.Start),
			subtitles.FormatTimestamp(segment.End),
			segment.Text,
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"#", "Start", "End", "Text"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "%d captions, %.3fs, model %s, language %s\n", result.SegmentCount, result.Duration, result.Model, lang)
	for _, warning := range result.Validation.Warnings() {
		fmt.Fprintln(out, warning)
	}
}
