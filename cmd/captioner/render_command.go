package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/fileutil"
	"captioner/internal/pipeline"
	"captioner/internal/staging"
	"captioner/internal/style"
)

func newRenderCommand(ctx *commandContext) *cobra.Command {
	var outputFlag string
	var raw style.RawTheme
	var verbose bool

	cmd := &cobra.Command{
		Use:   "render <video> <srt>",
		Short: "Burn SRT captions into a video",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			output := strings.TrimSpace(outputFlag)
			if output == "" {
				return errors.New("--output is required")
			}
			target, err := config.ExpandPath(output)
			if err != nil {
				return err
			}
			theme, err := style.NormalizeTheme(raw)
			if err != nil {
				return err
			}
			videoPath, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			srtPath, err := config.ExpandPath(args[1])
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
			stagedVideo, err := stageCopy(cfg, scope, videoPath, "video")
			if err != nil {
				scope.Release()
				return err
			}
			stagedSRT, err := stageCopy(cfg, scope, srtPath, "srt")
			if err != nil {
				scope.Release()
				return err
			}

			result, err := p.Render(runCtx, pipeline.RenderRequest{
				VideoPath:    stagedVideo,
				SubtitlePath: stagedSRT,
				VideoName:    filepath.Base(videoPath),
				Theme:        theme,
				Scope:        scope,
			}, func(_ context.Context, outputPath string) error {
				return fileutil.CopyFile(outputPath, target)
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Rendered %s (%d bytes, %s preset)\n", target, result.OutputBytes, theme.Preset.Label())
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Destination MP4 path")
	cmd.Flags().StringVar(&raw.Preset, "style", "", "Caption preset: bottom, topbar, or karaoke")
	cmd.Flags().StringVar(&raw.FontFamily, "font", "", "Caption font family")
	cmd.Flags().StringVar(&raw.FontSize, "size", "", "Caption font size in pixels")
	cmd.Flags().StringVar(&raw.FontWeight, "weight", "", "Caption font weight (100-900)")
	cmd.Flags().StringVar(&raw.Color, "color", "", "Caption colour as #RRGGBB")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log the encoder command and progress to stderr")
	return cmd
}
