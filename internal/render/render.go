package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"captioner/internal/fileutil"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/services/execrun"
	"captioner/internal/style"
)

const stageName = "render"

// Job describes one burn-in request. All paths are owned by the caller.
type Job struct {
	VideoPath    string
	SubtitlePath string
	OutputPath   string
	Theme        style.Theme
}

// Orchestrator drives ffmpeg to produce caption-bearing video.
type Orchestrator struct {
	cfg    Config
	runner execrun.Runner
	logger *slog.Logger
}

// NewOrchestrator constructs a render orchestrator. A nil runner uses the
// process runner.
func NewOrchestrator(cfg Config, runner execrun.Runner, logger *slog.Logger) *Orchestrator {
	logger = logging.NewComponentLogger(logger, "render")
	if runner == nil {
		runner = execrun.NewExecRunner(logger)
	}
	return &Orchestrator{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// Render burns the job's subtitles into its video and writes OutputPath.
// Success means the encoder exited cleanly and OutputPath is a non-empty
// regular file.
func (o *Orchestrator) Render(ctx context.Context, job Job) error {
	if o == nil {
		return services.Wrap(nil, stageName, "init", "orchestrator not initialized", nil)
	}
	if strings.TrimSpace(job.OutputPath) == "" {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "output path required", nil)
	}
	content, err := os.ReadFile(job.SubtitlePath)
	if err != nil {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "subtitle file not readable", err)
	}
	if strings.TrimSpace(string(content)) == "" {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "subtitle file is empty", nil)
	}
	if _, err := fileutil.NonEmptyRegular(job.VideoPath); err != nil {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "video file not usable", err)
	}

	forceStyle := style.MapTheme(job.Theme)
	cmd := execrun.Command{
		Name: o.cfg.FFmpegCommand,
		Args: buildArgs(o.cfg, job, forceStyle),
	}

	runCtx := ctx
	if o.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, o.cfg.Timeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, o.logger)
	logger.Info("render started",
		logging.String("preset", string(job.Theme.Preset)),
		logging.String("font", job.Theme.FontFamily),
		logging.Int("font_size", job.Theme.FontSizePx),
		logging.String("color", job.Theme.ColorHex),
	)
	logger.Debug("encoder command", logging.String("command", cmd.String()))

	result, runErr := o.runner.Run(runCtx, cmd)
	diagnostic := execrun.Tail(result.Stderr, diagnosticLimit)
	if runErr != nil {
		return o.classifyRunError(ctx, runCtx, cmd, diagnostic, runErr)
	}
	if stderrIndicatesFailure(string(result.Stderr)) {
		return services.Wrap(services.ErrRenderFailure, stageName, cmd.Name, "encoder reported an error",
			&services.ToolError{Tool: cmd.Name, Diagnostic: diagnostic})
	}

	size, err := fileutil.NonEmptyRegular(job.OutputPath)
	if err != nil {
		message := "output file was not created"
		if errors.Is(err, fileutil.ErrEmptyFile) {
			message = "output file was created but is empty"
		}
		return services.Wrap(services.ErrRenderFailure, stageName, "verify output", message,
			&services.ToolError{Tool: cmd.Name, Diagnostic: diagnostic, Err: err})
	}

	logger.Info("render completed",
		logging.String(logging.FieldEventType, "render_complete"),
		logging.Int64("output_bytes", size),
		logging.Duration("elapsed", result.Elapsed),
	)
	return nil
}

func (o *Orchestrator) classifyRunError(parent, runCtx context.Context, cmd execrun.Command, diagnostic string, err error) error {
	toolErr := &services.ToolError{Tool: cmd.Name, Diagnostic: diagnostic, Err: err}
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil && runCtx.Err() != nil {
		return services.Wrap(services.ErrTimeout, stageName, cmd.Name,
			fmt.Sprintf("encoder exceeded %s", o.cfg.Timeout), toolErr)
	}
	if parent.Err() != nil {
		return services.Wrap(nil, stageName, cmd.Name, "render cancelled", parent.Err())
	}
	var exitErr *execrun.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.Code
	}
	return services.Wrap(services.ErrRenderFailure, stageName, cmd.Name, "encoder failed", toolErr)
}

// stderrIndicatesFailure catches encoders that exit 0 after printing an error
// without ever making progress.
func stderrIndicatesFailure(stderr string) bool {
	if !strings.Contains(stderr, "Error") {
		return false
	}
	return !strings.Contains(stderr, "frame=") && !strings.Contains(stderr, "time=")
}
