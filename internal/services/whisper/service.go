package whisper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"captioner/internal/captions"
	"captioner/internal/fileutil"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/services/execrun"
	"captioner/internal/staging"
)

const stageName = "transcription"

// Service turns an audio file into caption segments by running a speech
// recognition engine out of process.
type Service struct {
	cfg    Config
	runner execrun.Runner
	logger *slog.Logger
}

// NewService creates a transcription service. A nil runner uses the process
// runner.
func NewService(cfg Config, runner execrun.Runner, logger *slog.Logger) *Service {
	logger = logging.NewComponentLogger(logger, "whisper")
	if runner == nil {
		runner = execrun.NewExecRunner(logger)
	}
	return &Service{cfg: cfg.withDefaults(), runner: runner, logger: logger}
}

// ParseVariant maps a request value onto a Variant. Empty selects the
// general engine.
func ParseVariant(value string) (Variant, error) {
	switch Variant(strings.ToLower(strings.TrimSpace(value))) {
	case "", VariantGeneral:
		return VariantGeneral, nil
	case VariantHinglish:
		return VariantHinglish, nil
	default:
		return "", services.Wrap(services.ErrInvalidInput, stageName, "variant", fmt.Sprintf("unknown variant %q", value), nil)
	}
}

// ModelLabel describes the engine used for a variant, for logs and responses.
func (s *Service) ModelLabel(variant Variant) string {
	if variant == VariantHinglish {
		return fmt.Sprintf("Hinglish Whisper (%s)", s.cfg.HinglishModel)
	}
	return fmt.Sprintf("Whisper (%s)", s.cfg.Model)
}

// Transcribe runs the engine for variant over audioPath. The input file is
// never modified and the per-call work directory is removed before return.
func (s *Service) Transcribe(ctx context.Context, audioPath string, variant Variant) ([]captions.Segment, error) {
	if variant != VariantGeneral && variant != VariantHinglish {
		return nil, services.Wrap(services.ErrInvalidInput, stageName, "variant", fmt.Sprintf("unknown variant %q", variant), nil)
	}
	if err := checkAudio(audioPath); err != nil {
		return nil, err
	}

	workDir, err := os.MkdirTemp(s.cfg.WorkRoot, "whisper-*")
	if err != nil {
		return nil, services.Wrap(nil, stageName, "work dir", "create work directory", err)
	}
	release := staging.Hold(workDir, audioPath)
	defer release()
	defer func() {
		if removeErr := os.RemoveAll(workDir); removeErr != nil {
			logging.WarnWithContext(logging.WithContext(ctx, s.logger), "work directory cleanup failed", "whisper_cleanup_failed",
				logging.String(logging.FieldErrorHint, "remove the directory manually"),
				logging.String(logging.FieldImpact, "stale files remain until the staging sweeper runs"),
				logging.String("path", workDir),
				logging.Error(removeErr),
			)
		}
	}()

	runCtx := ctx
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	var cmd execrun.Command
	switch variant {
	case VariantHinglish:
		script, err := s.hinglishScriptPath(workDir)
		if err != nil {
			return nil, services.Wrap(nil, stageName, "hinglish", "write bundled helper script", err)
		}
		cmd = s.hinglishCommand(script, audioPath, workDir)
	default:
		cmd = s.whisperCommand(audioPath, workDir)
	}

	logger := logging.WithContext(ctx, s.logger)
	logger.Info("transcription started",
		logging.String("variant", string(variant)),
		logging.String("model", s.ModelLabel(variant)),
	)
	result, runErr := s.runner.Run(runCtx, cmd)
	if runErr != nil {
		return nil, s.classifyRunError(ctx, runCtx, cmd, result, runErr)
	}

	var output []byte
	if variant == VariantHinglish {
		output = result.Stdout
	} else {
		output, err = os.ReadFile(whisperOutputPath(audioPath, workDir))
		if err != nil {
			return nil, services.Wrap(services.ErrEngineFailure, stageName, "read output", "engine produced no transcript",
				&services.ToolError{Tool: cmd.Name, Diagnostic: execrun.Tail(result.Stderr, diagnosticLimit), Err: err})
		}
	}

	raw, err := decodeSegments(output)
	if err != nil {
		return nil, services.Wrap(services.ErrEngineFailure, stageName, "parse output", "unreadable transcript",
			&services.ToolError{Tool: cmd.Name, Diagnostic: execrun.Tail(output, diagnosticLimit), Err: err})
	}
	segments, dropped := buildSegments(raw)
	if dropped > 0 {
		logger.Debug("dropped invalid segments", logging.Int("count", dropped))
	}
	logger.Info("transcription completed",
		logging.String("variant", string(variant)),
		logging.Int("segments", len(segments)),
		logging.Duration("elapsed", result.Elapsed),
	)
	return segments, nil
}

func (s *Service) classifyRunError(parent, runCtx context.Context, cmd execrun.Command, result execrun.Result, err error) error {
	diagnostic := execrun.Tail(result.Stderr, diagnosticLimit)
	if errors.Is(err, context.DeadlineExceeded) && parent.Err() == nil && runCtx.Err() != nil {
		return services.Wrap(services.ErrTimeout, stageName, cmd.Name,
			fmt.Sprintf("engine exceeded %s", s.cfg.Timeout),
			&services.ToolError{Tool: cmd.Name, Diagnostic: diagnostic, Err: err})
	}
	if parent.Err() != nil {
		return services.Wrap(nil, stageName, cmd.Name, "transcription cancelled", parent.Err())
	}
	toolErr := &services.ToolError{Tool: cmd.Name, Diagnostic: diagnostic, Err: err}
	var exitErr *execrun.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.Code
	}
	return services.Wrap(services.ErrEngineFailure, stageName, cmd.Name, "speech recognition failed", toolErr)
}

func (s *Service) whisperCommand(audioPath, workDir string) execrun.Command {
	args := []string{
		audioPath,
		"--model", s.cfg.Model,
		"--output_dir", workDir,
		"--output_format", OutputFormat,
		"--verbose", "False",
		"--device", s.cfg.Device,
	}
	if lang := strings.TrimSpace(s.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	if s.cfg.Device == "cpu" {
		args = append(args, "--fp16", "False")
	}
	return execrun.Command{Name: s.cfg.WhisperCommand, Args: args, Dir: workDir}
}

func (s *Service) hinglishCommand(script, audioPath, workDir string) execrun.Command {
	return execrun.Command{
		Name: s.cfg.HinglishPython,
		Args: []string{
			script,
			"--model", s.cfg.HinglishModel,
			"--audio", audioPath,
			"--device", s.cfg.Device,
		},
		Dir: workDir,
	}
}

// whisperOutputPath mirrors how the whisper CLI names its JSON output.
func whisperOutputPath(audioPath, workDir string) string {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	return filepath.Join(workDir, base+"."+OutputFormat)
}

func checkAudio(path string) error {
	if strings.TrimSpace(path) == "" {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "audio path required", nil)
	}
	if _, err := fileutil.NonEmptyRegular(path); err != nil {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "audio file not usable", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return services.Wrap(services.ErrInvalidInput, stageName, "input", "audio file not readable", err)
	}
	return f.Close()
}
