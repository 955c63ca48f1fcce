package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"captioner/internal/captions"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/render"
	"captioner/internal/services"
	"captioner/internal/services/whisper"
	"captioner/internal/staging"
)

// Transcriber produces caption segments from an audio file.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string, variant whisper.Variant) ([]captions.Segment, error)
	ModelLabel(variant whisper.Variant) string
}

// Renderer burns subtitles into a video.
type Renderer interface {
	Render(ctx context.Context, job render.Job) error
}

// Ledger records job outcomes.
type Ledger interface {
	Record(ctx context.Context, entry *jobs.Entry) error
}

// Options wires a Pipeline.
type Options struct {
	Transcriber Transcriber
	Renderer    Renderer
	// Ledger is optional.
	Ledger     Ledger
	StagingDir string
	// CleanupGrace delays removal of a delivered render output.
	CleanupGrace time.Duration
	Logger       *slog.Logger
}

// Pipeline coordinates engines, staging cleanup, and the job ledger.
type Pipeline struct {
	transcriber Transcriber
	renderer    Renderer
	ledger      Ledger
	stagingDir  string
	grace       time.Duration
	logger      *slog.Logger
}

// New constructs a pipeline from opts.
func New(opts Options) *Pipeline {
	return &Pipeline{
		transcriber: opts.Transcriber,
		renderer:    opts.Renderer,
		ledger:      opts.Ledger,
		stagingDir:  opts.StagingDir,
		grace:       opts.CleanupGrace,
		logger:      logging.NewComponentLogger(opts.Logger, "pipeline"),
	}
}

func (p *Pipeline) begin(ctx context.Context, kind jobs.Kind) (context.Context, *slog.Logger) {
	ctx = services.WithJobKind(ctx, string(kind))
	ctx = services.WithStage(ctx, string(kind))
	logger := logging.WithContext(ctx, p.logger)
	logger.Info("job started", logging.String(logging.FieldEventType, "job_start"))
	return ctx, logger
}

func (p *Pipeline) fail(ctx context.Context, logger *slog.Logger, entry *jobs.Entry, started time.Time, err error) error {
	kind := services.KindOf(err)
	entry.Status = jobs.StatusFailed
	entry.ErrorKind = string(kind)
	entry.ErrorMessage = strings.TrimSpace(err.Error())
	entry.ElapsedMS = time.Since(started).Milliseconds()

	attrs := []logging.Attr{
		logging.String(logging.FieldErrorKind, string(kind)),
		logging.String(logging.FieldErrorHint, hintFor(kind)),
		logging.Error(err),
	}
	if diag := services.DiagnosticOf(err); diag != "" {
		attrs = append(attrs, logging.String(logging.FieldDiagnostic, diag))
	}
	logging.ErrorWithContext(logger, "job failed", "job_failure", attrs...)
	p.record(ctx, logger, entry)
	return err
}

func (p *Pipeline) succeed(ctx context.Context, logger *slog.Logger, entry *jobs.Entry, started time.Time) {
	entry.Status = jobs.StatusSucceeded
	entry.ElapsedMS = time.Since(started).Milliseconds()
	logger.Info("job completed",
		logging.String(logging.FieldEventType, "job_complete"),
		logging.Int64("elapsed_ms", entry.ElapsedMS),
	)
	p.record(ctx, logger, entry)
}

// record writes the ledger entry. Ledger failures never change the outcome
// reported to the caller.
func (p *Pipeline) record(ctx context.Context, logger *slog.Logger, entry *jobs.Entry) {
	if p.ledger == nil {
		return
	}
	if rid, ok := services.RequestIDFromContext(ctx); ok {
		entry.RequestID = rid
	}
	if err := p.ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		logging.WarnWithContext(logger, "job ledger write failed", "ledger_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state_dir permissions or delete the ledger database"),
			logging.String(logging.FieldImpact, "job history is incomplete"),
		)
	}
}

func hintFor(kind services.Kind) string {
	switch kind {
	case services.KindInvalidInput:
		return "check the uploaded files and form fields"
	case services.KindEngineFailure:
		return "check the whisper installation and the diagnostic field"
	case services.KindRenderFailure:
		return "check the ffmpeg installation and the diagnostic field"
	case services.KindTimeout:
		return "raise the timeout_seconds setting or use shorter media"
	default:
		return "check logs for details"
	}
}

func ensureScope(scope *staging.Scope, logger *slog.Logger) *staging.Scope {
	if scope != nil {
		return scope
	}
	return staging.NewScope(logger)
}
