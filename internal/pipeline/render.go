package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/render"
	"captioner/internal/services"
	"captioner/internal/staging"
	"captioner/internal/style"
)

// DeliverFunc hands a finished render to the client. It runs before the
// staged files are released.
type DeliverFunc func(ctx context.Context, outputPath string) error

// RenderRequest describes a staged video and SRT pair.
type RenderRequest struct {
	VideoPath    string
	SubtitlePath string
	// VideoName is the client-side file name, recorded in the ledger.
	VideoName string
	Theme     style.Theme
	// Scope owns the staged inputs; nil creates a fresh scope. It is
	// released before Render returns, or after the cleanup grace when the
	// output was delivered.
	Scope *staging.Scope
}

// RenderResult reports a delivered render.
type RenderResult struct {
	OutputPath  string
	OutputBytes int64
}

// OutputName is the prefix of staged render outputs.
const OutputName = "rendered"

// Render burns the subtitles into the video and delivers the result. The
// encoder runs detached from ctx cancellation so a client disconnect lets it
// finish; cleanup still happens on every exit path, including delivery
// failure.
func (p *Pipeline) Render(ctx context.Context, req RenderRequest, deliver DeliverFunc) (result RenderResult, err error) {
	scope := ensureScope(req.Scope, p.logger)
	scope.Track(req.VideoPath, req.SubtitlePath)
	delivered := false
	defer func() {
		if delivered {
			scope.ReleaseAfter(p.grace)
			return
		}
		scope.Release()
	}()

	started := time.Now()
	ctx, logger := p.begin(ctx, jobs.KindRender)
	entry := &jobs.Entry{
		Kind:      jobs.KindRender,
		Preset:    string(req.Theme.Preset),
		InputName: req.VideoName,
	}

	if p.renderer == nil {
		return result, p.fail(ctx, logger, entry, started,
			services.Wrap(services.ErrConfiguration, "render", "init", "renderer not configured", nil))
	}

	dir := p.stagingDir
	if dir == "" {
		dir = filepath.Dir(req.VideoPath)
	}
	outputPath := staging.NewPath(dir, OutputName, ".mp4")
	scope.Track(outputPath)

	job := render.Job{
		VideoPath:    req.VideoPath,
		SubtitlePath: req.SubtitlePath,
		OutputPath:   outputPath,
		Theme:        req.Theme,
	}
	if err := p.renderer.Render(context.WithoutCancel(ctx), job); err != nil {
		return result, p.fail(ctx, logger, entry, started, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return result, p.fail(ctx, logger, entry, started,
			services.Wrap(services.ErrRenderFailure, "render", "verify output", "output file was not created", err))
	}
	result = RenderResult{OutputPath: outputPath, OutputBytes: info.Size()}
	entry.OutputBytes = result.OutputBytes

	if deliver != nil {
		if err := deliver(ctx, outputPath); err != nil {
			logging.WarnWithContext(logger, "render delivery failed", "render_delivery_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "client may have disconnected"),
				logging.String(logging.FieldImpact, "rendered video was not received"),
			)
			return result, p.fail(ctx, logger, entry, started,
				services.Wrap(nil, "render", "deliver", "sending rendered video failed", err))
		}
	}
	delivered = true
	p.succeed(ctx, logger, entry, started)
	return result, nil
}
