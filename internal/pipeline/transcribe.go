package pipeline

import (
	"context"
	"time"

	"captioner/internal/captions"
	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/services"
	"captioner/internal/services/whisper"
	"captioner/internal/staging"
	"captioner/internal/subtitles"
)

// TranscribeRequest describes one staged audio file.
type TranscribeRequest struct {
	AudioPath string
	// OriginalName is the client-side file name, echoed in the result.
	OriginalName string
	Variant      whisper.Variant
	// Scope owns AudioPath; nil creates a fresh scope. It is released before
	// Transcribe returns.
	Scope *staging.Scope
}

// TranscribeResult is everything a client needs to show and edit captions.
type TranscribeResult struct {
	SRT          string                    `json:"srt"`
	Captions     []captions.DisplayCaption `json:"captions"`
	Segments     []captions.Segment        `json:"segments"`
	Filename     string                    `json:"filename"`
	Duration     float64                   `json:"duration"`
	SegmentCount int                       `json:"segmentCount"`
	Validation   subtitles.Validation      `json:"validation"`
	Variant      whisper.Variant           `json:"variant"`
	Model        string                    `json:"model"`
}

// Transcribe runs speech recognition over the staged audio and serializes the
// result. The staged audio is removed whatever the outcome.
func (p *Pipeline) Transcribe(ctx context.Context, req TranscribeRequest) (TranscribeResult, error) {
	scope := ensureScope(req.Scope, p.logger)
	scope.Track(req.AudioPath)
	defer scope.Release()

	started := time.Now()
	ctx, logger := p.begin(ctx, jobs.KindTranscribe)
	entry := &jobs.Entry{
		Kind:      jobs.KindTranscribe,
		Variant:   string(req.Variant),
		InputName: req.OriginalName,
	}

	if p.transcriber == nil {
		return TranscribeResult{}, p.fail(ctx, logger, entry, started,
			services.Wrap(services.ErrConfiguration, "transcription", "init", "transcriber not configured", nil))
	}

	segments, err := p.transcriber.Transcribe(ctx, req.AudioPath, req.Variant)
	if err != nil {
		return TranscribeResult{}, p.fail(ctx, logger, entry, started, err)
	}

	srt := subtitles.Serialize(segments)
	validation := subtitles.Validate(srt)
	if !validation.IsValid {
		logging.WarnWithContext(logger, "generated subtitles failed validation", "srt_validation_failed",
			logging.Any("errors", validation.Errors),
			logging.String(logging.FieldErrorHint, "inspect engine output for malformed segments"),
			logging.String(logging.FieldImpact, "client receives subtitles flagged as invalid"),
		)
	} else if warnings := validation.Warnings(); len(warnings) > 0 {
		logger.Debug("subtitle validation warnings", logging.Int("count", len(warnings)))
	}

	result := TranscribeResult{
		SRT:          srt,
		Captions:     subtitles.ToDisplayCaptions(segments),
		Segments:     segments,
		Filename:     req.OriginalName,
		Duration:     captions.TotalDuration(segments),
		SegmentCount: len(segments),
		Validation:   validation,
		Variant:      req.Variant,
		Model:        p.transcriber.ModelLabel(req.Variant),
	}
	if result.Segments == nil {
		result.Segments = []captions.Segment{}
	}

	entry.SegmentCount = result.SegmentCount
	entry.MediaSeconds = result.Duration
	p.succeed(ctx, logger, entry, started)
	return result, nil
}
