package pipeline_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"captioner/internal/captions"
	"captioner/internal/jobs"
	"captioner/internal/pipeline"
	"captioner/internal/render"
	"captioner/internal/services"
	"captioner/internal/services/execrun"
	"captioner/internal/services/whisper"
	"captioner/internal/style"
	"captioner/internal/testsupport"
)

type fakeTranscriber struct {
	segments []captions.Segment
	err      error
	calls    int
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, _ whisper.Variant) ([]captions.Segment, error) {
	f.calls++
	return f.segments, f.err
}

func (f *fakeTranscriber) ModelLabel(variant whisper.Variant) string {
	return "fake-" + string(variant)
}

func stage(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func assertGone(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if _, err := os.Stat(p); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", p, err)
		}
	}
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("expected staging dir empty, found %v", names)
	}
}

func TestTranscribeHelloWorld(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithHistory(true))
	ledger := testsupport.MustOpenLedger(t, cfg)
	audio := stage(t, cfg.Paths.StagingDir, "audio-1.mp3", "id3")
	transcriber := &fakeTranscriber{segments: []captions.Segment{
		{Start: 0, End: 1.5, Text: "Hello"},
		{Start: 1.5, End: 3.0, Text: "world"},
	}}
	p := pipeline.New(pipeline.Options{Transcriber: transcriber, Ledger: ledger, StagingDir: cfg.Paths.StagingDir})

	ctx := services.WithRequestID(context.Background(), "req-1")
	result, err := p.Transcribe(ctx, pipeline.TranscribeRequest{AudioPath: audio, OriginalName: "talk.mp3", Variant: whisper.VariantGeneral})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	wantSRT := "1\n00:00:00,000 --> 00:00:01,500\nHello\n\n2\n00:00:01,500 --> 00:00:03,000\nworld\n\n"
	if result.SRT != wantSRT {
		t.Fatalf("unexpected SRT:\n%q\nwant\n%q", result.SRT, wantSRT)
	}
	if !result.Validation.IsValid || len(result.Validation.Errors) != 0 {
		t.Fatalf("expected clean validation, got %+v", result.Validation)
	}
	if len(result.Captions) != 2 || result.Captions[1].Text != "world" {
		t.Fatalf("unexpected captions: %+v", result.Captions)
	}
	if result.Duration != 3.0 || result.SegmentCount != 2 || result.Filename != "talk.mp3" {
		t.Fatalf("unexpected summary: %+v", result)
	}
	if result.Model != "fake-general" {
		t.Fatalf("unexpected model label %q", result.Model)
	}
	assertGone(t, audio)

	entries, err := ledger.List(context.Background(), 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || entries[0].Status != jobs.StatusSucceeded || entries[0].RequestID != "req-1" || entries[0].SegmentCount != 2 {
		t.Fatalf("unexpected ledger entries: %+v", entries)
	}
}

func TestTranscribeEmptyResult(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	audio := stage(t, cfg.Paths.StagingDir, "audio-2.wav", "riff")
	p := pipeline.New(pipeline.Options{Transcriber: &fakeTranscriber{}, StagingDir: cfg.Paths.StagingDir})

	result, err := p.Transcribe(context.Background(), pipeline.TranscribeRequest{AudioPath: audio, Variant: whisper.VariantHinglish})
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if result.SRT != "" || len(result.Captions) != 0 || result.Captions == nil || result.Segments == nil {
		t.Fatalf("expected empty non-nil outputs, got %+v", result)
	}
	if !result.Validation.IsValid || len(result.Validation.Errors) != 1 {
		t.Fatalf("expected valid with one note, got %+v", result.Validation)
	}
	assertGone(t, audio)
}

func TestTranscribeFailureStillCleansUp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ledger := testsupport.MustOpenLedger(t, cfg)
	audio := stage(t, cfg.Paths.StagingDir, "audio-3.wav", "riff")
	engineErr := services.Wrap(services.ErrEngineFailure, "transcription", "whisper", "speech recognition failed",
		&services.ToolError{Tool: "whisper", ExitCode: 1, Diagnostic: "boom"})
	p := pipeline.New(pipeline.Options{Transcriber: &fakeTranscriber{err: engineErr}, Ledger: ledger})

	_, err := p.Transcribe(context.Background(), pipeline.TranscribeRequest{AudioPath: audio, Variant: whisper.VariantGeneral})
	if !errors.Is(err, services.ErrEngineFailure) {
		t.Fatalf("expected engine failure, got %v", err)
	}
	assertGone(t, audio)

	entries, _ := ledger.List(context.Background(), 10)
	if len(entries) != 1 || entries[0].ErrorKind != string(services.KindEngineFailure) {
		t.Fatalf("expected failed ledger entry, got %+v", entries)
	}
}

// outputRunner simulates ffmpeg writing content to the output path.
type outputRunner struct {
	content []byte
	calls   int
}

func (r *outputRunner) Run(_ context.Context, cmd execrun.Command) (execrun.Result, error) {
	r.calls++
	for i := len(cmd.Args) - 1; i >= 0; i-- {
		if strings.HasSuffix(cmd.Args[i], ".mp4") && cmd.Args[i-1] != "-i" {
			return execrun.Result{Stderr: []byte("frame=1 time=00:00:01.00")}, os.WriteFile(cmd.Args[i], r.content, 0o644)
		}
	}
	return execrun.Result{}, errors.New("no output arg")
}

func renderFixture(t *testing.T, srt string) (string, string, string) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	dir := cfg.Paths.StagingDir
	return dir, stage(t, dir, "video-1.mp4", "video"), stage(t, dir, "srt-1.srt", srt)
}

func TestRenderZeroByteOutputCleansEverything(t *testing.T) {
	dir, video, srt := renderFixture(t, "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n")
	runner := &outputRunner{content: []byte{}}
	orch := render.NewOrchestrator(render.DefaultConfig(), runner, nil)
	p := pipeline.New(pipeline.Options{Renderer: orch, StagingDir: dir})

	delivered := false
	_, err := p.Render(context.Background(), pipeline.RenderRequest{VideoPath: video, SubtitlePath: srt, Theme: style.DefaultTheme()},
		func(context.Context, string) error { delivered = true; return nil })
	if !errors.Is(err, services.ErrRenderFailure) {
		t.Fatalf("expected render failure, got %v", err)
	}
	if delivered {
		t.Fatal("failed render must not be delivered")
	}
	if runner.calls != 1 {
		t.Fatalf("expected one encoder call, got %d", runner.calls)
	}
	assertEmptyDir(t, dir)
}

func TestRenderWhitespaceSRTSkipsEncoder(t *testing.T) {
	dir, video, srt := renderFixture(t, "  \n\n")
	runner := &outputRunner{content: []byte("mp4")}
	p := pipeline.New(pipeline.Options{Renderer: render.NewOrchestrator(render.DefaultConfig(), runner, nil), StagingDir: dir})

	_, err := p.Render(context.Background(), pipeline.RenderRequest{VideoPath: video, SubtitlePath: srt, Theme: style.DefaultTheme()}, nil)
	if !errors.Is(err, services.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if runner.calls != 0 {
		t.Fatalf("encoder invoked %d times", runner.calls)
	}
	assertEmptyDir(t, dir)
}

func TestRenderDeliversThenCleansUp(t *testing.T) {
	dir, video, srt := renderFixture(t, "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n")
	runner := &outputRunner{content: []byte("mp4-bytes")}
	p := pipeline.New(pipeline.Options{Renderer: render.NewOrchestrator(render.DefaultConfig(), runner, nil), StagingDir: dir})

	var got []byte
	result, err := p.Render(context.Background(), pipeline.RenderRequest{VideoPath: video, SubtitlePath: srt, Theme: style.DefaultTheme()},
		func(_ context.Context, outputPath string) error {
			var readErr error
			got, readErr = os.ReadFile(outputPath)
			return readErr
		})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if string(got) != "mp4-bytes" || result.OutputBytes != int64(len("mp4-bytes")) {
		t.Fatalf("unexpected delivery %q result %+v", got, result)
	}
	if !strings.HasPrefix(filepath.Base(result.OutputPath), pipeline.OutputName+"-") {
		t.Fatalf("unexpected output name %s", result.OutputPath)
	}
	assertEmptyDir(t, dir)
}

func TestRenderDeliveryFailureStillCleansUp(t *testing.T) {
	dir, video, srt := renderFixture(t, "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n")
	runner := &outputRunner{content: []byte("mp4")}
	p := pipeline.New(pipeline.Options{Renderer: render.NewOrchestrator(render.DefaultConfig(), runner, nil), StagingDir: dir})

	_, err := p.Render(context.Background(), pipeline.RenderRequest{VideoPath: video, SubtitlePath: srt, Theme: style.DefaultTheme()},
		func(context.Context, string) error { return errors.New("broken pipe") })
	if err == nil {
		t.Fatal("expected delivery error")
	}
	if services.KindOf(err) != services.KindInternal {
		t.Fatalf("expected internal kind, got %s", services.KindOf(err))
	}
	assertEmptyDir(t, dir)
}

func TestRenderSurvivesCancelledRequest(t *testing.T) {
	dir, video, srt := renderFixture(t, "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n")
	seenCancelled := false
	runner := execrun.RunnerFunc(func(ctx context.Context, cmd execrun.Command) (execrun.Result, error) {
		seenCancelled = ctx.Err() != nil
		out := cmd.Args[len(cmd.Args)-1]
		if out == "-y" {
			out = cmd.Args[len(cmd.Args)-2]
		}
		return execrun.Result{}, os.WriteFile(out, []byte("mp4"), 0o644)
	})
	p := pipeline.New(pipeline.Options{Renderer: render.NewOrchestrator(render.DefaultConfig(), runner, nil), StagingDir: dir})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Render(ctx, pipeline.RenderRequest{VideoPath: video, SubtitlePath: srt, Theme: style.DefaultTheme()}, nil); err != nil {
		t.Fatalf("Render: %v", err)
	}
	if seenCancelled {
		t.Fatal("encoder context should not inherit request cancellation")
	}
	assertEmptyDir(t, dir)
}
