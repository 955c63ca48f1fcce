package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"captioner/internal/api"
	"captioner/internal/captions"
	"captioner/internal/config"
	"captioner/internal/jobs"
	"captioner/internal/pipeline"
	"captioner/internal/render"
	"captioner/internal/services"
	"captioner/internal/services/execrun"
	"captioner/internal/services/whisper"
	"captioner/internal/testsupport"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeTranscriber struct {
	segments []captions.Segment
	err      error
	calls    int
	variants []whisper.Variant
}

func (f *fakeTranscriber) Transcribe(_ context.Context, _ string, variant whisper.Variant) ([]captions.Segment, error) {
	f.calls++
	f.variants = append(f.variants, variant)
	return f.segments, f.err
}

func (f *fakeTranscriber) ModelLabel(variant whisper.Variant) string {
	return "fake-" + string(variant)
}

type harness struct {
	cfg         *config.Config
	transcriber *fakeTranscriber
	runnerCalls int
	runnerErr   error
	ledger      *jobs.Store
	handler     http.Handler
}

type harnessOption func(*harness)

func withLedger() harnessOption {
	return func(h *harness) { h.cfg.History.Enabled = true }
}

func withOrigins(origins ...string) harnessOption {
	return func(h *harness) { h.cfg.Server.AllowedOrigins = origins }
}

func withUploadLimitMiB(mib int) harnessOption {
	return func(h *harness) { h.cfg.Server.MaxUploadMiB = mib }
}

func newHarness(t *testing.T, opts ...harnessOption) *harness {
	t.Helper()
	h := &harness{
		cfg: testsupport.NewConfig(t),
		transcriber: &fakeTranscriber{segments: []captions.Segment{
			{Start: 0, End: 1.5, Text: "Hello"},
			{Start: 1.5, End: 3.0, Text: "world"},
		}},
	}
	for _, opt := range opts {
		opt(h)
	}

	runner := execrun.RunnerFunc(func(_ context.Context, cmd execrun.Command) (execrun.Result, error) {
		h.runnerCalls++
		if h.runnerErr != nil {
			return execrun.Result{Stderr: []byte("Error opening input")}, h.runnerErr
		}
		out := cmd.Args[len(cmd.Args)-1]
		if out == "-y" {
			out = cmd.Args[len(cmd.Args)-2]
		}
		return execrun.Result{}, os.WriteFile(out, []byte("mp4data"), 0o644)
	})

	var ledger pipeline.Ledger
	serverOpts := api.Options{Config: h.cfg}
	if h.cfg.History.Enabled {
		h.ledger = testsupport.MustOpenLedger(t, h.cfg)
		ledger = h.ledger
		serverOpts.Jobs = h.ledger
	}
	serverOpts.Pipeline = pipeline.New(pipeline.Options{
		Transcriber: h.transcriber,
		Renderer:    render.NewOrchestrator(render.DefaultConfig(), runner, nil),
		Ledger:      ledger,
		StagingDir:  h.cfg.Paths.StagingDir,
	})

	server, err := api.NewServer(serverOpts)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	h.handler = server.Handler()
	return h
}

type filePart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func multipartBody(t *testing.T, files []filePart, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for _, f := range files {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		header.Set("Content-Type", f.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(f.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func (h *harness) post(t *testing.T, path string, files []filePart, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, files, fields)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func (h *harness) assertStagingEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(h.cfg.Paths.StagingDir)
	if err != nil {
		t.Fatalf("read staging dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty staging dir, found %d entries", len(entries))
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return out
}

func audioPart() filePart {
	return filePart{field: "audio", filename: "clip.mp3", contentType: "audio/mpeg", content: []byte("id3")}
}

func TestUploadAudioReturnsSRT(t *testing.T) {
	h := newHarness(t)
	rec := h.post(t, "/api/upload-audio", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[api.TranscriptionResponse](t, rec)
	want := "1\n00:00:00,000 --> 00:00:01,500\nHello\n\n2\n00:00:01,500 --> 00:00:03,000\nworld\n\n"
	if resp.SRT != want {
		t.Fatalf("srt = %q, want %q", resp.SRT, want)
	}
	if !resp.Success || resp.SegmentCount != 2 || resp.Filename != "clip.mp3" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.Duration != 3.0 || !resp.Validation.IsValid {
		t.Fatalf("duration=%v validation=%+v", resp.Duration, resp.Validation)
	}
	if resp.Model != "fake-general" || resp.Language != "" {
		t.Fatalf("model=%q language=%q", resp.Model, resp.Language)
	}
	h.assertStagingEmpty(t)
}

func TestUploadAudioHinglish(t *testing.T) {
	h := newHarness(t)
	rec := h.post(t, "/api/upload-audio-hinglish", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[api.TranscriptionResponse](t, rec)
	if resp.Variant != "hinglish" || resp.Language != "Hinglish (Hindi + English)" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if len(h.transcriber.variants) != 1 || h.transcriber.variants[0] != whisper.VariantHinglish {
		t.Fatalf("variants = %v", h.transcriber.variants)
	}
}

func TestUploadAudioEmptyTranscript(t *testing.T) {
	h := newHarness(t)
	h.transcriber.segments = nil
	rec := h.post(t, "/api/upload-audio", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[api.TranscriptionResponse](t, rec)
	if resp.SRT != "" || resp.SegmentCount != 0 || resp.Segments == nil {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestTranscribeVariantQuery(t *testing.T) {
	h := newHarness(t)

	rec := h.post(t, "/api/transcribe?variant=hinglish", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.post(t, "/api/transcribe?variant=klingon", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	resp := decode[api.ErrorResponse](t, rec)
	if !resp.Error || resp.Kind != string(services.KindInvalidInput) {
		t.Fatalf("unexpected error body %+v", resp)
	}
	if h.transcriber.calls != 1 {
		t.Fatalf("transcriber calls = %d, want 1", h.transcriber.calls)
	}
	h.assertStagingEmpty(t)
}

func TestUploadRejections(t *testing.T) {
	tests := []struct {
		name   string
		files  []filePart
		status int
		want   string
	}{
		{
			name:   "missing file",
			status: http.StatusBadRequest,
			want:   "No audio file uploaded",
		},
		{
			name:   "disallowed type",
			files:  []filePart{{field: "audio", filename: "notes.zip", contentType: "application/zip", content: []byte("PK")}},
			status: http.StatusBadRequest,
			want:   "Invalid file type",
		},
		{
			name:   "subtitle in audio field",
			files:  []filePart{{field: "audio", filename: "captions.srt", contentType: "application/x-subrip", content: []byte("1")}},
			status: http.StatusBadRequest,
			want:   "expected audio or video file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.post(t, "/api/upload-audio", tt.files, nil)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d body=%s", rec.Code, tt.status, rec.Body.String())
			}
			resp := decode[api.ErrorResponse](t, rec)
			if !strings.Contains(resp.Message, tt.want) {
				t.Fatalf("message = %q, want it to contain %q", resp.Message, tt.want)
			}
			if h.transcriber.calls != 0 {
				t.Fatalf("transcriber calls = %d, want 0", h.transcriber.calls)
			}
			h.assertStagingEmpty(t)
		})
	}
}

func TestUploadTooLarge(t *testing.T) {
	h := newHarness(t, withUploadLimitMiB(1))
	big := audioPart()
	big.content = bytes.Repeat([]byte{0x42}, 1<<20+10)
	rec := h.post(t, "/api/upload-audio", []filePart{big}, nil)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("status = %d, want 413 body=%s", rec.Code, rec.Body.String())
	}
	if h.transcriber.calls != 0 {
		t.Fatalf("transcriber calls = %d, want 0", h.transcriber.calls)
	}
	h.assertStagingEmpty(t)
}

func TestEngineFailureHidesDiagnostic(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = services.Wrap(services.ErrEngineFailure, "transcription", "run", "whisper failed",
		&services.ToolError{Tool: "whisper", ExitCode: 1, Diagnostic: "Traceback: secret internals"})
	rec := h.post(t, "/api/upload-audio", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "secret") {
		t.Fatalf("diagnostic leaked: %s", rec.Body.String())
	}
	resp := decode[api.ErrorResponse](t, rec)
	if resp.Kind != string(services.KindEngineFailure) || resp.Message != "Speech recognition failed" {
		t.Fatalf("unexpected error body %+v", resp)
	}
	h.assertStagingEmpty(t)
}

func TestTimeoutMapsTo504(t *testing.T) {
	h := newHarness(t)
	h.transcriber.err = services.Wrap(services.ErrTimeout, "transcription", "run", "whisper timed out", nil)
	rec := h.post(t, "/api/upload-audio", []filePart{audioPart()}, nil)
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("status = %d, want 504", rec.Code)
	}
}

func renderParts() []filePart {
	return []filePart{
		{field: "video", filename: "clip.mp4", contentType: "video/mp4", content: []byte("ftyp")},
		{field: "srt", filename: "clip.srt", contentType: "application/x-subrip", content: []byte("1\n00:00:00,000 --> 00:00:01,000\nHi\n")},
	}
}

func TestRenderVideoStreamsAttachment(t *testing.T) {
	h := newHarness(t)
	rec := h.post(t, "/api/render-video", renderParts(), map[string]string{
		"captionStyle": "topbar",
		"captionColor": "#ffcc00",
		"captionSize":  "32px",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
		t.Fatalf("content type = %q", got)
	}
	disposition := rec.Header().Get("Content-Disposition")
	if !strings.HasPrefix(disposition, "attachment;") || !strings.Contains(disposition, "rendered-") {
		t.Fatalf("content disposition = %q", disposition)
	}
	if rec.Body.String() != "mp4data" {
		t.Fatalf("body = %q", rec.Body.String())
	}
	if h.runnerCalls != 1 {
		t.Fatalf("runner calls = %d, want 1", h.runnerCalls)
	}
	h.assertStagingEmpty(t)
}

func TestRenderVideoRejections(t *testing.T) {
	tests := []struct {
		name   string
		files  []filePart
		fields map[string]string
		want   string
	}{
		{
			name:  "missing srt",
			files: renderParts()[:1],
			want:  "No srt file uploaded",
		},
		{
			name:   "bad color",
			files:  renderParts(),
			fields: map[string]string{"captionColor": "blue"},
			want:   "blue",
		},
		{
			name:   "unknown preset",
			files:  renderParts(),
			fields: map[string]string{"captionStyle": "marquee"},
			want:   "marquee",
		},
		{
			name: "blank srt",
			files: []filePart{
				renderParts()[0],
				{field: "srt", filename: "clip.srt", contentType: "application/x-subrip", content: []byte("  \n")},
			},
			want: "subtitle file is empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			rec := h.post(t, "/api/render-video", tt.files, tt.fields)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
			}
			resp := decode[api.ErrorResponse](t, rec)
			if !strings.Contains(resp.Message, tt.want) {
				t.Fatalf("message = %q, want it to contain %q", resp.Message, tt.want)
			}
			if h.runnerCalls != 0 {
				t.Fatalf("runner calls = %d, want 0", h.runnerCalls)
			}
			h.assertStagingEmpty(t)
		})
	}
}

func TestRenderFailure(t *testing.T) {
	h := newHarness(t)
	h.runnerErr = &execrun.ExitError{Code: 1}
	rec := h.post(t, "/api/render-video", renderParts(), nil)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("status = %d body=%s", rec.Code, rec.Body.String())
	}
	resp := decode[api.ErrorResponse](t, rec)
	if resp.Kind != string(services.KindRenderFailure) {
		t.Fatalf("kind = %q", resp.Kind)
	}
	if strings.Contains(rec.Body.String(), "Error opening input") {
		t.Fatalf("stderr leaked: %s", rec.Body.String())
	}
	h.assertStagingEmpty(t)
}

func TestJobsEndpoint(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		h := newHarness(t)
		rec := h.get(t, "/api/jobs")
		resp := decode[api.JobListResponse](t, rec)
		if rec.Code != http.StatusOK || resp.Enabled || resp.Jobs == nil || len(resp.Jobs) != 0 {
			t.Fatalf("status=%d resp=%+v", rec.Code, resp)
		}
	})

	t.Run("records requests", func(t *testing.T) {
		h := newHarness(t, withLedger())
		h.post(t, "/api/upload-audio", []filePart{audioPart()}, nil)
		h.transcriber.err = services.Wrap(services.ErrEngineFailure, "transcription", "run", "boom", nil)
		h.post(t, "/api/upload-audio", []filePart{audioPart()}, nil)

		resp := decode[api.JobListResponse](t, h.get(t, "/api/jobs?limit=10"))
		if !resp.Enabled || len(resp.Jobs) != 2 {
			t.Fatalf("resp = %+v", resp)
		}
		statuses := map[string]int{}
		for _, job := range resp.Jobs {
			statuses[job.Status]++
			if job.Kind != string(jobs.KindTranscribe) || job.InputName != "clip.mp3" {
				t.Fatalf("unexpected job %+v", job)
			}
		}
		if statuses[string(jobs.StatusSucceeded)] != 1 || statuses[string(jobs.StatusFailed)] != 1 {
			t.Fatalf("statuses = %v", statuses)
		}
	})

	t.Run("bad limit", func(t *testing.T) {
		h := newHarness(t)
		if rec := h.get(t, "/api/jobs?limit=abc"); rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
	})
}

func TestHealthAndDiscovery(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/health")
	health := decode[api.HealthResponse](t, rec)
	if rec.Code != http.StatusOK || health.Status != "OK" || health.Timestamp == "" {
		t.Fatalf("status=%d health=%+v", rec.Code, health)
	}
	if len(health.Dependencies) == 0 {
		t.Fatal("expected dependency statuses")
	}
	for _, feature := range []string{"render", "transcribe", "transcribe_hinglish"} {
		if _, ok := health.Features[feature]; !ok {
			t.Fatalf("feature %q missing from %v", feature, health.Features)
		}
	}
	for _, dep := range health.Dependencies {
		if dep.Feature == "" {
			t.Fatalf("dependency %q has no feature", dep.Name)
		}
	}

	rec = h.get(t, "/api/test")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/api/render-video") {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}

	rec = h.get(t, "/api/nope")
	resp := decode[api.ErrorResponse](t, rec)
	if rec.Code != http.StatusNotFound || !resp.Error || resp.Message != "Route not found" {
		t.Fatalf("status=%d resp=%+v", rec.Code, resp)
	}
}

func TestCORS(t *testing.T) {
	h := newHarness(t, withOrigins("http://localhost:3000"))

	req := httptest.NewRequest(http.MethodOptions, "/api/render-video", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "true" {
		t.Fatalf("allow credentials = %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("foreign origin status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("unexpected allow origin %q", got)
	}
}

func TestCORSWildcardDropsCredentials(t *testing.T) {
	h := newHarness(t, withOrigins("*"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("allow origin = %q, want *", got)
	}
	if got := rec.Header().Get("Access-Control-Allow-Credentials"); got != "" {
		t.Fatalf("allow credentials = %q, want none", got)
	}
}

func TestRequestIDHeader(t *testing.T) {
	h := newHarness(t)

	rec := h.get(t, "/health")
	if rec.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "client-123")
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	if got := rec.Header().Get("X-Request-ID"); got != "client-123" {
		t.Fatalf("request id = %q", got)
	}
}
