package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"captioner/internal/jobs"
	"captioner/internal/logging"
	"captioner/internal/subtitles"
	"captioner/internal/testsupport"
)

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	valid := writeFile(t, dir, "ok.srt", "1\n00:00:00,000 --> 00:00:01,500\nHello\n\n2\n00:00:01,500 --> 00:00:03,000\nworld\n\n")
	overlap := writeFile(t, dir, "overlap.srt", "1\n00:00:00,000 --> 00:00:02,000\nHello\n\n2\n00:00:01,000 --> 00:00:03,000\nworld\n\n")
	broken := writeFile(t, dir, "broken.srt", "1\n00:00:02,000 --> 00:00:01,000\nBackwards\n\n")

	out, _, err := runCLI(t, []string{"validate", valid}, "")
	if err != nil {
		t.Fatalf("validate valid: %v", err)
	}
	requireContains(t, out, "valid")

	out, _, err = runCLI(t, []string{"validate", overlap}, "")
	if err != nil {
		t.Fatalf("overlap is a warning, got error: %v", err)
	}
	requireContains(t, out, "warning")

	out, _, err = runCLI(t, []string{"validate", broken}, "")
	if err == nil {
		t.Fatal("expected invalid file to fail")
	}
	requireContains(t, out, "invalid")

	out, _, err = runCLI(t, []string{"validate", "--json", valid}, "")
	if err != nil {
		t.Fatalf("validate --json: %v", err)
	}
	var validation subtitles.Validation
	if err := json.Unmarshal([]byte(out), &validation); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if !validation.IsValid {
		t.Fatalf("expected valid result, got %+v", validation)
	}

	if _, _, err := runCLI(t, []string{"validate", filepath.Join(dir, "missing.srt")}, ""); err == nil {
		t.Fatal("expected missing file to fail")
	}
}

func TestJobsCommand(t *testing.T) {
	t.Run("disabled", func(t *testing.T) {
		env := setupCLITestEnv(t, testsupport.WithHistory(false))
		out, _, err := runCLI(t, []string{"jobs"}, env.configPath)
		if err != nil {
			t.Fatalf("jobs: %v", err)
		}
		requireContains(t, out, "disabled")
	})

	t.Run("lists entries", func(t *testing.T) {
		env := setupCLITestEnv(t, testsupport.WithHistory(true))

		out, _, err := runCLI(t, []string{"jobs"}, env.configPath)
		if err != nil {
			t.Fatalf("jobs: %v", err)
		}
		requireContains(t, out, "No jobs recorded yet")

		store := testsupport.MustOpenLedger(t, env.cfg)
		testsupport.RecordEntry(t, store, jobs.Entry{
			Kind:         jobs.KindTranscribe,
			Status:       jobs.StatusSucceeded,
			InputName:    "interview.mp3",
			SegmentCount: 12,
		})
		testsupport.RecordEntry(t, store, jobs.Entry{
			Kind:      jobs.KindRender,
			Status:    jobs.StatusFailed,
			InputName: "clip.mp4",
			ErrorKind: "render_failure",
		})

		out, _, err = runCLI(t, []string{"jobs"}, env.configPath)
		if err != nil {
			t.Fatalf("jobs: %v", err)
		}
		requireContains(t, out, "interview.mp3")
		requireContains(t, out, "12 captions")
		requireContains(t, out, "render_failure")

		out, _, err = runCLI(t, []string{"jobs", "--json", "--limit", "1"}, env.configPath)
		if err != nil {
			t.Fatalf("jobs --json: %v", err)
		}
		var payload []map[string]any
		if err := json.Unmarshal([]byte(out), &payload); err != nil {
			t.Fatalf("decode json: %v", err)
		}
		if len(payload) != 1 {
			t.Fatalf("expected 1 job, got %d", len(payload))
		}
	})
}

func TestTranscribeRejectsUnknownVariant(t *testing.T) {
	env := setupCLITestEnv(t)
	audio := writeFile(t, t.TempDir(), "clip.mp3", "id3")
	_, _, err := runCLI(t, []string{"transcribe", "--variant", "klingon", audio}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "klingon") {
		t.Fatalf("expected variant error, got %v", err)
	}
}

func TestRenderRequiresOutput(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := t.TempDir()
	video := writeFile(t, dir, "clip.mp4", "ftyp")
	srt := writeFile(t, dir, "clip.srt", "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n")

	if _, _, err := runCLI(t, []string{"render", video, srt}, env.configPath); err == nil {
		t.Fatal("expected missing --output to fail")
	}
	if _, _, err := runCLI(t, []string{"render", video, srt, "-o", filepath.Join(dir, "out.mp4"), "--color", "blue"}, env.configPath); err == nil {
		t.Fatal("expected invalid colour to fail")
	}
	if _, err := os.Stat(video); err != nil {
		t.Fatalf("input video must be left in place: %v", err)
	}
}

func TestArchivePreviousLog(t *testing.T) {
	dir := t.TempDir()
	if err := archivePreviousLog(dir); err != nil {
		t.Fatalf("archive with no log: %v", err)
	}

	current := filepath.Join(dir, logging.LogFileName)
	if err := os.WriteFile(current, []byte("{}\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	stamp := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	if err := os.Chtimes(current, stamp, stamp); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	if err := archivePreviousLog(dir); err != nil {
		t.Fatalf("archive: %v", err)
	}
	if _, err := os.Stat(current); !os.IsNotExist(err) {
		t.Fatalf("expected current log moved, stat err=%v", err)
	}
	archived := filepath.Join(dir, "captioner-20260102T030405.000Z.log")
	if _, err := os.Stat(archived); err != nil {
		t.Fatalf("expected archived log: %v", err)
	}
}

func TestStagingCommands(t *testing.T) {
	env := setupCLITestEnv(t)
	dir := env.cfg.Paths.StagingDir

	out, _, err := runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "empty")

	stale := filepath.Join(dir, "video-1-stale.mp4")
	testsupport.WriteFile(t, stale, 2048)
	old := time.Now().Add(-3 * time.Hour)
	if err := os.Chtimes(stale, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	fresh := filepath.Join(dir, "audio-2-fresh.mp3")
	testsupport.WriteFile(t, fresh, 10)

	out, _, err = runCLI(t, []string{"staging", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("staging list: %v", err)
	}
	requireContains(t, out, "video-1-stale.mp4")
	requireContains(t, out, "2.0 KiB")

	out, _, err = runCLI(t, []string{"staging", "clean", "--max-age", "1h"}, env.configPath)
	if err != nil {
		t.Fatalf("staging clean: %v", err)
	}
	requireContains(t, out, "Removed 1 entries")
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("expected stale entry removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("expected fresh entry kept: %v", err)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := map[int64]string{
		0:       "0 B",
		1023:    "1023 B",
		2048:    "2.0 KiB",
		5 << 20: "5.0 MiB",
		3 << 30: "3.0 GiB",
	}
	for input, want := range tests {
		if got := formatBytes(input); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", input, got, want)
		}
	}
}
