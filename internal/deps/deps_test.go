package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"captioner/internal/services/execrun"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != "" {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Available || results[2].Detail != "command not configured" || !results[2].Optional {
		t.Fatalf("unexpected blank result: %#v", results[2])
	}
}

func TestFeatures(t *testing.T) {
	statuses := []Status{
		{Name: "FFmpeg", Feature: FeatureRender, Available: true},
		{Name: "filter", Feature: FeatureRender, Available: false},
		{Name: "Whisper", Feature: FeatureTranscribe, Available: true},
		{Name: "python", Feature: FeatureHinglish, Available: false, Optional: true},
		{Name: "untagged", Available: false},
	}
	features := Features(statuses)
	want := map[Feature]bool{FeatureRender: false, FeatureTranscribe: true, FeatureHinglish: false}
	if len(features) != len(want) {
		t.Fatalf("features = %v, want %v", features, want)
	}
	for feature, ready := range want {
		if features[feature] != ready {
			t.Fatalf("feature %s ready=%v, want %v", feature, features[feature], ready)
		}
	}

	missing := Missing(statuses)
	if len(missing) != 2 || missing[0] != FeatureRender || missing[1] != FeatureHinglish {
		t.Fatalf("missing = %v", missing)
	}
}

func TestCheckBinariesCarriesFeature(t *testing.T) {
	results := CheckBinaries([]Requirement{{Name: "Whisper", Command: "clearly-not-present-binary", Feature: FeatureTranscribe}})
	if results[0].Feature != FeatureTranscribe || results[0].Available {
		t.Fatalf("unexpected status %#v", results[0])
	}
}

const filterListing = `Filters:
  T.. = Timeline support
 ... scale             V->V       Scale the input video size and/or convert the image format.
 ... subtitles         V->V       Render text subtitles onto input video using the libass library.
`

func TestCheckSubtitlesFilter(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		err   error
		avail bool
	}{
		{name: "present", out: filterListing, avail: true},
		{name: "missing", out: " ... scale V->V Scale\n"},
		{name: "probe error", err: errors.New("exec: not found")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen execrun.Command
			runner := execrun.RunnerFunc(func(_ context.Context, cmd execrun.Command) (execrun.Result, error) {
				seen = cmd
				return execrun.Result{Stdout: []byte(tt.out)}, tt.err
			})
			status := CheckSubtitlesFilter(context.Background(), runner, "ffmpeg")
			if status.Available != tt.avail {
				t.Fatalf("available=%v want %v (detail %q)", status.Available, tt.avail, status.Detail)
			}
			if status.Feature != FeatureRender {
				t.Fatalf("feature = %q", status.Feature)
			}
			if !tt.avail && status.Detail == "" {
				t.Fatal("expected detail for unavailable filter")
			}
			if seen.Name != "ffmpeg" || len(seen.Args) != 2 || seen.Args[1] != "-filters" {
				t.Fatalf("unexpected probe command %s", seen)
			}
		})
	}
}

func TestCheckSubtitlesFilterUnconfigured(t *testing.T) {
	status := CheckSubtitlesFilter(context.Background(), nil, "")
	if status.Available || status.Detail != "command not configured" {
		t.Fatalf("unexpected status %#v", status)
	}
}
