package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestTeeHandlerCollapses(t *testing.T) {
	if _, ok := TeeHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every handler is nil")
	}
	var buf bytes.Buffer
	inner := slog.NewJSONHandler(&buf, nil)
	if h := TeeHandler(nil, inner); h != inner {
		t.Fatal("expected single non-nil handler to be returned unwrapped")
	}
}

func TestTeeHandlerRespectsEachLevel(t *testing.T) {
	var verbose, quiet bytes.Buffer
	h := TeeHandler(
		slog.NewJSONHandler(&verbose, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewJSONHandler(&quiet, &slog.HandlerOptions{Level: slog.LevelWarn}),
	)
	if !h.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("expected fanout enabled while any handler accepts debug")
	}

	logger := slog.New(h)
	logger.Debug("probe")
	logger.Warn("disk low")

	if !strings.Contains(verbose.String(), "probe") || !strings.Contains(verbose.String(), "disk low") {
		t.Fatalf("verbose handler missed records: %s", verbose.String())
	}
	if strings.Contains(quiet.String(), "probe") {
		t.Fatalf("quiet handler received debug record: %s", quiet.String())
	}
	if !strings.Contains(quiet.String(), "disk low") {
		t.Fatalf("quiet handler missed warning: %s", quiet.String())
	}
}

func TestTeeHandlerCarriesAttrsAndGroups(t *testing.T) {
	var a, b bytes.Buffer
	h := TeeHandler(slog.NewJSONHandler(&a, nil), slog.NewJSONHandler(&b, nil))
	logger := slog.New(h).With("request_id", "r1").WithGroup("render")
	logger.Info("done", "crf", 23)

	for _, out := range []string{a.String(), b.String()} {
		if !strings.Contains(out, `"request_id":"r1"`) {
			t.Fatalf("missing attr in %s", out)
		}
		if !strings.Contains(out, `"render":{"crf":23}`) {
			t.Fatalf("missing group in %s", out)
		}
	}
}
