package jobs_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"captioner/internal/jobs"
	"captioner/internal/testsupport"
)

func TestOpenCreatesSchemaAndRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	entry := testsupport.RecordEntry(t, store, jobs.Entry{
		Kind:         jobs.KindTranscribe,
		Status:       jobs.StatusSucceeded,
		Variant:      "general",
		InputName:    "talk.mp3",
		SegmentCount: 12,
		MediaSeconds: 61.5,
		ElapsedMS:    4200,
	})
	if entry.ID == "" || entry.CreatedAt.IsZero() {
		t.Fatalf("expected ID and timestamp assigned, got %+v", entry)
	}

	fetched, err := store.Get(context.Background(), entry.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if fetched == nil || fetched.InputName != "talk.mp3" || fetched.SegmentCount != 12 || fetched.Preset != "" {
		t.Fatalf("unexpected entry: %+v", fetched)
	}
	if !fetched.CreatedAt.Equal(entry.CreatedAt.UTC()) {
		t.Fatalf("timestamp mismatch: %v vs %v", fetched.CreatedAt, entry.CreatedAt)
	}

	missing, err := store.Get(context.Background(), "nope")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing id, got %+v %v", missing, err)
	}
}

func TestReopenKeepsEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := jobs.Open(cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Record(context.Background(), &jobs.Entry{Kind: jobs.KindRender, Status: jobs.StatusFailed, ErrorKind: "render_failure"}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened := testsupport.MustOpenLedger(t, cfg)
	entries, err := reopened.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 || !entries[0].Failed() || entries[0].ErrorKind != "render_failure" {
		t.Fatalf("unexpected entries after reopen: %+v", entries)
	}
}

func TestListNewestFirstWithLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := range 5 {
		testsupport.RecordEntry(t, store, jobs.Entry{
			Kind:      jobs.KindTranscribe,
			Status:    jobs.StatusSucceeded,
			InputName: string(rune('a' + i)),
			CreatedAt: base.Add(time.Duration(i) * 500 * time.Millisecond),
		})
	}

	entries, err := store.List(context.Background(), 3)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	for i, want := range []string{"e", "d", "c"} {
		if entries[i].InputName != want {
			t.Fatalf("entry %d: got %q want %q", i, entries[i].InputName, want)
		}
	}
}

func TestStatsAndPrune(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)
	ctx := context.Background()

	old := time.Now().Add(-60 * 24 * time.Hour)
	testsupport.RecordEntry(t, store, jobs.Entry{Kind: jobs.KindRender, Status: jobs.StatusSucceeded, CreatedAt: old})
	testsupport.RecordEntry(t, store, jobs.Entry{Kind: jobs.KindRender, Status: jobs.StatusSucceeded})
	testsupport.RecordEntry(t, store, jobs.Entry{Kind: jobs.KindTranscribe, Status: jobs.StatusFailed})

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[jobs.StatusSucceeded] != 2 || stats[jobs.StatusFailed] != 1 {
		t.Fatalf("unexpected stats: %v", stats)
	}

	removed, err := store.Prune(ctx, time.Now().Add(-30*24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned, got %d", removed)
	}
}

func TestRecordValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenLedger(t, cfg)

	if err := store.Record(context.Background(), nil); err == nil {
		t.Fatal("expected error for nil entry")
	}
	if err := store.Record(context.Background(), &jobs.Entry{Kind: jobs.KindRender}); err == nil {
		t.Fatal("expected error for missing status")
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := jobs.Open(" "); err == nil {
		t.Fatal("expected error for blank path")
	}
	store, err := jobs.Open(filepath.Join(t.TempDir(), "nested", "jobs.db"))
	if err != nil {
		t.Fatalf("expected nested dir created, got %v", err)
	}
	_ = store.Close()
}
