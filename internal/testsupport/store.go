package testsupport

import (
	"context"
	"testing"

	"captioner/internal/config"
	"captioner/internal/jobs"
)

// MustOpenLedger opens the job ledger for tests and registers cleanup.
func MustOpenLedger(t testing.TB, cfg *config.Config) *jobs.Store {
	t.Helper()

	store, err := jobs.Open(cfg.HistoryDBPath())
	if err != nil {
		t.Fatalf("jobs.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordEntry inserts a ledger entry for tests.
func RecordEntry(t testing.TB, store *jobs.Store, entry jobs.Entry) *jobs.Entry {
	t.Helper()

	if err := store.Record(context.Background(), &entry); err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return &entry
}
