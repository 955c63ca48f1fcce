// Package jobs keeps a SQLite ledger of transcription and render outcomes.
//
// Entries record what ran, how long it took, and how it ended. Caption text
// and media never enter the ledger.
package jobs
