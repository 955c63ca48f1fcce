// Package main hosts the captioner CLI entrypoint and command graph.
//
// `captioner serve` runs the HTTP API with the staging sweeper and job ledger.
// The remaining commands drive the same engines directly against local files:
// transcribe an audio file to SRT, burn an SRT into a video, validate an SRT,
// inspect the job ledger, and check that external tools are installed.
//
// Local commands never hand user files to a staging scope; only the
// temporary outputs they create are cleaned up.
package main
