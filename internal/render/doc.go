// Package render burns SRT captions into a video with ffmpeg.
//
// The Orchestrator validates its inputs, maps the caption theme onto an
// ffmpeg force_style, runs the encoder through an execrun.Runner, and checks
// that a non-empty output exists before reporting success. It never deletes
// its inputs or outputs; cleanup belongs to the caller.
package render
