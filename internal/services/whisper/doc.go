// Package whisper adapts out-of-process speech recognition engines into
// caption segments.
//
// Two variants are supported. The general variant runs the openai-whisper CLI
// and reads the JSON file it writes into a per-call work directory. The
// hinglish variant runs a python helper that prints the same JSON shape on
// stdout. Both run through an execrun.Runner so tests can substitute the
// engine and cancellation kills the engine's process group.
package whisper
