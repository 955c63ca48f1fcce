// Package logging assembles structured slog loggers and formatting helpers used
// across the captioner services.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so pipeline code can tag log
// lines with request IDs, job kinds, and stages. The package also provides a
// no-op logger for tests and wiring code that cannot fail, plus log retention
// pruning for the configured log directory.
package logging
