// Package services defines shared utilities consumed by the pipeline stages
// and the external engine adapters.
//
// Key responsibilities:
//   - Context helpers that stamp request IDs, job kinds, and stage names for
//     logging and tracing.
//   - Structured error markers plus the Wrap helper, and KindOf which turns a
//     failure into the stable kind tag reported to callers.
//   - ToolError, which keeps the raw diagnostic of a failed engine run next to
//     the classified error without leaking it to HTTP clients.
//
// Use these helpers when wiring new pipeline logic so error handling and
// observability stay uniform across transcription and rendering.
package services
