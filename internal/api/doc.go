// Package api is the HTTP surface of captioner, built on gin.
//
// # Routes
//
//	POST /api/upload-audio          multipart "audio", general transcription
//	POST /api/upload-audio-hinglish multipart "audio", Hinglish transcription
//	POST /api/transcribe?variant=   multipart "audio", explicit variant
//	POST /api/render-video          multipart "video" + "srt", caption style fields
//	GET  /api/jobs?limit=           recent job ledger entries
//	GET  /api/test                  endpoint listing
//	GET  /health                    liveness and engine availability
//
// # Design Notes
//
// Uploads are staged under collision-free names and handed to the pipeline,
// which owns their removal. Failures are reported as
// {"error": true, "kind": ..., "message": ...}; raw engine diagnostics are
// logged, never returned. DTOs use camelCase JSON tags for the browser client.
package api
