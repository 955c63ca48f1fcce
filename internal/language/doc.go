// Package language normalizes the transcription language hint.
//
// Config files may name a language as an ISO 639-1 or 639-2 code or by its
// English name; whisper wants the two-letter form.
package language
