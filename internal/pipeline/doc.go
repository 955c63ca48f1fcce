// Package pipeline runs the two request flows end to end.
//
// Transcribe turns a staged audio file into SRT text, display captions, and a
// validation report. Render burns a staged SRT into a staged video and hands
// the result to a delivery callback. Both flows own the request's staging
// scope: every staged input and output is removed on every exit path, and
// each outcome is written to the job ledger when one is configured.
package pipeline
