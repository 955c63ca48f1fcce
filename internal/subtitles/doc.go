// Package subtitles turns caption segments into SRT documents and checks
// SRT documents before they reach the encoder.
//
// Serialize is a pure function of the segment list and is the exact inverse
// of Parse (modulo millisecond rounding). Validate reports structural errors
// and overlap warnings as data; only Parse and file reads return errors.
package subtitles
