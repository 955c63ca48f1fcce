// Package captions holds the caption segment model shared by the
// transcription adapter, the subtitle serializer, and the HTTP surface.
package captions
