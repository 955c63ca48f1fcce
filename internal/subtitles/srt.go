package subtitles

import (
	"strconv"
	"strings"

	"captioner/internal/captions"
	"captioner/internal/fileutil"
)

// Serialize renders segments as an SRT document: one cue per segment with
// 1-based indices, each cue terminated by a blank line. Text is kept verbatim
// apart from trailing newlines, which are dropped so the blank line stays the
// only cue terminator. An empty list yields an empty document.
//
// Parse reads the output back with two limits: a text line of only
// whitespace returns as an empty line, and a text paragraph that follows a
// blank line and carries "-->" on its first or second line is read as a new
// cue, which Validate then reports as malformed.
func Serialize(segments []captions.Segment) string {
	if len(segments) == 0 {
		return ""
	}
	var b strings.Builder
	b.Grow(len(segments) * 64)
	for i, seg := range segments {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\n')
		b.WriteString(FormatTimestamp(seg.Start))
		b.WriteString(" --> ")
		b.WriteString(FormatTimestamp(seg.End))
		b.WriteByte('\n')
		b.WriteString(strings.TrimRight(seg.Text, "\r\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}

// ToDisplayCaptions projects segments into the preview caption shape.
// Values pass through unchanged; the result is never nil so it encodes as [].
func ToDisplayCaptions(segments []captions.Segment) []captions.DisplayCaption {
	out := make([]captions.DisplayCaption, 0, len(segments))
	for _, seg := range segments {
		out = append(out, captions.DisplayCaption{Start: seg.Start, End: seg.End, Text: seg.Text})
	}
	return out
}

// WriteFile serializes segments into path atomically.
func WriteFile(path string, segments []captions.Segment) error {
	return fileutil.WriteFileAtomic(path, strings.NewReader(Serialize(segments)), 0o644)
}

// Segments converts parsed cues back into caption segments.
func Segments(cues []Cue) []captions.Segment {
	out := make([]captions.Segment, 0, len(cues))
	for _, cue := range cues {
		out = append(out, captions.Segment{Start: cue.Start, End: cue.End, Text: cue.Text})
	}
	return out
}
