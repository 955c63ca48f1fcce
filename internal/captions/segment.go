package captions

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// Segment is one timed span of recognized speech. Times are seconds from the
// start of the media. Segments are values; nothing mutates them after the
// transcription adapter builds them.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// DisplayCaption is the caption shape consumed by the front-end preview.
type DisplayCaption struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

var (
	errNegativeStart = errors.New("start is negative")
	errEmptySpan     = errors.New("end must be after start")
	errEmptyText     = errors.New("text is empty")
	errNotFinite     = errors.New("time is not finite")
)

// Validate reports the first invariant the segment breaks.
func (s Segment) Validate() error {
	switch {
	case math.IsNaN(s.Start) || math.IsNaN(s.End) || math.IsInf(s.Start, 0) || math.IsInf(s.End, 0):
		return errNotFinite
	case s.Start < 0:
		return errNegativeStart
	case s.End <= s.Start:
		return errEmptySpan
	case strings.TrimSpace(s.Text) == "":
		return errEmptyText
	}
	return nil
}

// Duration returns the segment length in seconds.
func (s Segment) Duration() float64 {
	return s.End - s.Start
}

// Overlaps reports whether s ends after next begins.
func (s Segment) Overlaps(next Segment) bool {
	return s.End > next.Start
}

// ValidateSequence checks every segment and the non-decreasing start order.
// Overlap is allowed here; the subtitle validator flags it as a warning.
func ValidateSequence(segments []Segment) error {
	for i, seg := range segments {
		if err := seg.Validate(); err != nil {
			return fmt.Errorf("segment %d: %w", i+1, err)
		}
		if i > 0 && seg.Start < segments[i-1].Start {
			return fmt.Errorf("segment %d: starts at %.3fs before segment %d (%.3fs)", i+1, seg.Start, i, segments[i-1].Start)
		}
	}
	return nil
}

// TotalDuration returns the end time of the last segment, or 0 for an empty
// list.
func TotalDuration(segments []Segment) float64 {
	if len(segments) == 0 {
		return 0
	}
	return segments[len(segments)-1].End
}
