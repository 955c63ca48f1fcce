package whisper

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"

	"captioner/internal/captions"
)

// rawSegment is one segment as the engines print it.
type rawSegment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type payload struct {
	Segments []rawSegment `json:"segments"`
}

var errNoJSON = errors.New("no JSON document in engine output")

// decodeSegments accepts either {"segments": [...]} or a bare array. Leading
// log lines before the JSON document are skipped.
func decodeSegments(data []byte) ([]rawSegment, error) {
	doc := locateJSON(data)
	if doc == nil {
		return nil, errNoJSON
	}
	if doc[0] == '[' {
		var segments []rawSegment
		if err := json.Unmarshal(doc, &segments); err != nil {
			return nil, fmt.Errorf("parse segment array: %w", err)
		}
		return segments, nil
	}
	var p payload
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("parse segment payload: %w", err)
	}
	return p.Segments, nil
}

// locateJSON returns the document starting at the first line that opens a
// JSON object or array.
func locateJSON(data []byte) []byte {
	data = bytes.TrimSpace(data)
	for len(data) > 0 {
		if data[0] == '{' || data[0] == '[' {
			return data
		}
		idx := bytes.IndexByte(data, '\n')
		if idx < 0 {
			return nil
		}
		data = bytes.TrimSpace(data[idx+1:])
	}
	return nil
}

// buildSegments cleans engine output into valid caption segments: text is
// NFC-normalized and trimmed, invalid spans are dropped, and the result is
// stably ordered by start time. The returned count is the number dropped.
func buildSegments(raw []rawSegment) ([]captions.Segment, int) {
	out := make([]captions.Segment, 0, len(raw))
	dropped := 0
	for _, seg := range raw {
		text := strings.TrimSpace(norm.NFC.String(seg.Text))
		candidate := captions.Segment{Start: roundMillis(seg.Start), End: roundMillis(seg.End), Text: text}
		if err := candidate.Validate(); err != nil {
			dropped++
			continue
		}
		out = append(out, candidate)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out, dropped
}

// roundMillis snaps engine times to the millisecond grid SRT can express, so
// a segment that survives validation also survives serialization.
func roundMillis(seconds float64) float64 {
	return math.Round(seconds*1000) / 1000
}
