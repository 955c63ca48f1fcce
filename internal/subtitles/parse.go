package subtitles

import (
	"fmt"
	"strconv"
	"strings"

	"captioner/internal/services"
)

// Cue is one indexed, timestamped entry of a subtitle document.
type Cue struct {
	Index int
	Start float64
	End   float64
	Text  string
}

// rawCue is a cue as laid out in the document, before any field is
// interpreted. ordinal counts cues from 1 in document order.
type rawCue struct {
	ordinal    int
	line       int
	indexLine  string
	hasIndex   bool
	timingLine string
	text       []string
}

type scanResult struct {
	cues    []rawCue
	preface []string
}

// normalizeNewlines strips a UTF-8 BOM and converts CRLF/CR line endings to LF.
func normalizeNewlines(text string) string {
	text = strings.TrimPrefix(text, "\uFEFF")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// scan splits a document into cues. A paragraph (run of non-blank lines after
// a blank line) opens a new cue when its first or second line carries the
// timing arrow; any other paragraph continues the previous cue's text, which
// keeps blank lines inside cue text intact.
func scan(text string) scanResult {
	var result scanResult
	lines := strings.Split(normalizeNewlines(text), "\n")

	var current *rawCue
	var pendingBlank int
	flush := func() {
		if current != nil {
			result.cues = append(result.cues, *current)
			current = nil
		}
	}

	for i := 0; i < len(lines); i++ {
		line := lines[i]
		if strings.TrimSpace(line) == "" {
			pendingBlank++
			continue
		}
		paragraphStart := i == 0 || pendingBlank > 0 || current == nil
		blanks := pendingBlank
		pendingBlank = 0

		if paragraphStart {
			if strings.Contains(line, "-->") {
				flush()
				current = &rawCue{ordinal: len(result.cues) + 1, line: i + 1, timingLine: line}
				continue
			}
			if i+1 < len(lines) && strings.Contains(lines[i+1], "-->") {
				flush()
				current = &rawCue{
					ordinal:    len(result.cues) + 1,
					line:       i + 1,
					indexLine:  line,
					hasIndex:   true,
					timingLine: lines[i+1],
				}
				i++
				continue
			}
		}

		if current == nil {
			result.preface = append(result.preface, line)
			continue
		}
		for ; blanks > 0; blanks-- {
			current.text = append(current.text, "")
		}
		current.text = append(current.text, line)
	}
	flush()
	return result
}

// ParseError describes the first structural problem Parse found.
type ParseError struct {
	Line int
	Cue  int
	Msg  string
}

func (e *ParseError) Error() string {
	switch {
	case e.Cue > 0:
		return fmt.Sprintf("srt line %d (cue %d): %s", e.Line, e.Cue, e.Msg)
	case e.Line > 0:
		return fmt.Sprintf("srt line %d: %s", e.Line, e.Msg)
	default:
		return "srt: " + e.Msg
	}
}

// Parse reads a subtitle document strictly: every cue needs an integer index
// that increases from 1 and a well-formed timing line with end after start.
// Overlapping cues are accepted. Errors carry the ErrInvalidInput marker.
func Parse(text string) ([]Cue, error) {
	scanned := scan(text)
	if len(scanned.preface) > 0 {
		return nil, invalid(&ParseError{Line: 1, Msg: fmt.Sprintf("content before first cue: %q", scanned.preface[0])})
	}
	cues := make([]Cue, 0, len(scanned.cues))
	prevIndex := 0
	for _, raw := range scanned.cues {
		index, err := interpretIndex(raw, prevIndex)
		if err != nil {
			return nil, invalid(&ParseError{Line: raw.line, Cue: raw.ordinal, Msg: err.Error()})
		}
		start, end, err := parseTimingLine(raw.timingLine)
		if err != nil {
			return nil, invalid(&ParseError{Line: raw.line, Cue: raw.ordinal, Msg: fmt.Sprintf("timing line %q: %v", strings.TrimSpace(raw.timingLine), err)})
		}
		if end <= start {
			return nil, invalid(&ParseError{Line: raw.line, Cue: raw.ordinal, Msg: "end time must be after start time"})
		}
		cues = append(cues, Cue{Index: index, Start: start, End: end, Text: strings.Join(raw.text, "\n")})
		prevIndex = index
	}
	return cues, nil
}

func interpretIndex(raw rawCue, prevIndex int) (int, error) {
	if !raw.hasIndex {
		return 0, fmt.Errorf("missing index")
	}
	value := strings.TrimSpace(raw.indexLine)
	index, err := strconv.Atoi(value)
	if err != nil || index <= 0 {
		return 0, fmt.Errorf("invalid index %q", value)
	}
	if prevIndex == 0 && index != 1 {
		return index, fmt.Errorf("first index must be 1, got %d", index)
	}
	if prevIndex > 0 && index <= prevIndex {
		return index, fmt.Errorf("index %d does not increase after %d", index, prevIndex)
	}
	return index, nil
}

func invalid(err error) error {
	return services.Wrap(services.ErrInvalidInput, "subtitles", "parse", "", err)
}
