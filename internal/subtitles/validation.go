package subtitles

import (
	"fmt"
	"os"
	"strings"

	"captioner/internal/services"
)

// EmptyDocumentNote is the informational entry reported for a document with
// no cues.
const EmptyDocumentNote = "No subtitle cues found (empty document)"

// warningPrefix marks entries that do not affect IsValid.
const warningPrefix = "Warning: "

// Validation is the outcome of checking a subtitle document. Errors holds
// structural errors, overlap warnings, and informational notes; only
// structural errors clear IsValid.
type Validation struct {
	IsValid bool     `json:"isValid"`
	Errors  []string `json:"errors"`
}

// Warnings returns the entries that are warnings rather than errors.
func (v Validation) Warnings() []string {
	var out []string
	for _, entry := range v.Errors {
		if IsWarning(entry) {
			out = append(out, entry)
		}
	}
	return out
}

// IsWarning reports whether a validation entry is a warning.
func IsWarning(entry string) bool {
	return strings.HasPrefix(entry, warningPrefix)
}

// Validate checks every cue of text for, in order: an index that starts at 1
// and strictly increases; a well-formed timing line whose end follows its
// start; and no overlap with the next cue. Overlap is a warning only.
func Validate(text string) Validation {
	result := Validation{IsValid: true, Errors: []string{}}
	fail := func(format string, args ...any) {
		result.IsValid = false
		result.Errors = append(result.Errors, fmt.Sprintf(format, args...))
	}

	scanned := scan(text)
	if len(scanned.cues) == 0 {
		if len(scanned.preface) == 0 {
			result.Errors = append(result.Errors, EmptyDocumentNote)
			return result
		}
		fail("No timing lines found; document is not SRT")
		return result
	}
	if len(scanned.preface) > 0 {
		fail("Content before first cue: %q", strings.TrimSpace(scanned.preface[0]))
	}

	type timing struct {
		start, end float64
		ok         bool
	}
	timings := make([]timing, len(scanned.cues))
	prevIndex := 0
	for i, raw := range scanned.cues {
		index, err := interpretIndex(raw, prevIndex)
		if err != nil {
			fail("Cue %d: %v", raw.ordinal, err)
		}
		if index > prevIndex {
			prevIndex = index
		}

		start, end, err := parseTimingLine(raw.timingLine)
		switch {
		case err != nil:
			fail("Cue %d: invalid timestamp line %q", raw.ordinal, strings.TrimSpace(raw.timingLine))
		case end <= start:
			fail("Cue %d: end time %s must be after start time %s", raw.ordinal, FormatTimestamp(end), FormatTimestamp(start))
		default:
			timings[i] = timing{start: start, end: end, ok: true}
		}
	}

	for i := 0; i+1 < len(timings); i++ {
		cur, next := timings[i], timings[i+1]
		if !cur.ok || !next.ok {
			continue
		}
		if cur.end > next.start {
			result.Errors = append(result.Errors, fmt.Sprintf("%sCue %d ends at %s after cue %d starts at %s",
				warningPrefix, i+1, FormatTimestamp(cur.end), i+2, FormatTimestamp(next.start)))
		}
	}
	return result
}

// ValidateFile reads path and validates its contents.
func ValidateFile(path string) (Validation, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Validation{}, services.Wrap(services.ErrInvalidInput, "subtitles", "read", path, err)
	}
	return Validate(string(data)), nil
}
