package subtitles

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS,mmm rounded to the nearest
// millisecond. Negative values clamp to zero.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	msTotal := int64(math.Round(seconds * 1000))
	hours := msTotal / 3_600_000
	msTotal %= 3_600_000
	minutes := msTotal / 60_000
	msTotal %= 60_000
	secs := msTotal / 1_000
	millis := msTotal % 1_000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// ParseTimestamp reads an HH:MM:SS,mmm timestamp. The separator must be a
// comma and every field must be zero-padded to its full width.
func ParseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if len(value) != len("00:00:00,000") || value[2] != ':' || value[5] != ':' || value[8] != ',' {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := atoiDigits(value[0:2])
	minutes, errM := atoiDigits(value[3:5])
	secs, errS := atoiDigits(value[6:8])
	millis, errMS := atoiDigits(value[9:12])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if minutes > 59 || secs > 59 {
		return 0, fmt.Errorf("invalid timestamp %q: field out of range", value)
	}
	totalMS := int64(hours)*3_600_000 + int64(minutes)*60_000 + int64(secs)*1_000 + int64(millis)
	return float64(totalMS) / 1000, nil
}

func atoiDigits(s string) (int, error) {
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, strconv.ErrSyntax
		}
	}
	return strconv.Atoi(s)
}

// parseTimingLine splits "start --> end" into seconds. The arrow must be
// surrounded by single spaces.
func parseTimingLine(line string) (float64, float64, error) {
	line = strings.TrimSpace(line)
	startText, endText, ok := strings.Cut(line, " --> ")
	if !ok {
		return 0, 0, fmt.Errorf("missing ' --> ' separator")
	}
	start, err := ParseTimestamp(startText)
	if err != nil {
		return 0, 0, err
	}
	if endText != strings.TrimSpace(endText) || startText != strings.TrimSpace(startText) {
		return 0, 0, fmt.Errorf("unexpected whitespace around separator")
	}
	end, err := ParseTimestamp(endText)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}
