package style

import (
	"fmt"
	"strconv"
	"strings"
)

// Fixed outline and shadow values applied to every preset.
const (
	outlineColour = "&H000000"
	outlineWidth  = 2
	shadowDepth   = 1
)

type placement struct {
	alignment int
	marginV   int
}

// ASS alignment uses numpad positions: 2 is bottom-centre, 8 is top-centre.
var placements = map[Preset]placement{
	PresetBottom:  {alignment: 2, marginV: 30},
	PresetTopBar:  {alignment: 8, marginV: 10},
	PresetKaraoke: {alignment: 2, marginV: 30},
}

// MapTheme renders the libass force_style override for theme. The output is a
// pure function of the theme. Fields that a normalized theme would never
// carry (unknown preset, bad colour, empty font) fall back to defaults.
func MapTheme(theme Theme) string {
	place, ok := placements[theme.Preset]
	if !ok {
		place = placements[DefaultPreset]
	}
	colour, err := HexToASS(theme.ColorHex)
	if err != nil {
		colour, _ = HexToASS(DefaultColorHex)
	}
	size := theme.FontSizePx
	if size <= 0 {
		size = DefaultFontSizePx
	}
	bold := 0
	if theme.Bold() {
		bold = 1
	}

	fields := []string{
		"FontName=" + SanitizeFontFamily(theme.FontFamily),
		"FontSize=" + strconv.Itoa(size),
		"PrimaryColour=" + colour,
		"OutlineColour=" + outlineColour,
		"Outline=" + strconv.Itoa(outlineWidth),
		"Shadow=" + strconv.Itoa(shadowDepth),
		"MarginV=" + strconv.Itoa(place.marginV),
		"Alignment=" + strconv.Itoa(place.alignment),
		"Bold=" + strconv.Itoa(bold),
	}
	return strings.Join(fields, ",")
}

// HexToASS converts #RRGGBB into the ASS &HBBGGRR colour form.
func HexToASS(hex string) (string, error) {
	value := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(value) != 6 || !isHex(value) {
		return "", invalidField("colour", hex, "must be #RRGGBB")
	}
	value = strings.ToUpper(value)
	return "&H" + value[4:6] + value[2:4] + value[0:2], nil
}

// ASSToHex converts &HBBGGRR (optionally &HAABBGGRR with a trailing &) back to
// #rrggbb. Alpha is discarded.
func ASSToHex(ass string) (string, error) {
	value := strings.TrimSpace(ass)
	if !strings.HasPrefix(strings.ToUpper(value), "&H") {
		return "", fmt.Errorf("ass colour %q: missing &H prefix", ass)
	}
	value = strings.TrimSuffix(value[2:], "&")
	if len(value) == 8 {
		value = value[2:]
	}
	if len(value) != 6 || !isHex(value) {
		return "", fmt.Errorf("ass colour %q: expected 6 hex digits", ass)
	}
	value = strings.ToLower(value)
	return "#" + value[4:6] + value[2:4] + value[0:2], nil
}

// SanitizeFontFamily keeps the first family of a CSS font-family list and
// removes characters that would break the filter argument or the ASS style
// line. An empty result falls back to the default family.
func SanitizeFontFamily(family string) string {
	first, _, _ := strings.Cut(family, ",")
	first = strings.TrimSpace(first)
	first = strings.Trim(first, `"'`)
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', ':', ',', ';', '=', '\\', '[', ']', '\n', '\r', '\t':
			return -1
		}
		return r
	}, first)
	cleaned = strings.Join(strings.Fields(cleaned), " ")
	if cleaned == "" {
		return DefaultFontFamily
	}
	return cleaned
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'f', r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
