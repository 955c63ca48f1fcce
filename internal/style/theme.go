package style

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"captioner/internal/services"
)

// Preset names a caption layout.
type Preset string

const (
	PresetBottom  Preset = "bottom"
	PresetTopBar  Preset = "topbar"
	PresetKaraoke Preset = "karaoke"
)

// Theme defaults.
const (
	DefaultPreset     = PresetBottom
	DefaultFontFamily = "Arial"
	DefaultFontSizePx = 24
	DefaultFontWeight = 700
	DefaultColorHex   = "#ffffff"

	minFontWeight = 100
	maxFontWeight = 900
	boldThreshold = 600
)

// Presets lists the supported presets in display order.
var Presets = []Preset{PresetBottom, PresetTopBar, PresetKaraoke}

// Theme is a fully resolved caption style.
type Theme struct {
	Preset     Preset `json:"preset"`
	FontFamily string `json:"fontFamily"`
	FontSizePx int    `json:"fontSize"`
	FontWeight int    `json:"fontWeight"`
	ColorHex   string `json:"color"`
}

// RawTheme carries style fields exactly as a caller supplied them. Empty
// strings mean "not supplied".
type RawTheme struct {
	Preset     string
	FontFamily string
	FontSize   string
	FontWeight string
	Color      string
}

// DefaultTheme returns the theme used when a caller supplies nothing.
func DefaultTheme() Theme {
	return Theme{
		Preset:     DefaultPreset,
		FontFamily: DefaultFontFamily,
		FontSizePx: DefaultFontSizePx,
		FontWeight: DefaultFontWeight,
		ColorHex:   DefaultColorHex,
	}
}

// NormalizeTheme fills absent fields with defaults and rejects present fields
// that are out of range. Errors carry the ErrInvalidInput marker.
func NormalizeTheme(raw RawTheme) (Theme, error) {
	theme := DefaultTheme()

	if value := strings.TrimSpace(raw.Preset); value != "" {
		preset, err := ParsePreset(value)
		if err != nil {
			return Theme{}, err
		}
		theme.Preset = preset
	}
	if value := strings.TrimSpace(raw.FontFamily); value != "" {
		theme.FontFamily = value
	}
	if value := strings.TrimSpace(raw.FontSize); value != "" {
		size, err := strconv.Atoi(strings.TrimSuffix(value, "px"))
		if err != nil || size <= 0 {
			return Theme{}, invalidField("font size", value, "must be a positive integer")
		}
		theme.FontSizePx = size
	}
	if value := strings.TrimSpace(raw.FontWeight); value != "" {
		weight, err := strconv.Atoi(value)
		if err != nil || weight < minFontWeight || weight > maxFontWeight {
			return Theme{}, invalidField("font weight", value, fmt.Sprintf("must be between %d and %d", minFontWeight, maxFontWeight))
		}
		theme.FontWeight = weight
	}
	if value := strings.TrimSpace(raw.Color); value != "" {
		if _, err := HexToASS(value); err != nil {
			return Theme{}, err
		}
		theme.ColorHex = strings.ToLower(ensureHash(value))
	}
	return theme, nil
}

// ParsePreset resolves a preset name case-insensitively.
func ParsePreset(value string) (Preset, error) {
	candidate := Preset(strings.ToLower(strings.TrimSpace(value)))
	for _, preset := range Presets {
		if candidate == preset {
			return preset, nil
		}
	}
	return "", invalidField("caption style", value, "must be one of bottom, topbar, karaoke")
}

// Label returns the human-readable preset name.
func (p Preset) Label() string {
	switch p {
	case PresetTopBar:
		return "Top Bar"
	default:
		return cases.Title(language.English).String(string(p))
	}
}

// Bold reports whether the theme weight renders as bold.
func (t Theme) Bold() bool {
	return t.FontWeight >= boldThreshold
}

func invalidField(field, value, reason string) error {
	return services.Wrap(services.ErrInvalidInput, "style", field, fmt.Sprintf("%q %s", value, reason), nil)
}

func ensureHash(value string) string {
	if strings.HasPrefix(value, "#") {
		return value
	}
	return "#" + value
}
