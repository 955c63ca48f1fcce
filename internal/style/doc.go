// Package style maps caption themes onto the libass style override that the
// encoder's subtitle filter accepts.
//
// Themes arrive as loosely typed form fields (RawTheme), are normalized once
// with defaults and range checks, and are then rendered deterministically by
// MapTheme. Karaoke is accepted but renders as static bottom captions; per-word
// highlighting is not implemented.
package style
