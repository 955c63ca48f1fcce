package textutil

import (
	"path/filepath"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxFileNameBytes matches the common filesystem limit for one path element.
const maxFileNameBytes = 255

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName makes a client-supplied file name safe to echo back in
// responses, headers, and the job ledger. Any directory part is dropped,
// unsafe characters are replaced, control characters are removed, and the
// result is capped at 255 bytes with the extension kept.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, name)
	name = strings.TrimSpace(fileNameReplacer.Replace(name))
	return truncate(name, maxFileNameBytes)
}

// truncate shortens name to at most limit bytes on a rune boundary, keeping
// a short extension.
func truncate(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := filepath.Ext(name)
	if len(ext) > 16 {
		ext = ""
	}
	stem := strings.TrimSuffix(name, ext)
	budget := limit - len(ext)
	for budget > 0 && !utf8.RuneStart(stem[budget]) {
		budget--
	}
	return stem[:budget] + ext
}
