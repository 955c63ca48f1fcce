package staging

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// lockFileName guards sweeps of a shared staging directory.
const lockFileName = ".sweep.lock"

var now = time.Now

// NewName returns "<prefix>-<unix-millis>-<uuid><ext>". ext may be given with
// or without its leading dot; an empty ext yields no suffix.
func NewName(prefix, ext string) string {
	prefix = strings.Trim(strings.TrimSpace(prefix), "-")
	if prefix == "" {
		prefix = "file"
	}
	return fmt.Sprintf("%s-%d-%s%s", prefix, now().UnixMilli(), uuid.NewString(), NormalizeExt(ext))
}

// NewPath joins a fresh staged name onto dir.
func NewPath(dir, prefix, ext string) string {
	return filepath.Join(dir, NewName(prefix, ext))
}

// NormalizeExt lowercases ext, ensures a leading dot, and drops anything that
// is not a plain alphanumeric extension.
func NormalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
	if ext == "" || len(ext) > 10 {
		return ""
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return "." + ext
}
