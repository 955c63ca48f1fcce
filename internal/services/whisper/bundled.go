package whisper

import (
	_ "embed"
	"os"
	"path/filepath"
)

// bundledScriptName is the file the embedded helper is written to inside a
// work directory.
const bundledScriptName = "hinglish_transcribe.py"

//go:embed hinglish_transcribe.py
var bundledHinglishScript []byte

// BundledHinglishScript returns the Hinglish helper shipped with the binary.
// It is used whenever no script path is configured.
func BundledHinglishScript() []byte {
	out := make([]byte, len(bundledHinglishScript))
	copy(out, bundledHinglishScript)
	return out
}

// hinglishScriptPath returns the configured script, or writes the bundled one
// into workDir.
func (s *Service) hinglishScriptPath(workDir string) (string, error) {
	if s.cfg.HinglishScript != "" {
		return s.cfg.HinglishScript, nil
	}
	path := filepath.Join(workDir, bundledScriptName)
	if err := os.WriteFile(path, bundledHinglishScript, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
