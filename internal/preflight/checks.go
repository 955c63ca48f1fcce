package preflight

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/sys/unix"

	"captioner/internal/config"
	"captioner/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckHinglishScript verifies the Hinglish helper script. An empty path runs
// the helper bundled with the binary; a configured path that cannot be read
// is a hard failure because every Hinglish request would fail.
func CheckHinglishScript(path string) Result {
	const name = "Hinglish helper script"
	if strings.TrimSpace(path) == "" {
		return Result{Name: name, Passed: true, Optional: true, Detail: "bundled helper"}
	}
	info, err := os.Stat(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if !info.Mode().IsRegular() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not a regular file)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: path}
}

// CheckSystemDeps evaluates the engine binaries for the given config. The
// server, the CLI check command, and the health endpoint share this list.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Render.FFmpegCommand,
			Description: "Required for burning captions into video",
			Feature:     deps.FeatureRender,
		},
		{
			Name:        "Whisper",
			Command:     cfg.Transcription.WhisperCommand,
			Description: "Required for general transcription",
			Feature:     deps.FeatureTranscribe,
		},
		{
			Name:        "Hinglish Python",
			Command:     cfg.Transcription.HinglishPython,
			Description: "Runs the Hinglish transcription helper",
			Feature:     deps.FeatureHinglish,
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
