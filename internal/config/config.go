package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StagingDir string `toml:"staging_dir"`
	StateDir   string `toml:"state_dir"`
	LogDir     string `toml:"log_dir"`
}

// Server contains HTTP surface configuration.
type Server struct {
	Bind                string   `toml:"bind"`
	AllowedOrigins      []string `toml:"allowed_origins"`
	MaxUploadMiB        int      `toml:"max_upload_mib"`
	CleanupGraceSeconds int      `toml:"cleanup_grace_seconds"`
}

// Transcription contains speech recognition engine settings.
type Transcription struct {
	WhisperCommand string `toml:"whisper_command"`
	Model          string `toml:"model"`
	Language       string `toml:"language"`
	Device         string `toml:"device"`
	HinglishPython string `toml:"hinglish_python"`
	HinglishScript string `toml:"hinglish_script"`
	HinglishModel  string `toml:"hinglish_model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Render contains video encoder settings.
type Render struct {
	FFmpegCommand  string `toml:"ffmpeg_command"`
	VideoCodec     string `toml:"video_codec"`
	Preset         string `toml:"preset"`
	CRF            int    `toml:"crf"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Staging contains the stale staged-file sweeper settings.
type Staging struct {
	SweepIntervalMinutes int `toml:"sweep_interval_minutes"`
	MaxAgeMinutes        int `toml:"max_age_minutes"`
}

// History contains job ledger settings.
type History struct {
	Enabled       bool `toml:"enabled"`
	RetentionDays int  `toml:"retention_days"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for captioner.
//
// Configuration sections by subsystem:
//   - Paths: staging, state (job ledger), and log directories
//   - Server: bind address, CORS origins, upload limit, post-delivery cleanup grace
//   - Transcription: whisper CLI and Hinglish helper settings
//   - Render: ffmpeg burn-in encoder settings
//   - Staging: crash-leftover sweeper cadence
//   - History: job ledger toggle and retention
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Server        Server        `toml:"server"`
	Transcription Transcription `toml:"transcription"`
	Render        Render        `toml:"render"`
	Staging       Staging       `toml:"staging"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config %s: %w", resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the server writes into.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StagingDir, c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// HistoryDBPath returns the job ledger database location.
func (c *Config) HistoryDBPath() string {
	return filepath.Join(c.Paths.StateDir, historyDBName)
}

// MaxUploadBytes returns the per-file upload limit in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMiB) << 20
}

// CleanupGrace returns the delay between delivering an artifact and removing it.
func (c *Config) CleanupGrace() time.Duration {
	return time.Duration(c.Server.CleanupGraceSeconds) * time.Second
}

// TranscriptionTimeout returns the engine deadline; zero means unbounded.
func (c *Config) TranscriptionTimeout() time.Duration {
	return time.Duration(c.Transcription.TimeoutSeconds) * time.Second
}

// RenderTimeout returns the encoder deadline; zero means unbounded.
func (c *Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

// SweepInterval returns how often stale staged files are swept.
func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.Staging.SweepIntervalMinutes) * time.Minute
}

// StagingMaxAge returns the age after which a staged file counts as abandoned.
func (c *Config) StagingMaxAge() time.Duration {
	return time.Duration(c.Staging.MaxAgeMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

// Encode renders the effective configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	return toml.Marshal(c)
}
