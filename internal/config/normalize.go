package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"captioner/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeServer(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	if value, ok := lookupEnv("CAPTIONER_STAGING_DIR"); ok {
		c.Paths.StagingDir = value
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	var err error
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(strings.TrimSpace(c.Paths.LogDir)); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeServer() error {
	c.Server.Bind = strings.TrimSpace(c.Server.Bind)
	if c.Server.Bind == "" {
		c.Server.Bind = defaultBind
	}
	if port, ok := lookupEnv("PORT"); ok {
		if _, err := strconv.Atoi(port); err != nil {
			return fmt.Errorf("PORT: %q is not a port number", port)
		}
		host, _, err := net.SplitHostPort(c.Server.Bind)
		if err != nil {
			return fmt.Errorf("server.bind: %w", err)
		}
		c.Server.Bind = net.JoinHostPort(host, port)
	}
	if value, ok := lookupEnv("FRONTEND_URLS"); ok {
		c.Server.AllowedOrigins = splitList(value)
	} else {
		c.Server.AllowedOrigins = splitList(strings.Join(c.Server.AllowedOrigins, ","))
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	t := &c.Transcription
	t.WhisperCommand = strings.TrimSpace(t.WhisperCommand)
	if t.WhisperCommand == "" {
		t.WhisperCommand = defaultWhisperCommand
	}
	t.Model = strings.TrimSpace(t.Model)
	if t.Model == "" {
		t.Model = defaultWhisperModel
	}
	if raw := strings.TrimSpace(t.Language); raw != "" {
		t.Language = language.ToISO2(raw)
		if t.Language == "" {
			return fmt.Errorf("transcription.language: unrecognized language %q", raw)
		}
	}
	t.Device = strings.ToLower(strings.TrimSpace(t.Device))
	if t.Device == "" {
		t.Device = defaultWhisperDevice
	}
	if value, ok := lookupEnv("HINGLISH_PYTHON"); ok {
		t.HinglishPython = value
	}
	t.HinglishPython = strings.TrimSpace(t.HinglishPython)
	if t.HinglishPython == "" {
		t.HinglishPython = defaultHinglishPython
	}
	t.HinglishModel = strings.TrimSpace(t.HinglishModel)
	if t.HinglishModel == "" {
		t.HinglishModel = defaultHinglishModel
	}
	if strings.TrimSpace(t.HinglishScript) != "" {
		script, err := expandPath(strings.TrimSpace(t.HinglishScript))
		if err != nil {
			return fmt.Errorf("transcription.hinglish_script: %w", err)
		}
		t.HinglishScript = script
	}
	return nil
}

func (c *Config) normalizeRender() {
	r := &c.Render
	r.FFmpegCommand = strings.TrimSpace(r.FFmpegCommand)
	if r.FFmpegCommand == "" {
		r.FFmpegCommand = defaultFFmpegCommand
	}
	r.VideoCodec = strings.TrimSpace(r.VideoCodec)
	if r.VideoCodec == "" {
		r.VideoCodec = defaultVideoCodec
	}
	r.Preset = strings.ToLower(strings.TrimSpace(r.Preset))
	if r.Preset == "" {
		r.Preset = defaultRenderPreset
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "console", "json":
	default:
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func lookupEnv(key string) (string, bool) {
	value, ok := os.LookupEnv(key)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

func splitList(value string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimRight(strings.TrimSpace(part), "/")
		if part == "" {
			continue
		}
		if _, ok := seen[part]; ok {
			continue
		}
		seen[part] = struct{}{}
		out = append(out, part)
	}
	return out
}
