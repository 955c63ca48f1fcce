package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

var validPresets = map[string]struct{}{
	"ultrafast": {}, "superfast": {}, "veryfast": {}, "faster": {}, "fast": {},
	"medium": {}, "slow": {}, "slower": {}, "veryslow": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateRender(); err != nil {
		return err
	}
	if err := c.validateStaging(); err != nil {
		return err
	}
	if c.History.RetentionDays < 0 {
		return errors.New("history.retention_days must be zero or positive")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if c.History.Enabled && strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set when history.enabled is true")
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q: %w", c.Server.Bind, err)
	}
	if c.Server.MaxUploadMiB <= 0 {
		return errors.New("server.max_upload_mib must be positive")
	}
	if c.Server.CleanupGraceSeconds < 0 {
		return errors.New("server.cleanup_grace_seconds must be zero or positive")
	}
	for _, origin := range c.Server.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("server.allowed_origins: %q must be an http(s) origin or *", origin)
		}
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.TimeoutSeconds < 0 {
		return errors.New("transcription.timeout_seconds must be zero or positive")
	}
	switch c.Transcription.Device {
	case "cpu", "cuda":
	default:
		return fmt.Errorf("transcription.device must be cpu or cuda, got %q", c.Transcription.Device)
	}
	return nil
}

func (c *Config) validateRender() error {
	if _, ok := validPresets[c.Render.Preset]; !ok {
		return fmt.Errorf("render.preset %q is not an x264 preset", c.Render.Preset)
	}
	if c.Render.CRF < 0 || c.Render.CRF > maxCRF {
		return fmt.Errorf("render.crf must be between 0 and %d", maxCRF)
	}
	if c.Render.TimeoutSeconds < 0 {
		return errors.New("render.timeout_seconds must be zero or positive")
	}
	return nil
}

func (c *Config) validateStaging() error {
	if c.Staging.SweepIntervalMinutes < 0 {
		return errors.New("staging.sweep_interval_minutes must be zero or positive")
	}
	if c.Staging.SweepIntervalMinutes > 0 && c.Staging.MaxAgeMinutes <= 0 {
		return errors.New("staging.max_age_minutes must be positive when the sweeper is enabled")
	}
	if c.Staging.SweepIntervalMinutes > 0 && c.Staging.SweepIntervalMinutes >= c.Staging.MaxAgeMinutes {
		return errors.New("staging.sweep_interval_minutes must be shorter than staging.max_age_minutes")
	}
	return nil
}
