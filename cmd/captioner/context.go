package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"captioner/internal/config"
	"captioner/internal/logging"
	"captioner/internal/render"
	"captioner/internal/services/execrun"
	"captioner/internal/services/whisper"
)

type commandContext struct {
	configFlag  *string
	envFileFlag *string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configErr  error
}

func newCommandContext(configFlag, envFileFlag *string) *commandContext {
	return &commandContext{
		configFlag:  configFlag,
		envFileFlag: envFileFlag,
	}
}

// ensureConfig loads the env file, then the configuration, once per process.
// Variables already set in the environment win over the env file.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		if err := c.loadEnvFile(); err != nil {
			c.configErr = err
			return
		}
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
	})
	return c.config, c.configErr
}

func (c *commandContext) loadEnvFile() error {
	if c.envFileFlag == nil {
		return nil
	}
	path := strings.TrimSpace(*c.envFileFlag)
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// cliLogger logs warnings and errors to stderr so command output on stdout
// stays clean for piping.
func (c *commandContext) cliLogger(verbose bool) *slog.Logger {
	level := "warn"
	if verbose {
		level = "debug"
	}
	format := "console"
	if c.config != nil && c.config.Logging.Format != "" {
		format = c.config.Logging.Format
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           format,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func newTranscriber(cfg *config.Config, runner execrun.Runner, logger *slog.Logger) *whisper.Service {
	return whisper.NewService(whisper.Config{
		WhisperCommand: cfg.Transcription.WhisperCommand,
		Model:          cfg.Transcription.Model,
		Language:       cfg.Transcription.Language,
		Device:         cfg.Transcription.Device,
		HinglishPython: cfg.Transcription.HinglishPython,
		HinglishScript: cfg.Transcription.HinglishScript,
		HinglishModel:  cfg.Transcription.HinglishModel,
		Timeout:        cfg.TranscriptionTimeout(),
		WorkRoot:       cfg.Paths.StagingDir,
	}, runner, logger)
}

func newOrchestrator(cfg *config.Config, runner execrun.Runner, logger *slog.Logger) *render.Orchestrator {
	return render.NewOrchestrator(render.Config{
		FFmpegCommand: cfg.Render.FFmpegCommand,
		VideoCodec:    cfg.Render.VideoCodec,
		Preset:        cfg.Render.Preset,
		CRF:           cfg.Render.CRF,
		Timeout:       cfg.RenderTimeout(),
	}, runner, logger)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
