package config

const (
	defaultConfigPath            = "~/.config/captioner/config.toml"
	projectConfigName            = "captioner.toml"
	historyDBName                = "captioner.db"
	defaultStagingDir            = "~/.local/share/captioner/staging"
	defaultStateDir              = "~/.local/share/captioner"
	defaultLogDir                = "~/.local/share/captioner/logs"
	defaultBind                  = "127.0.0.1:3001"
	defaultMaxUploadMiB          = 100
	defaultCleanupGraceSeconds   = 5
	defaultWhisperCommand        = "whisper"
	defaultWhisperModel          = "base"
	defaultWhisperDevice         = "cpu"
	defaultHinglishPython        = "python3"
	defaultHinglishModel         = "Oriserve/Whisper-Hindi2Hinglish-Swift"
	defaultFFmpegCommand         = "ffmpeg"
	defaultVideoCodec            = "libx264"
	defaultRenderPreset          = "medium"
	defaultRenderCRF             = 23
	defaultSweepIntervalMinutes  = 15
	defaultStagingMaxAgeMinutes  = 120
	defaultHistoryRetentionDays  = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	maxCRF                       = 51
	defaultAllowedOriginFrontend = "http://localhost:5173"
	defaultAllowedOriginDev      = "http://localhost:3000"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			StateDir:   defaultStateDir,
			LogDir:     defaultLogDir,
		},
		Server: Server{
			Bind:                defaultBind,
			AllowedOrigins:      []string{defaultAllowedOriginFrontend, defaultAllowedOriginDev},
			MaxUploadMiB:        defaultMaxUploadMiB,
			CleanupGraceSeconds: defaultCleanupGraceSeconds,
		},
		Transcription: Transcription{
			WhisperCommand: defaultWhisperCommand,
			Model:          defaultWhisperModel,
			Device:         defaultWhisperDevice,
			HinglishPython: defaultHinglishPython,
			HinglishModel:  defaultHinglishModel,
		},
		Render: Render{
			FFmpegCommand: defaultFFmpegCommand,
			VideoCodec:    defaultVideoCodec,
			Preset:        defaultRenderPreset,
			CRF:           defaultRenderCRF,
		},
		Staging: Staging{
			SweepIntervalMinutes: defaultSweepIntervalMinutes,
			MaxAgeMinutes:        defaultStagingMaxAgeMinutes,
		},
		History: History{
			Enabled:       true,
			RetentionDays: defaultHistoryRetentionDays,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
