package render

import "time"

const (
	DefaultFFmpegCommand = "ffmpeg"
	DefaultVideoCodec    = "libx264"
	DefaultPreset        = "medium"
	DefaultCRF           = 23

	diagnosticLimit = 4096
)

// Config controls the encoder invocation.
type Config struct {
	FFmpegCommand string
	VideoCodec    string
	Preset        string
	// CRF is used as given; zero is lossless x264.
	CRF int
	// Timeout bounds one encoder run; zero disables it.
	Timeout time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		FFmpegCommand: DefaultFFmpegCommand,
		VideoCodec:    DefaultVideoCodec,
		Preset:        DefaultPreset,
		CRF:           DefaultCRF,
	}
}

func (c Config) withDefaults() Config {
	if c.FFmpegCommand == "" {
		c.FFmpegCommand = DefaultFFmpegCommand
	}
	if c.VideoCodec == "" {
		c.VideoCodec = DefaultVideoCodec
	}
	if c.Preset == "" {
		c.Preset = DefaultPreset
	}
	return c
}
