package whisper

import "time"

// Variant selects the recognition engine.
type Variant string

const (
	// VariantGeneral runs the openai-whisper CLI.
	VariantGeneral Variant = "general"
	// VariantHinglish runs the Hinglish helper script, which emits romanized
	// Hindi-English text.
	VariantHinglish Variant = "hinglish"
)

// Config captures runtime settings for the recognition engines.
type Config struct {
	// WhisperCommand is the openai-whisper executable.
	WhisperCommand string
	// Model is the whisper model name (e.g. "base", "small", "large-v3").
	Model string
	// Language is an ISO 639-1 hint; empty lets whisper detect it.
	Language string
	// Device is "cpu" or "cuda".
	Device string
	// HinglishPython is the interpreter that runs HinglishScript.
	HinglishPython string
	// HinglishScript prints the transcription JSON on stdout. Empty runs the
	// helper bundled with the binary.
	HinglishScript string
	// HinglishModel is the Hugging Face model id passed to the script.
	HinglishModel string
	// Timeout bounds a single engine run; zero disables it.
	Timeout time.Duration
	// WorkRoot is the parent directory for per-call work directories; empty
	// uses the system temp directory.
	WorkRoot string
}

// Defaults applied when Config fields are empty.
const (
	DefaultWhisperCommand = "whisper"
	DefaultModel          = "base"
	DefaultDevice         = "cpu"
	DefaultHinglishPython = "python3"
	DefaultHinglishModel  = "Oriserve/Whisper-Hindi2Hinglish-Swift"
	OutputFormat          = "json"

	// diagnosticLimit caps how much engine stderr is kept for logs.
	diagnosticLimit = 4096
)

func (c Config) withDefaults() Config {
	if c.WhisperCommand == "" {
		c.WhisperCommand = DefaultWhisperCommand
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Device == "" {
		c.Device = DefaultDevice
	}
	if c.HinglishPython == "" {
		c.HinglishPython = DefaultHinglishPython
	}
	if c.HinglishModel == "" {
		c.HinglishModel = DefaultHinglishModel
	}
	return c
}
