package render

import (
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Characters with meaning inside a single filter option value.
var optionEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `:`, `\:`)

// Characters with meaning at the filtergraph level.
var graphEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, `[`, `\[`, `]`, `\]`, `,`, `\,`, `;`, `\;`)

// escapeFilterValue applies both ffmpeg escaping levels so value is read back
// verbatim as one option of one filter.
func escapeFilterValue(value string) string {
	return graphEscaper.Replace(optionEscaper.Replace(value))
}

// subtitlesFilter builds the -vf value for the libass subtitles filter.
func subtitlesFilter(subtitlePath, forceStyle string) string {
	return "subtitles=filename=" + escapeFilterValue(subtitlePath) +
		":force_style=" + escapeFilterValue(forceStyle)
}

// buildArgs assembles the encoder argument list.
func buildArgs(cfg Config, job Job, forceStyle string) []string {
	return ffmpeg.Input(job.VideoPath).
		Output(job.OutputPath, ffmpeg.KwArgs{
			"vf":     subtitlesFilter(job.SubtitlePath, forceStyle),
			"c:v":    cfg.VideoCodec,
			"c:a":    "copy",
			"preset": cfg.Preset,
			"crf":    cfg.CRF,
		}).
		OverWriteOutput().
		GetArgs()
}
