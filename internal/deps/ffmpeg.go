package deps

import (
	"context"
	"fmt"
	"strings"
	"time"

	"captioner/internal/services/execrun"
)

const filterProbeTimeout = 10 * time.Second

// CheckSubtitlesFilter reports whether ffmpegCommand was built with the
// libass "subtitles" filter that caption burn-in needs.
func CheckSubtitlesFilter(ctx context.Context, runner execrun.Runner, ffmpegCommand string) Status {
	result := Status{
		Name:        "ffmpeg subtitles filter",
		Command:     strings.TrimSpace(ffmpegCommand),
		Description: "Required for burning captions (libass)",
		Feature:     FeatureRender,
	}
	if result.Command == "" {
		result.Detail = "command not configured"
		return result
	}
	if runner == nil {
		runner = execrun.NewExecRunner(nil)
	}

	probeCtx, cancel := context.WithTimeout(ctx, filterProbeTimeout)
	defer cancel()
	out, err := runner.Run(probeCtx, execrun.Command{
		Name: result.Command,
		Args: []string{"-hide_banner", "-filters"},
	})
	if err != nil {
		result.Detail = fmt.Sprintf("filter probe failed: %v", err)
		return result
	}
	if !hasFilter(string(out.Stdout), "subtitles") {
		result.Detail = "ffmpeg lacks the subtitles filter (build with --enable-libass)"
		return result
	}
	result.Available = true
	return result
}

// hasFilter scans "ffmpeg -filters" output, whose rows look like
// " ... subtitles         V->V       Render text subtitles ...".
func hasFilter(listing, name string) bool {
	for _, line := range strings.Split(listing, "\n") {
		fields := strings.Fields(line)
		if len(fields) >= 2 && fields[1] == name {
			return true
		}
	}
	return false
}
