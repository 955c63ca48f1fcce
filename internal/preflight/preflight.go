package preflight

import (
	"context"

	"captioner/internal/config"
	"captioner/internal/deps"
	"captioner/internal/services/execrun"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Optional bool   `json:"optional,omitempty"`
	Detail   string `json:"detail,omitempty"`
}

// RunAll executes all applicable preflight checks for the given config.
// A nil runner uses the process runner.
func RunAll(ctx context.Context, cfg *config.Config, runner execrun.Runner) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))
	if cfg.History.Enabled {
		results = append(results, CheckDirectoryAccess("State directory", cfg.Paths.StateDir))
	}
	for _, status := range CheckSystemDeps(cfg) {
		results = append(results, fromStatus(status))
	}
	results = append(results, fromStatus(deps.CheckSubtitlesFilter(ctx, runner, cfg.Render.FFmpegCommand)))
	results = append(results, CheckHinglishScript(cfg.Transcription.HinglishScript))
	return results
}

// Failed returns the non-optional results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

func fromStatus(status deps.Status) Result {
	return Result{
		Name:     status.Name,
		Passed:   status.Available,
		Optional: status.Optional,
		Detail:   status.Detail,
	}
}
