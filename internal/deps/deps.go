package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// Feature names a captioner capability that depends on external binaries.
type Feature string

const (
	// FeatureRender burns captions into video.
	FeatureRender Feature = "render"
	// FeatureTranscribe runs the general whisper engine.
	FeatureTranscribe Feature = "transcribe"
	// FeatureHinglish runs the Hinglish helper.
	FeatureHinglish Feature = "transcribe_hinglish"
)

// Requirement is an engine binary and the feature it gates. Optional
// requirements gate features the server can run without.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Feature     Feature
	Optional    bool
}

// Status reports the availability of a requirement.
type Status struct {
	Name        string
	Command     string
	Description string
	Feature     Feature
	Optional    bool
	Available   bool
	Detail      string
}

// CheckBinaries resolves each requirement's command on PATH.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Feature:     req.Feature,
			Optional:    req.Optional,
		}
		switch {
		case cmd == "":
			status.Detail = "command not configured"
		default:
			if _, err := exec.LookPath(cmd); err != nil {
				status.Detail = fmt.Sprintf("binary %q not found", cmd)
			} else {
				status.Available = true
			}
		}
		results = append(results, status)
	}
	return results
}

// Features reports, per feature, whether every status gating it is
// available. Statuses without a feature are ignored.
func Features(statuses []Status) map[Feature]bool {
	out := make(map[Feature]bool)
	for _, status := range statuses {
		if status.Feature == "" {
			continue
		}
		ready, seen := out[status.Feature]
		if !seen {
			ready = true
		}
		out[status.Feature] = ready && status.Available
	}
	return out
}

// Missing lists the features that at least one unavailable status gates.
func Missing(statuses []Status) []Feature {
	var out []Feature
	seen := make(map[Feature]struct{})
	for _, status := range statuses {
		if status.Available || status.Feature == "" {
			continue
		}
		if _, ok := seen[status.Feature]; ok {
			continue
		}
		seen[status.Feature] = struct{}{}
		out = append(out, status.Feature)
	}
	return out
}
