package api

import (
	"captioner/internal/captions"
	"captioner/internal/deps"
	"captioner/internal/jobs"
	"captioner/internal/pipeline"
	"captioner/internal/services/whisper"
	"captioner/internal/subtitles"
)

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message"`
}

// TranscriptionResponse is returned by the transcription endpoints.
type TranscriptionResponse struct {
	Success      bool                      `json:"success"`
	SRT          string                    `json:"srt"`
	Captions     []captions.DisplayCaption `json:"captions"`
	Segments     []captions.Segment        `json:"segments"`
	Filename     string                    `json:"filename"`
	Duration     float64                   `json:"duration"`
	SegmentCount int                       `json:"segmentCount"`
	Validation   subtitles.Validation      `json:"validation"`
	Variant      string                    `json:"variant"`
	Model        string                    `json:"model"`
	Language     string                    `json:"language,omitempty"`
}

// JobEntry describes a ledger entry in a transport-friendly format.
type JobEntry struct {
	ID           string  `json:"id"`
	Kind         string  `json:"kind"`
	Status       string  `json:"status"`
	Variant      string  `json:"variant,omitempty"`
	Preset       string  `json:"preset,omitempty"`
	InputName    string  `json:"inputName,omitempty"`
	SegmentCount int     `json:"segmentCount"`
	MediaSeconds float64 `json:"mediaSeconds"`
	OutputBytes  int64   `json:"outputBytes"`
	ErrorKind    string  `json:"errorKind,omitempty"`
	ElapsedMS    int64   `json:"elapsedMs"`
	CreatedAt    string  `json:"createdAt"`
}

// JobListResponse wraps the jobs endpoint payload.
type JobListResponse struct {
	Enabled bool       `json:"enabled"`
	Jobs    []JobEntry `json:"jobs"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Feature     string `json:"feature,omitempty"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status       string             `json:"status"`
	Message      string             `json:"message"`
	Timestamp    string             `json:"timestamp"`
	Dependencies []DependencyStatus `json:"dependencies"`
	// Features maps each engine-backed feature to whether it can run.
	Features map[string]bool `json:"features"`
}

// FromTranscribeResult converts a pipeline result into its wire form.
func FromTranscribeResult(result pipeline.TranscribeResult) TranscriptionResponse {
	resp := TranscriptionResponse{
		Success:      true,
		SRT:          result.SRT,
		Captions:     result.Captions,
		Segments:     result.Segments,
		Filename:     result.Filename,
		Duration:     result.Duration,
		SegmentCount: result.SegmentCount,
		Validation:   result.Validation,
		Variant:      string(result.Variant),
		Model:        result.Model,
	}
	if result.Variant == whisper.VariantHinglish {
		resp.Language = "Hinglish (Hindi + English)"
	}
	return resp
}

// FromJobEntry converts a ledger entry. Error messages stay internal.
func FromJobEntry(entry *jobs.Entry) JobEntry {
	return JobEntry{
		ID:           entry.ID,
		Kind:         string(entry.Kind),
		Status:       string(entry.Status),
		Variant:      entry.Variant,
		Preset:       entry.Preset,
		InputName:    entry.InputName,
		SegmentCount: entry.SegmentCount,
		MediaSeconds: entry.MediaSeconds,
		OutputBytes:  entry.OutputBytes,
		ErrorKind:    entry.ErrorKind,
		ElapsedMS:    entry.ElapsedMS,
		CreatedAt:    entry.CreatedAt.UTC().Format(dateTimeFormat),
	}
}

// FromFeatures converts a feature readiness map.
func FromFeatures(features map[deps.Feature]bool) map[string]bool {
	out := make(map[string]bool, len(features))
	for feature, ready := range features {
		out[string(feature)] = ready
	}
	return out
}

// FromDependencies converts binary checks.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, len(statuses))
	for i, dep := range statuses {
		out[i] = DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Feature:     string(dep.Feature),
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		}
	}
	return out
}
