package jobs

import "time"

// Kind identifies the pipeline that produced an entry.
type Kind string

const (
	KindTranscribe Kind = "transcribe"
	KindRender     Kind = "render"
)

// Status is the final outcome of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Entry is one ledger row.
type Entry struct {
	ID           string    `json:"id"`
	Kind         Kind      `json:"kind"`
	Status       Status    `json:"status"`
	RequestID    string    `json:"requestId,omitempty"`
	Variant      string    `json:"variant,omitempty"`
	Preset       string    `json:"preset,omitempty"`
	InputName    string    `json:"inputName,omitempty"`
	SegmentCount int       `json:"segmentCount"`
	MediaSeconds float64   `json:"mediaSeconds"`
	OutputBytes  int64     `json:"outputBytes"`
	ErrorKind    string    `json:"errorKind,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ElapsedMS    int64     `json:"elapsedMs"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Failed reports whether the entry records a failure.
func (e Entry) Failed() bool {
	return e.Status == StatusFailed
}
