package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEngineFailure = errors.New("engine failure")
	ErrRenderFailure = errors.New("render failure")
	ErrTimeout       = errors.New("timeout")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
)

// Kind is the stable, caller-facing classification of a failure.
type Kind string

const (
	KindInvalidInput  Kind = "invalid_input"
	KindEngineFailure Kind = "engine_failure"
	KindRenderFailure Kind = "render_failure"
	KindTimeout       Kind = "timeout"
	KindNotFound      Kind = "not_found"
	KindInternal      Kind = "internal"
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above; a nil marker yields an unclassified error.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		if err != nil {
			return fmt.Errorf("%s: %w", detail, err)
		}
		return errors.New(detail)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// KindOf maps an error chain to its kind tag. Timeouts win over the engine or
// render marker they are usually paired with.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrTimeout):
		return KindTimeout
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrEngineFailure):
		return KindEngineFailure
	case errors.Is(err, ErrRenderFailure):
		return KindRenderFailure
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// ToolError carries the raw diagnostic text of a failed external tool run.
// The diagnostic is meant for logs; callers outside the process only see the
// kind and the wrapped message.
type ToolError struct {
	Tool       string
	ExitCode   int
	Diagnostic string
	Err        error
}

func (e *ToolError) Error() string {
	if e == nil {
		return "<nil>"
	}
	tool := strings.TrimSpace(e.Tool)
	if tool == "" {
		tool = "external tool"
	}
	switch {
	case e.Err != nil && e.ExitCode > 0:
		return fmt.Sprintf("%s exited with status %d: %v", tool, e.ExitCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", tool, e.Err)
	case e.ExitCode > 0:
		return fmt.Sprintf("%s exited with status %d", tool, e.ExitCode)
	default:
		return tool + " failed"
	}
}

func (e *ToolError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// DiagnosticOf returns the tool diagnostic attached anywhere in err's chain.
func DiagnosticOf(err error) string {
	var toolErr *ToolError
	if errors.As(err, &toolErr) && toolErr != nil {
		return toolErr.Diagnostic
	}
	return ""
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
