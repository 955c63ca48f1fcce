package execrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"captioner/internal/logging"
)

// killGrace bounds how long Wait blocks on inherited pipes after the process
// group has been killed.
const killGrace = 5 * time.Second

// Command describes one external engine invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	// Env entries are appended to the parent environment.
	Env []string
}

func (c Command) String() string {
	if len(c.Args) == 0 {
		return c.Name
	}
	return c.Name + " " + strings.Join(c.Args, " ")
}

// Result captures what an engine produced. It is populated even when Run
// returns an error so callers can attach diagnostics.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Elapsed  time.Duration
}

// Runner is the single "run an external computation" capability shared by the
// transcription adapter and the render orchestrator.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (Result, error)

func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// ExitError reports a non-zero exit status.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// ErrNotStarted marks failures to launch the process at all (missing binary,
// permission denied).
var ErrNotStarted = errors.New("process did not start")

// ExecRunner runs commands as child processes in their own process group so a
// cancelled context kills the whole tree.
type ExecRunner struct {
	Logger *slog.Logger
}

// NewExecRunner constructs the default process runner.
func NewExecRunner(logger *slog.Logger) *ExecRunner {
	return &ExecRunner{Logger: logging.NewComponentLogger(logger, "execrun")}
}

// Run executes cmd and waits for it. Errors are ErrNotStarted, *ExitError, or
// the context error when ctx ended first.
func (r *ExecRunner) Run(ctx context.Context, command Command) (Result, error) {
	var result Result
	if strings.TrimSpace(command.Name) == "" {
		return result, fmt.Errorf("%w: empty command name", ErrNotStarted)
	}

	cmd := exec.CommandContext(ctx, command.Name, command.Args...) //nolint:gosec
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}
	cmd.WaitDelay = killGrace

	logger := r.logger()
	logger.Debug("engine started", logging.String("command", command.String()))
	start := time.Now()
	err := cmd.Run()
	result.Elapsed = time.Since(start)
	result.Stdout = stdout.Bytes()
	result.Stderr = stderr.Bytes()
	result.ExitCode = exitCode(cmd)

	if ctxErr := ctx.Err(); ctxErr != nil && err != nil {
		return result, ctxErr
	}
	if err == nil {
		logger.Debug("engine finished",
			logging.String("command", command.Name),
			logging.Duration("elapsed", result.Elapsed),
		)
		return result, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, &ExitError{Code: result.ExitCode}
	}
	return result, fmt.Errorf("%w: %s: %w", ErrNotStarted, command.Name, err)
}

func (r *ExecRunner) logger() *slog.Logger {
	if r == nil || r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

func exitCode(cmd *exec.Cmd) int {
	if cmd.ProcessState == nil {
		return -1
	}
	return cmd.ProcessState.ExitCode()
}

// Tail returns at most limit bytes from the end of output, trimmed, for use
// as a log-friendly diagnostic.
func Tail(output []byte, limit int) string {
	text := strings.TrimSpace(string(output))
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := text[len(text)-limit:]
	if idx := strings.IndexByte(cut, '\n'); idx >= 0 && idx < len(cut)-1 {
		cut = cut[idx+1:]
	}
	return "..." + cut
}
