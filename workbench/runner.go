package workbench

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"golang.org/x/time/rate"
)

// Runner is the narrow port through which external processes are spawned.
// Substituting it with a fake makes the adapter fully testable without a
// geometry-tool installation.
type Runner interface {
	// Run executes name with args and blocks until it exits.
	// A non-zero exit status is returned as an error.
	Run(ctx context.Context, name string, args ...string) error
}

// ErrCommandFailed indicates an external process exited non-zero or could
// not be started.
type ErrCommandFailed struct {
	Command string
	Stderr  string
	cause   error
}

func (e *ErrCommandFailed) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command %q failed: %v: %s", e.Command, e.cause, e.Stderr)
	}
	return fmt.Sprintf("command %q failed: %v", e.Command, e.cause)
}

func (e *ErrCommandFailed) Unwrap() error { return e.cause }

// ExecRunner runs commands via os/exec. It is stateless apart from its
// logger and optional limiter and safe to share across goroutines.
type ExecRunner struct {
	logger  *slog.Logger
	limiter *rate.Limiter
}

// ExecRunnerOption configures an ExecRunner.
type ExecRunnerOption func(*ExecRunner)

// WithRunnerLogger sets the logger used for command logging.
func WithRunnerLogger(logger *slog.Logger) ExecRunnerOption {
	return func(r *ExecRunner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithSpawnLimiter throttles process spawning. Useful when the adapter is
// shared across concurrent projections against the same tool installation.
func WithSpawnLimiter(limiter *rate.Limiter) ExecRunnerOption {
	return func(r *ExecRunner) {
		r.limiter = limiter
	}
}

// NewExecRunner creates an ExecRunner.
func NewExecRunner(opts ...ExecRunnerOption) *ExecRunner {
	r := &ExecRunner{logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the command, logging the full command line before spawning.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) error {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}

	commandLine := strings.Join(append([]string{name}, args...), " ")
	r.logger.Info("running command", "command", commandLine)

	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &ErrCommandFailed{
			Command: commandLine,
			Stderr:  strings.TrimSpace(stderr.String()),
			cause:   err,
		}
		r.logger.Error("command failed", "command", commandLine, "error", err, "stderr", cmdErr.Stderr)
		return cmdErr
	}
	return nil
}
