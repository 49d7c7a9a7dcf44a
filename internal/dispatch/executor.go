package dispatch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"pdfdispatch/internal/domain"
)

// Runner performs one blocking tool run. A nonzero exit is reported through
// RunOutput.ExitCode; err is reserved for runs that could not complete
// (missing executable, cancelled or expired context).
type Runner interface {
	Run(ctx context.Context, inv domain.Invocation) (domain.RunOutput, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, inv domain.Invocation) (domain.RunOutput, error)

func (f RunnerFunc) Run(ctx context.Context, inv domain.Invocation) (domain.RunOutput, error) {
	return f(ctx, inv)
}

// ExecRunner runs tools as subprocesses.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after the process is killed.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, inv domain.Invocation) (domain.RunOutput, error) {
	cmd := exec.CommandContext(ctx, inv.Program, inv.Args...)
	cmd.Dir = filepath.Dir(inv.InputPath)
	cmd.WaitDelay = r.WaitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := domain.RunOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if ctxErr := ctx.Err(); ctxErr != nil {
		out.ExitCode = -1
		return out, ctxErr
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
		return out, nil
	case errors.As(err, &exitErr):
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	default:
		return out, fmt.Errorf("start %s: %w", inv.Program, err)
	}
}

// Executor turns a resolved tool and a persisted upload into a classified result.
type Executor struct {
	fs      afero.Fs
	timeout time.Duration
	runners map[string]Runner
}

// NewExecutor returns an executor dispatching by engine name. A zero timeout disables the bound.
func NewExecutor(fs afero.Fs, timeout time.Duration, runners map[string]Runner) *Executor {
	return &Executor{fs: fs, timeout: timeout, runners: runners}
}

// OutputPath is where tool is expected to write the PDF for upload.
func OutputPath(tool string, u *Upload) string {
	return filepath.Join(u.Dir, outputName(tool, u.Stem))
}

// Execute runs spec against u and returns the output path on success.
// Failures are *domain.ToolExecutionError, *domain.MissingOutputError or
// an unexpected error.
func (e *Executor) Execute(ctx context.Context, spec ToolSpec, u *Upload) (string, domain.ConversionResult, error) {
	runner, ok := e.runners[spec.Engine]
	if !ok {
		return "", domain.ConversionResult{}, fmt.Errorf("tool %s: no runner for engine %q", spec.ID, spec.Engine)
	}

	outputPath := OutputPath(spec.ID, u)
	inv := spec.Invocation(u.InputPath, outputPath)

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out, err := runner.Run(ctx, inv)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", domain.ConversionResult{}, &domain.ToolExecutionError{
				Tool:   spec.ID,
				Output: fmt.Sprintf("Error: %s timed out after %s", spec.ID, e.timeout),
			}
		}
		return "", domain.ConversionResult{}, fmt.Errorf("run %s: %w", spec.ID, err)
	}

	exists, statErr := afero.Exists(e.fs, outputPath)
	if statErr != nil {
		return "", domain.ConversionResult{}, fmt.Errorf("stat output of %s: %w", spec.ID, statErr)
	}

	result := domain.ConversionResult{
		ExitSucceeded:    out.ExitCode == 0,
		Stdout:           out.Stdout,
		Stderr:           out.Stderr,
		OutputFileExists: exists,
	}
	if err := Classify(spec, result); err != nil {
		return "", result, err
	}
	return outputPath, result, nil
}
