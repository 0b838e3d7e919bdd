package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

var ErrToolUnavailable = errors.New("tool not installed")

const maxOutput = 16000

// Result is the outcome of one external command.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Combined returns stdout followed by a marked stderr section.
func (r Result) Combined() string {
	var sb strings.Builder
	sb.WriteString(r.Stdout)
	if r.Stderr != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[stderr]\n")
		sb.WriteString(r.Stderr)
	}
	return Truncate(sb.String())
}

// Available reports whether name resolves on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Run executes name with args in dir, bounded by timeout. A non-zero exit is
// reported in Result.ExitCode, not as an error; errors are reserved for the
// tool missing, failing to start, or timing out.
func Run(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (Result, error) {
	if !Available(name) {
		return Result{}, fmt.Errorf("%w: %s", ErrToolUnavailable, name)
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	// Children that inherit the pipes must not hold Run open past the deadline.
	cmd.WaitDelay = 2 * time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if err == nil {
		return res, nil
	}
	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = -1
		return res, fmt.Errorf("%s timed out after %v", name, timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	return res, fmt.Errorf("run %s: %w", name, err)
}

// Shell runs command through bash -c in dir.
func Shell(ctx context.Context, dir string, timeout time.Duration, command string) (Result, error) {
	return Run(ctx, dir, timeout, "bash", "-c", command)
}

// Truncate keeps the head and tail of long output.
func Truncate(output string) string {
	if len(output) > maxOutput {
		half := maxOutput / 2
		output = output[:half] + "\n\n... (output truncated) ...\n\n" + output[len(output)-half:]
	}
	return output
}
