package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Transport executes a shell command on the machine that has the Slurm
// client tools, either locally or over SSH.
type Transport interface {
	Run(ctx context.Context, command string) (RunResult, error)
	Describe() string
}

type RunError struct {
	Command  string
	Target   string
	Stdout   string
	Stderr   string
	ExitCode int
	Timeout  bool
	Err      error
}

func (e *RunError) Error() string {
	base := fmt.Sprintf("command failed on %s", e.Target)
	if e.Timeout {
		base += " (timeout)"
	}
	if e.ExitCode != 0 {
		base += fmt.Sprintf(" [exit=%d]", e.ExitCode)
	}
	if s := strings.TrimSpace(e.Stderr); s != "" {
		base += ": " + s
	}
	if e.Err != nil {
		base += fmt.Sprintf(": %v", e.Err)
	}
	return base
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsRetryable classifies failures that a later attempt could plausibly
// succeed on: timeouts, the OpenSSH connection-failure exit code, and the
// usual transient network messages.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var runErr *RunError
	if !errors.As(err, &runErr) {
		return false
	}
	if runErr.Timeout || runErr.ExitCode == 255 {
		return true
	}

	stderr := strings.ToLower(runErr.Stderr)
	for _, signal := range []string{
		"connection reset",
		"connection refused",
		"connection timed out",
		"connection closed",
		"broken pipe",
		"timed out",
		"network is unreachable",
		"no route to host",
		"temporary failure",
	} {
		if strings.Contains(stderr, signal) {
			return true
		}
	}
	return false
}

// runCommand executes a prepared exec.Cmd and converts any failure into a
// RunError carrying captured output and timeout classification. Shared by
// the local and SSH transports.
func runCommand(ctx context.Context, cmd *exec.Cmd, command, target string) (RunResult, error) {
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	result := RunResult{
		Stdout: outBuf.String(),
		Stderr: errBuf.String(),
	}
	if err == nil {
		return result, nil
	}

	runErr := &RunError{
		Command: command,
		Target:  target,
		Stdout:  result.Stdout,
		Stderr:  result.Stderr,
		Err:     err,
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		runErr.ExitCode = exitErr.ExitCode()
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		runErr.Timeout = true
	}
	return result, runErr
}
