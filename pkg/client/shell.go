package client

import (
	"bytes"
	"context"
	"os/exec"
	"runtime"
	"time"
)

type shellResult struct {
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	err      error
}

// runShell executes one command line under the host shell with a hard
// timeout. The child is killed when the deadline passes; it is never left
// running. A non-zero exit of the command itself is a normal result, not an
// error.
func (s *Session) runShell(ctx context.Context, command string, timeout time.Duration) shellResult {
	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(execCtx, s.opts.ShellPath, command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	// Check for timeout first
	if execCtx.Err() == context.DeadlineExceeded {
		return shellResult{timedOut: true, exitCode: -1}
	}

	exitCode := 0
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
			err = nil
		}
	}

	return shellResult{
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		exitCode: exitCode,
		err:      err,
	}
}

// shellCommand builds the platform's shell invocation for one command line.
func shellCommand(ctx context.Context, shellPath, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	if shellPath == "" {
		shellPath = "/bin/sh"
	}
	return exec.CommandContext(ctx, shellPath, "-c", command)
}
