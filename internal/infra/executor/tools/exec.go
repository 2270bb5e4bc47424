package tools

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// DefaultTimeout bounds a single tool invocation so the per-job join always
// completes. Expiry shows up as an abnormal exit in the result, not a hang.
const DefaultTimeout = 10 * time.Minute

type commandOutput struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// runCommand executes bin with args, capturing output and exit code. An
// abnormal exit (including a timeout kill) is data, not an error: only a
// command that could not be started at all returns err, and that surfaces as
// an orchestration fault upstream.
func runCommand(ctx context.Context, timeout time.Duration, bin string, args ...string) (commandOutput, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, bin, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	out := commandOutput{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var ee *exec.ExitError
		if errors.As(err, &ee) {
			out.ExitCode = ee.ExitCode()
			return out, nil
		}
		return out, err
	}
	return out, nil
}

func intPtr(v int) *int { return &v }
