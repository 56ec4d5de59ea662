// Package shell runs approved commands with a sanitized environment and
// proper process-group cleanup.
package shell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"mend/internal/logging"
)

// SafeEnvVars is the whitelist of environment variables passed to
// commands. Keeps API keys and other secrets out of child processes.
var SafeEnvVars = []string{
	"PATH",
	"HOME",
	"USER",
	"SHELL",
	"TERM",
	"LANG",
	"LC_ALL",
	"TMPDIR",
	"GOPATH",
	"GOROOT",
	"GOFLAGS",
	"NODE_PATH",
	"PYTHONPATH",
	"VIRTUAL_ENV",
}

func buildSafeEnv() []string {
	env := make([]string, 0, len(SafeEnvVars))
	hasPath := false
	for _, key := range SafeEnvVars {
		if val := os.Getenv(key); val != "" {
			env = append(env, key+"="+val)
			if key == "PATH" {
				hasPath = true
			}
		}
	}
	if !hasPath {
		env = append(env, "PATH=/usr/local/bin:/usr/bin:/bin")
	}
	return env
}

// Outcome is the result of one command run.
type Outcome struct {
	Output    string
	ExitCode  int
	Duration  time.Duration
	Truncated bool
	TimedOut  bool
}

// Runner executes shell commands inside the workspace.
type Runner struct {
	workDir   string
	timeout   time.Duration
	maxOutput int
}

// NewRunner creates a runner rooted at workDir. maxOutput caps captured
// bytes; zero means no cap.
func NewRunner(workDir string, timeout time.Duration, maxOutput int) *Runner {
	return &Runner{workDir: workDir, timeout: timeout, maxOutput: maxOutput}
}

// Run executes command through `sh -c`, capturing combined output.
// cwd is resolved relative to the workspace when not absolute; empty
// means the workspace root. Cancellation kills the whole process group;
// whatever the command already did stays done.
func (r *Runner) Run(ctx context.Context, command, cwd string) (*Outcome, error) {
	dir := r.workDir
	if cwd != "" {
		if filepath.IsAbs(cwd) {
			dir = cwd
		} else {
			dir = filepath.Join(r.workDir, cwd)
		}
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	cmd := exec.Command("sh", "-c", command)
	cmd.Dir = dir
	cmd.Env = buildSafeEnv()
	// Own process group so cancellation can reap children too.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	waitErr := make(chan error, 1)
	go func() { waitErr <- cmd.Wait() }()

	var runErr error
	timedOut := false
	select {
	case runErr = <-waitErr:
	case <-ctx.Done():
		timedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
		if cmd.Process != nil {
			// Negative pid signals the whole group.
			_ = syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
		}
		runErr = <-waitErr
	}
	duration := time.Since(start)

	out := buf.String()
	truncated := false
	if r.maxOutput > 0 && len(out) > r.maxOutput {
		out = out[:r.maxOutput] + "\n... (output truncated)"
		truncated = true
	}

	outcome := &Outcome{
		Output:    out,
		Duration:  duration,
		Truncated: truncated,
		TimedOut:  timedOut,
	}

	switch {
	case runErr == nil:
		outcome.ExitCode = 0
	default:
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			outcome.ExitCode = exitErr.ExitCode()
		} else {
			outcome.ExitCode = -1
		}
	}

	logging.Info("command finished",
		"exit_code", outcome.ExitCode,
		"duration", duration,
		"timed_out", timedOut)

	if ctx.Err() != nil && !timedOut {
		return outcome, ctx.Err()
	}
	return outcome, nil
}

// Describe renders a short human summary for approval payloads.
func Describe(command, cwd string) string {
	cmd := command
	if len(cmd) > 150 {
		cmd = cmd[:147] + "..."
	}
	if cwd != "" {
		return "Execute command in " + cwd + ": " + cmd
	}
	return "Execute command: " + cmd
}
