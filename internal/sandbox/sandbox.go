// Package sandbox runs one tool invocation with an isolation tier chosen by
// the tool's trust level.
//
//   - Validated (dynamic) tools run in-process on the caller's goroutine.
//     Their timeout is cooperative: an expired context refuses the call and
//     an overrun is logged, never preempted.
//   - Built-in tools run in a fresh worker process per call, in their own
//     process group, with a hard wall-clock timeout. On timeout the group is
//     killed and reaped before Execute returns.
//
// Success returns the raw result. Failures are *ExecError values, except
// argument mismatches (tools.ErrInvalidArguments) and unknown tools
// (tools.ErrUnknownTool) which are reported as-is.
package sandbox

import (
	"context"
	"fmt"
	"os"
	"time"

	"toolforge/internal/tools"
)

// WorkerCommand describes how to start a worker process. The process must
// call Serve with the same built-in list as the host.
type WorkerCommand struct {
	Path string
	Args []string
	// Env replaces the worker environment; nil inherits the host's.
	Env []string
}

// Config configures a Sandbox.
type Config struct {
	Worker         WorkerCommand
	DefaultTimeout time.Duration
	// SlowCallThreshold logs in-process calls that run longer; zero uses
	// the call timeout.
	SlowCallThreshold time.Duration
	StackFrames       int
}

// Sandbox executes tools.
type Sandbox struct {
	cfg Config
}

// DefaultWorkerCommand re-executes the current binary with the worker
// subcommand.
func DefaultWorkerCommand() (WorkerCommand, error) {
	exe, err := os.Executable()
	if err != nil {
		return WorkerCommand{}, fmt.Errorf("locate executable: %w", err)
	}
	return WorkerCommand{Path: exe, Args: []string{"worker"}}, nil
}

// New creates a Sandbox. Zero fields take defaults.
func New(cfg Config) *Sandbox {
	if cfg.DefaultTimeout <= 0 {
		cfg.DefaultTimeout = 15 * time.Second
	}
	if cfg.StackFrames <= 0 {
		cfg.StackFrames = 6
	}
	if cfg.Worker.Path == "" {
		if wc, err := DefaultWorkerCommand(); err == nil {
			cfg.Worker = wc
		}
	}
	return &Sandbox{cfg: cfg}
}

// Execute runs c with args. A non-positive timeout uses the default.
func (s *Sandbox) Execute(ctx context.Context, c tools.Callable, args map[string]any, timeout time.Duration) (any, error) {
	if c == nil {
		return nil, tools.ErrUnknownTool
	}
	if timeout <= 0 {
		timeout = s.cfg.DefaultTimeout
	}
	if args == nil {
		args = map[string]any{}
	}

	switch c.Trust() {
	case tools.TrustBuiltin:
		return s.runWorker(ctx, c, args, timeout)
	default:
		return s.runInProcess(ctx, c, args, timeout)
	}
}
