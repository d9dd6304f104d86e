package sandbox

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"time"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
)

const (
	maxStdout = 4 << 20
	maxStderr = 64 << 10

	// waitDelay bounds how long Wait blocks on pipes held open by
	// descendants after the worker itself is gone.
	waitDelay = 2 * time.Second
)

func (s *Sandbox) runWorker(ctx context.Context, c tools.Callable, args map[string]any, timeout time.Duration) (any, error) {
	name := c.Name()
	if s.cfg.Worker.Path == "" {
		return nil, newExecError(KindWorkerCrash, name, "no worker command configured")
	}

	payload, err := json.Marshal(request{Tool: name, Args: args})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", tools.ErrInvalidArguments, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, s.cfg.Worker.Path, s.cfg.Worker.Args...)
	cmd.Env = s.cfg.Worker.Env
	cmd.Stdin = bytes.NewReader(payload)
	stdout := &cappedBuffer{max: maxStdout}
	stderr := &cappedBuffer{max: maxStderr}
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	configureProcess(cmd)

	timer := logging.StartTimer(logging.CategorySandbox, "worker call "+name)
	runErr := cmd.Run()
	elapsed := timer.Stop()
	killGroup(cmd)

	// deadline first: a killed worker also reports an exit error
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		logging.SandboxWarn("Worker for %s killed after %v", name, elapsed)
		return nil, newExecError(KindTimeout, name, "exceeded %v", timeout)
	}
	if ctx.Err() != nil {
		return nil, newExecError(KindTimeout, name, "cancelled: %v", ctx.Err())
	}

	env, ok := lastEnvelope(stdout.Bytes())
	if !ok {
		status := "exit status 0"
		if runErr != nil {
			status = runErr.Error()
		}
		if tail := oneLine(string(stderr.Bytes())); tail != "" {
			status += "; stderr: " + tail
		}
		return nil, newExecError(KindNoOutput, name, "worker exited without a result (%s)", status)
	}

	if env.Status == statusErr {
		switch env.Kind {
		case errKindInvalidArgs:
			return nil, fmt.Errorf("%w: %s", tools.ErrInvalidArguments, oneLine(env.Error))
		case errKindUnknownTool:
			return nil, fmt.Errorf("%w: %s", tools.ErrUnknownTool, name)
		default:
			return nil, newExecError(KindWorkerCrash, name, "%s", env.Error)
		}
	}

	var result any
	if len(env.Result) > 0 {
		if err := json.Unmarshal(env.Result, &result); err != nil {
			return nil, newExecError(KindNoOutput, name, "undecodable result: %v", err)
		}
	}
	logging.SandboxDebug("Worker for %s finished in %v", name, elapsed)
	return result, nil
}
