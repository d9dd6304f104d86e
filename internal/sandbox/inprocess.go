package sandbox

import (
	"context"
	"errors"
	"time"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
)

func (s *Sandbox) runInProcess(ctx context.Context, c tools.Callable, args map[string]any, timeout time.Duration) (result any, err error) {
	name := c.Name()
	if ctx.Err() != nil {
		return nil, newExecError(KindTimeout, name, "context done before start: %v", ctx.Err())
	}

	threshold := s.cfg.SlowCallThreshold
	if threshold <= 0 || threshold > timeout {
		threshold = timeout
	}
	timer := logging.StartTimer(logging.CategorySandbox, "in-process call "+name)

	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = &ExecError{Kind: KindWorkerCrash, Tool: name, Reason: summarizePanic(r, s.cfg.StackFrames)}
		}
		if elapsed := timer.StopWithThreshold(threshold); elapsed > timeout {
			logging.SandboxWarn("Tool %s overran its cooperative timeout %v (took %v)", name, timeout, elapsed)
		}
	}()

	result, err = c.Call(ctx, args)
	if err != nil {
		switch {
		case errors.Is(err, tools.ErrInvalidArguments):
			return nil, err
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			return nil, newExecError(KindTimeout, name, "%v", err)
		default:
			return nil, &ExecError{Kind: KindWorkerCrash, Tool: name, Reason: summarizeError(err)}
		}
	}
	return result, nil
}
