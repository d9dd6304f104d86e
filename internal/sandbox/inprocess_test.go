package sandbox

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolforge/internal/tools"
)

// fakeTool is an in-process callable.
type fakeTool struct {
	name string
	fn   func(ctx context.Context, args map[string]any) (any, error)
}

func (f fakeTool) Name() string       { return f.name }
func (f fakeTool) Trust() tools.Trust { return tools.TrustValidated }
func (f fakeTool) Call(ctx context.Context, args map[string]any) (any, error) {
	return f.fn(ctx, args)
}

func TestInProcess_ReturnsRawValue(t *testing.T) {
	raw := []int{1, 2, 3}
	tool := fakeTool{name: "list", fn: func(context.Context, map[string]any) (any, error) { return raw, nil }}

	got, err := New(Config{}).Execute(context.Background(), tool, nil, time.Second)
	require.NoError(t, err)
	assert.Equal(t, raw, got)
}

func TestInProcess_ExpiredContext(t *testing.T) {
	called := false
	tool := fakeTool{name: "never", fn: func(context.Context, map[string]any) (any, error) {
		called = true
		return nil, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Execute(ctx, tool, nil, time.Second)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.False(t, called)
}

func TestInProcess_OverrunIsNotPreempted(t *testing.T) {
	tool := fakeTool{name: "slow", fn: func(context.Context, map[string]any) (any, error) {
		time.Sleep(30 * time.Millisecond)
		return "done", nil
	}}

	got, err := New(Config{}).Execute(context.Background(), tool, nil, 5*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "done", got)
}

func TestInProcess_PanicBecomesCrash(t *testing.T) {
	tool := fakeTool{name: "divide", fn: func(_ context.Context, args map[string]any) (any, error) {
		zero := 0
		return 1 / zero, nil
	}}

	_, err := New(Config{StackFrames: 3}).Execute(context.Background(), tool, nil, time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkerCrash)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Contains(t, execErr.Reason, "integer divide by zero")
	assert.NotContains(t, execErr.Reason, "\n")
	assert.LessOrEqual(t, strings.Count(execErr.Reason, " <- "), 2)
}

func TestInProcess_ToolError(t *testing.T) {
	tool := fakeTool{name: "picky", fn: func(context.Context, map[string]any) (any, error) {
		return nil, errors.New("value out of range\ndetails")
	}}

	_, err := New(Config{}).Execute(context.Background(), tool, nil, time.Second)
	assert.ErrorIs(t, err, ErrWorkerCrash)
	assert.Contains(t, err.Error(), "*errors.errorString: value out of range")
	assert.NotContains(t, err.Error(), "details")
}

func TestInProcess_InvalidArgumentsPassThrough(t *testing.T) {
	tool := fakeTool{name: "strict", fn: func(context.Context, map[string]any) (any, error) {
		return nil, tools.ErrInvalidArguments
	}}

	_, err := New(Config{}).Execute(context.Background(), tool, nil, time.Second)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)
	var execErr *ExecError
	assert.False(t, errors.As(err, &execErr))
}

func TestExecError(t *testing.T) {
	err := newExecError(KindTimeout, "t", "took\ntoo long")
	assert.Equal(t, "Timeout: t: took", err.Error())
	assert.ErrorIs(t, err, ErrTimeout)
	assert.NotErrorIs(t, err, ErrWorkerCrash)
	assert.NotErrorIs(t, err, ErrNoOutput)
}

func TestOneLine(t *testing.T) {
	assert.Equal(t, "a", oneLine("  a\nb"))
	long := strings.Repeat("x", maxReasonLen+50)
	assert.Len(t, oneLine(long), maxReasonLen)
}
