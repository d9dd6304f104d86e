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

func newWorkerSandbox(t *testing.T) *Sandbox {
	return New(Config{Worker: testWorker(t), DefaultTimeout: 10 * time.Second, StackFrames: 4})
}

func TestWorker_Success(t *testing.T) {
	sb := newWorkerSandbox(t)

	got, err := sb.Execute(context.Background(), builtinCallable(t, "double"), map[string]any{"n": 21}, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 42, got)

	got, err = sb.Execute(context.Background(), builtinCallable(t, "describe"), map[string]any{"word": "forge"}, 0)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"word": "forge", "length": float64(5)}, got)
}

func TestWorker_Panic(t *testing.T) {
	sb := newWorkerSandbox(t)

	_, err := sb.Execute(context.Background(), builtinCallable(t, "boom"), nil, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWorkerCrash)

	var execErr *ExecError
	require.True(t, errors.As(err, &execErr))
	assert.Equal(t, "boom", execErr.Tool)
	assert.Contains(t, execErr.Reason, "panic string: kaboom")
	assert.NotContains(t, execErr.Reason, "\n")
	assert.LessOrEqual(t, len(execErr.Reason), maxReasonLen)
	assert.LessOrEqual(t, strings.Count(execErr.Reason, " <- "), 3, "at most 4 frames")
}

func TestWorker_ErrorIsSingleLine(t *testing.T) {
	sb := newWorkerSandbox(t)

	_, err := sb.Execute(context.Background(), builtinCallable(t, "fails"), nil, 0)
	assert.ErrorIs(t, err, ErrWorkerCrash)
	assert.Contains(t, err.Error(), "bad input")
	assert.NotContains(t, err.Error(), "second line")
}

func TestWorker_NoOutput(t *testing.T) {
	sb := newWorkerSandbox(t)

	_, err := sb.Execute(context.Background(), builtinCallable(t, "silent"), nil, 0)
	assert.ErrorIs(t, err, ErrNoOutput)
	assert.Contains(t, err.Error(), "exit status 0")
}

func TestWorker_InvalidArguments(t *testing.T) {
	sb := newWorkerSandbox(t)

	_, err := sb.Execute(context.Background(), builtinCallable(t, "double"), map[string]any{"n": "many"}, 0)
	assert.ErrorIs(t, err, tools.ErrInvalidArguments)
}

func TestWorker_UnknownToWorker(t *testing.T) {
	sb := newWorkerSandbox(t)

	_, err := sb.Execute(context.Background(), builtinCallable(t, "not_in_worker"), nil, 0)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
}

func TestWorker_MissingBinary(t *testing.T) {
	sb := New(Config{Worker: WorkerCommand{Path: "/nonexistent/toolforge-worker"}})

	_, err := sb.Execute(context.Background(), builtinCallable(t, "double"), map[string]any{"n": 1}, time.Second)
	assert.ErrorIs(t, err, ErrNoOutput)
}

func TestExecute_NilCallable(t *testing.T) {
	_, err := New(Config{}).Execute(context.Background(), nil, nil, 0)
	assert.ErrorIs(t, err, tools.ErrUnknownTool)
}

func TestLastEnvelope(t *testing.T) {
	out := []byte("stray print\n{\"status\":\"ok\",\"result\":1}\n")
	env, ok := lastEnvelope(out)
	require.True(t, ok)
	assert.Equal(t, statusOK, env.Status)

	_, ok = lastEnvelope([]byte("{\"other\":true}\nnoise"))
	assert.False(t, ok)
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{max: 4}
	n, err := b.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, "abcd", string(b.Bytes()))
}
