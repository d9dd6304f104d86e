package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolforge/internal/tools"
	"toolforge/internal/validator"
)

const addTwoSource = `func add_two(a int, b int) int {
	return a + b
}`

func echoBuiltin() tools.Builtin {
	return tools.Builtin{
		Name:        "echo",
		Description: "Return the text unchanged",
		Params:      []tools.Param{{Name: "text", Type: "string"}},
		Returns:     "string",
		Fn: func(_ context.Context, args map[string]any) (any, error) {
			return args["text"], nil
		},
	}
}

func newTestRegistry(t *testing.T) (*Registry, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "tools")
	return New(dir, validator.New(validator.Policy{})), dir
}

func readMeta(t *testing.T, dir string) map[string]map[string]any {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, MetaFileName))
	require.NoError(t, err)
	var out map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestRegister_MergesAndPersists(t *testing.T) {
	r, dir := newTestRegistry(t)
	echo := echoBuiltin().Callable()

	require.NoError(t, r.Register("echo", echo, WithDescription("first"), WithOrigin(tools.OriginBuiltin)))
	require.NoError(t, r.Register("echo", echo, WithSignature("(text string) string")))

	m, ok := r.Metadata("echo")
	require.True(t, ok)
	assert.Equal(t, "first", m.Description, "unsupplied fields keep stored values")
	assert.Equal(t, "(text string) string", m.Signature)
	assert.Equal(t, tools.OriginBuiltin, m.Origin)

	meta := readMeta(t, dir)
	assert.Equal(t, "first", meta["echo"]["description"])
	assert.Equal(t, "builtin", meta["echo"]["origin"])
}

func TestRegister_Defaults(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Register("bare", echoBuiltin().Callable()))

	m, ok := r.Metadata("bare")
	require.True(t, ok)
	assert.Equal(t, Metadata{Name: "bare", Origin: tools.OriginUnknown}, m)
}

func TestRegister_InvalidInput(t *testing.T) {
	r, _ := newTestRegistry(t)
	assert.ErrorIs(t, r.Register("", echoBuiltin().Callable()), tools.ErrToolNameEmpty)
	assert.ErrorIs(t, r.Register("x", nil), tools.ErrToolExecuteNil)
}

func TestGet_Absent(t *testing.T) {
	r, _ := newTestRegistry(t)
	c, ok := r.Get("missing")
	assert.False(t, ok)
	assert.Nil(t, c)
}

func TestMarkUse_Counters(t *testing.T) {
	r, dir := newTestRegistry(t)
	require.NoError(t, r.Register("echo", echoBuiltin().Callable()))

	const n, m = 5, 3
	for i := 0; i < n; i++ {
		r.MarkUse("echo", true)
	}
	for i := 0; i < m; i++ {
		r.MarkUse("echo", false)
	}

	rec, _ := r.Metadata("echo")
	assert.Equal(t, int64(n+m), rec.Uses)
	assert.Equal(t, int64(n), rec.Success)

	meta := readMeta(t, dir)
	assert.EqualValues(t, n+m, meta["echo"]["uses"])
	assert.EqualValues(t, n, meta["echo"]["success"])
}

func TestMarkUse_UnknownIsNoop(t *testing.T) {
	r, dir := newTestRegistry(t)
	r.MarkUse("ghost", true)

	_, ok := r.Metadata("ghost")
	assert.False(t, ok)
	_, err := os.Stat(filepath.Join(dir, MetaFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestMarkUse_Concurrent(t *testing.T) {
	r, _ := newTestRegistry(t)
	require.NoError(t, r.Register("echo", echoBuiltin().Callable()))

	var wg sync.WaitGroup
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(success bool) {
			defer wg.Done()
			r.MarkUse("echo", success)
			_, _ = r.Get("echo")
			_ = r.List()
		}(i%2 == 0)
	}
	wg.Wait()

	rec, _ := r.Metadata("echo")
	assert.Equal(t, int64(40), rec.Uses)
	assert.Equal(t, int64(20), rec.Success)
}

func TestList_SortedWithDefaults(t *testing.T) {
	r, _ := newTestRegistry(t)
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, r.Register(name, echoBuiltin().Callable()))
	}

	list := r.List()
	require.Len(t, list, 3)
	assert.Equal(t, "alpha", list[0].Name)
	assert.Equal(t, "mid", list[1].Name)
	assert.Equal(t, "zeta", list[2].Name)
	for _, m := range list {
		assert.Equal(t, tools.OriginUnknown, m.Origin)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, r.Names())
	assert.Equal(t, 3, r.Len())
}

func TestFormatForInjection(t *testing.T) {
	r, _ := newTestRegistry(t)
	assert.Equal(t, NoToolsSentinel, r.FormatForInjection())

	_, err := r.RegisterDynamic("add_two", addTwoSource, "Add two integers")
	require.NoError(t, err)
	require.NoError(t, r.Register("echo", echoBuiltin().Callable(), WithDescription("Echo text")))

	want := "add_two(a int, b int) int - Add two integers uses=0 success=0\n" +
		"echo() - Echo text uses=0 success=0"
	assert.Equal(t, want, r.FormatForInjection())
}

func TestAddTwoScenario(t *testing.T) {
	r, dir := newTestRegistry(t)

	def, err := r.RegisterDynamic("add_two", addTwoSource, "Add two integers")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "tool_add_two.go"), def.Path)

	written, err := os.ReadFile(def.Path)
	require.NoError(t, err)
	assert.Contains(t, string(written), addTwoSource)
	assert.Contains(t, string(written), "package tools")

	c, ok := r.Get("add_two")
	require.True(t, ok)
	got, err := c.Call(context.Background(), map[string]any{"a": 3, "b": 4})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Contains(t, r.FormatForInjection(), "uses=0 success=0")

	r.MarkUse("add_two", true)
	assert.Contains(t, r.FormatForInjection(), "add_two(a int, b int) int - Add two integers uses=1 success=1")
}

func TestRegisterDynamic_RejectsProcessExecution(t *testing.T) {
	r, dir := newTestRegistry(t)
	source := `import "os/exec"

func run(cmd string) string {
	out, _ := exec.Command(cmd).Output()
	return string(out)
}`

	_, err := r.RegisterDynamic("run", source, "run a command")
	require.Error(t, err)
	assert.Equal(t, validator.KindDisallowedImport, validator.KindOf(err))

	_, ok := r.Get("run")
	assert.False(t, ok)
	_, ok = r.Metadata("run")
	assert.False(t, ok)
	_, err = os.Stat(filepath.Join(dir, "tool_run.go"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, MetaFileName))
	assert.True(t, os.IsNotExist(err))
}

func TestRegisterDynamic_Resubmission(t *testing.T) {
	r, _ := newTestRegistry(t)
	_, err := r.RegisterDynamic("add_two", addTwoSource, "v1")
	require.NoError(t, err)
	r.MarkUse("add_two", true)

	_, err = r.RegisterDynamic("add_two", "func add_two(a int, b int) int { return a + b + 0 }", "v2")
	require.NoError(t, err)

	m, _ := r.Metadata("add_two")
	assert.Equal(t, "v2", m.Description)
	assert.Equal(t, int64(1), m.Uses, "counters survive replacement")
}

func TestPersistenceFailureIsNonFatal(t *testing.T) {
	base := t.TempDir()
	blocker := filepath.Join(base, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	r := New(filepath.Join(blocker, "tools"), validator.New(validator.Policy{}))
	require.NoError(t, r.Register("echo", echoBuiltin().Callable()))
	r.MarkUse("echo", true)

	_, err := r.RegisterDynamic("add_two", addTwoSource, "")
	require.NoError(t, err)

	_, ok := r.Get("add_two")
	assert.True(t, ok)
	m, _ := r.Metadata("echo")
	assert.Equal(t, int64(1), m.Uses)
}

func TestRegisterDynamic_ConcurrentResubmissionKeepsDiskAndCatalogInSync(t *testing.T) {
	const writers = 8
	for round := 0; round < 20; round++ {
		r, dir := newTestRegistry(t)

		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, err := r.RegisterDynamic("k", fmt.Sprintf("func k() int { return %d }", i), "")
				assert.NoError(t, err)
			}(i)
		}
		wg.Wait()

		c, ok := r.Get("k")
		require.True(t, ok)
		live, err := c.Call(context.Background(), nil)
		require.NoError(t, err)

		onDisk, err := os.ReadFile(filepath.Join(dir, "tool_k.go"))
		require.NoError(t, err)
		require.Contains(t, string(onDisk), fmt.Sprintf("return %d", live), "round %d", round)

		// a restart must come back with the same tool
		restarted := New(dir, validator.New(validator.Policy{}))
		_, err = restarted.Bootstrap(context.Background(), nil)
		require.NoError(t, err)
		rc, ok := restarted.Get("k")
		require.True(t, ok)
		got, err := rc.Call(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, live, got, "round %d", round)
	}
}
