package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"testing"
	"time"

	"go.uber.org/goleak"

	"toolforge/internal/tools"
)

// workerEnv switches the test binary into worker mode.
const workerEnv = "TOOLFORGE_SANDBOX_WORKER"

func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		if err := Serve(context.Background(), os.Stdin, os.Stdout, testBuiltins(), 4); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Exit(0)
	}
	goleak.VerifyTestMain(m)
}

func testBuiltins() []tools.Builtin {
	return []tools.Builtin{
		{
			Name:   "double",
			Params: []tools.Param{{Name: "n", Type: "int"}},
			Fn: func(_ context.Context, args map[string]any) (any, error) {
				n, _ := args["n"].(float64)
				return n * 2, nil
			},
		},
		{
			Name:   "describe",
			Params: []tools.Param{{Name: "word", Type: "string"}},
			Fn: func(_ context.Context, args map[string]any) (any, error) {
				w := args["word"].(string)
				return map[string]any{"word": w, "length": len(w)}, nil
			},
		},
		{
			Name:   "hang",
			Params: []tools.Param{{Name: "pidfile", Type: "string"}},
			Fn: func(_ context.Context, args map[string]any) (any, error) {
				pid := strconv.Itoa(os.Getpid())
				if err := os.WriteFile(args["pidfile"].(string), []byte(pid), 0644); err != nil {
					return nil, err
				}
				time.Sleep(time.Hour)
				return nil, nil
			},
		},
		{
			Name: "boom",
			Fn: func(context.Context, map[string]any) (any, error) {
				panic("kaboom")
			},
		},
		{
			Name: "fails",
			Fn: func(context.Context, map[string]any) (any, error) {
				return nil, errors.New("bad input\nsecond line")
			},
		},
		{
			Name: "silent",
			Fn: func(context.Context, map[string]any) (any, error) {
				os.Exit(0)
				return nil, nil
			},
		},
	}
}

func testWorker(t *testing.T) WorkerCommand {
	t.Helper()
	return WorkerCommand{
		Path: os.Args[0],
		Args: []string{"-test.run=^$"},
		Env:  append(os.Environ(), workerEnv+"=1"),
	}
}

func builtinCallable(t *testing.T, name string) tools.Callable {
	t.Helper()
	for _, b := range testBuiltins() {
		if b.Name == name {
			return b.Callable()
		}
	}
	// a built-in the worker does not know
	return tools.Builtin{Name: name, Fn: func(context.Context, map[string]any) (any, error) { return nil, nil }}.Callable()
}
