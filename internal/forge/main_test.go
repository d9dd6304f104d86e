package forge

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"toolforge/internal/builtin"
	"toolforge/internal/metrics"
	"toolforge/internal/registry"
	"toolforge/internal/sandbox"
	"toolforge/internal/store"
	"toolforge/internal/validator"
)

// workerEnv switches the test binary into built-in worker mode.
const workerEnv = "TOOLFORGE_FORGE_WORKER"

func TestMain(m *testing.M) {
	if os.Getenv(workerEnv) == "1" {
		if err := sandbox.Serve(context.Background(), os.Stdin, os.Stdout, builtin.Default(), 4); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(2)
		}
		os.Exit(0)
	}
	os.Exit(m.Run())
}

const addTwoSource = `func add_two(a, b int) int {
	return a + b
}`

type fixture struct {
	svc     *Service
	reg     *registry.Registry
	history *store.HistoryStore
	metrics *metrics.Metrics
	dir     string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()

	reg := registry.New(dir, validator.New(validator.DefaultPolicy()))
	_, err := reg.Bootstrap(context.Background(), builtin.Default())
	require.NoError(t, err)

	sb := sandbox.New(sandbox.Config{
		Worker: sandbox.WorkerCommand{
			Path: os.Args[0],
			Args: []string{"-test.run=^$"},
			Env:  append(os.Environ(), workerEnv+"=1"),
		},
		DefaultTimeout: 10 * time.Second,
	})

	history, err := store.NewHistoryStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { history.Close() })

	m := metrics.New(prometheus.NewRegistry())
	svc := NewService(reg, sb, WithHistory(history), WithMetrics(m))
	return &fixture{svc: svc, reg: reg, history: history, metrics: m, dir: dir}
}
