package main

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"toolforge/internal/builtin"
	"toolforge/internal/config"
	"toolforge/internal/forge"
	"toolforge/internal/logging"
	"toolforge/internal/metrics"
	"toolforge/internal/registry"
	"toolforge/internal/sandbox"
	"toolforge/internal/store"
	"toolforge/internal/validator"
)

// app is the wired object graph shared by the subcommands.
type app struct {
	svc     *forge.Service
	history *store.HistoryStore
}

func policyFromConfig(c *config.Config) validator.Policy {
	return validator.DefaultPolicy().Merge(validator.Policy{
		AllowedImports: c.Validation.AllowedImports,
		ForbiddenCalls: c.Validation.ForbiddenCalls,
		MaxSourceChars: c.Validation.MaxSourceChars,
		MaxSourceLines: c.Validation.MaxSourceLines,
	})
}

// openApp bootstraps the registry and builds the service. registerer is
// nil for one-shot commands, which do not export metrics.
func openApp(ctx context.Context, c *config.Config, registerer prometheus.Registerer) (*app, error) {
	reg := registry.New(c.ToolsDir(), validator.New(policyFromConfig(c)))
	report, err := reg.Bootstrap(ctx, builtin.Default())
	if err != nil {
		return nil, fmt.Errorf("bootstrap: %w", err)
	}
	logging.BootDebug("Bootstrap: builtins=%d loaded=%d skipped=%d removed=%d",
		len(report.Builtins), len(report.Loaded), len(report.Skipped), len(report.Removed))

	sb := sandbox.New(sandbox.Config{
		DefaultTimeout:    c.GetExecutionTimeout(),
		SlowCallThreshold: c.GetSlowCallThreshold(),
		StackFrames:       c.Execution.StackFrames,
	})

	opts := []forge.Option{forge.WithTimeout(c.GetExecutionTimeout())}
	a := &app{}
	if c.History.Enabled {
		h, err := store.NewHistoryStore(c.HistoryPath())
		if err != nil {
			logging.BootWarn("History disabled: %v", err)
		} else {
			a.history = h
			opts = append(opts, forge.WithHistory(h))
		}
	}
	if registerer != nil {
		m := metrics.New(registerer)
		m.ObserveBootstrap("loaded", len(report.Loaded))
		m.ObserveBootstrap("skipped", len(report.Skipped))
		m.ObserveBootstrap("removed", len(report.Removed))
		opts = append(opts, forge.WithMetrics(m))
	}

	a.svc = forge.NewService(reg, sb, opts...)
	return a, nil
}

func (a *app) Close() {
	if a.history != nil {
		_ = a.history.Close()
	}
}
