// Package forge is the facade hosts talk to: submit candidate tools,
// invoke registered ones and dispatch planner actions.
package forge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"toolforge/internal/logging"
	"toolforge/internal/metrics"
	"toolforge/internal/registry"
	"toolforge/internal/sandbox"
	"toolforge/internal/store"
	"toolforge/internal/tools"
	"toolforge/internal/validator"
)

// Service wires the registry, sandbox and optional history and metrics.
type Service struct {
	registry *registry.Registry
	sandbox  *sandbox.Sandbox
	history  *store.HistoryStore
	metrics  *metrics.Metrics
	timeout  time.Duration
}

// Option configures a Service.
type Option func(*Service)

// WithHistory records every invocation in h.
func WithHistory(h *store.HistoryStore) Option {
	return func(s *Service) { s.history = h }
}

// WithMetrics reports submissions and invocations to m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTimeout sets the per-invocation timeout; zero uses the sandbox default.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// NewService creates a Service over an already bootstrapped registry.
func NewService(reg *registry.Registry, sb *sandbox.Sandbox, opts ...Option) *Service {
	s := &Service{registry: reg, sandbox: sb}
	for _, opt := range opts {
		opt(s)
	}
	s.refreshGauge()
	return s
}

// Registry exposes the underlying catalog.
func (s *Service) Registry() *registry.Registry {
	return s.registry
}

// History returns the history store, or nil when history is disabled.
func (s *Service) History() *store.HistoryStore {
	return s.history
}

// Submit validates source and registers it as a dynamic tool. Validation
// failures are returned as *validator.Error and change nothing.
func (s *Service) Submit(ctx context.Context, name, source, description string) (tools.Definition, error) {
	if err := ctx.Err(); err != nil {
		return tools.Definition{}, err
	}

	def, err := s.registry.RegisterDynamic(name, source, description)
	if err != nil {
		outcome := "error"
		if kind := validator.KindOf(err); kind != "" {
			outcome = string(kind)
		}
		s.metrics.ObserveValidation(outcome)
		logging.Service("Submit %s rejected: %v", name, err)
		return tools.Definition{}, err
	}

	s.metrics.ObserveValidation("accepted")
	s.refreshGauge()
	logging.Service("Submit %s accepted %s", name, def.Signature)
	return def, nil
}

// Invoke runs a registered tool and returns its normalized result.
//
// An unknown name returns tools.ErrUnknownTool and changes nothing. Every
// other outcome marks one use (successful or not), is recorded in history
// and is counted in metrics.
func (s *Service) Invoke(ctx context.Context, name string, args map[string]any) (map[string]any, error) {
	c, ok := s.registry.Get(name)
	if !ok {
		logging.ServiceWarn("Invoke of unknown tool %s", name)
		return nil, fmt.Errorf("%w: %s", tools.ErrUnknownTool, name)
	}
	origin := tools.OriginUnknown
	if m, ok := s.registry.Metadata(name); ok {
		origin = m.Origin
	}

	callID := uuid.NewString()
	log := logging.Get(logging.CategoryService).With("call_id", callID, "tool", name)
	log.Debug("Invoking %s (trust=%s)", name, c.Trust())

	start := time.Now()
	raw, err := s.sandbox.Execute(ctx, c, args, s.timeout)
	elapsed := time.Since(start)

	s.registry.MarkUse(name, err == nil)

	var result map[string]any
	if err == nil {
		result = Normalize(raw)
		log.Info("Invocation succeeded in %v", elapsed)
	} else {
		log.Warn("Invocation failed in %v: %v", elapsed, err)
	}

	status := StatusSuccess
	if err != nil {
		status = errorKind(err)
	}
	s.metrics.ObserveInvocation(name, string(origin), status, elapsed)
	s.record(callID, name, origin, args, result, err, elapsed)

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) record(callID, name string, origin tools.Origin, args, result map[string]any, err error, elapsed time.Duration) {
	if s.history == nil {
		return
	}
	inv := store.Invocation{
		CallID:     callID,
		ToolName:   name,
		Origin:     string(origin),
		Args:       marshalOrEmpty(args),
		Success:    err == nil,
		DurationMs: elapsed.Milliseconds(),
	}
	if err != nil {
		inv.Error = firstLine(err.Error())
		inv.ErrorKind = errorKind(err)
	} else {
		inv.Result = marshalOrEmpty(result)
	}
	if rerr := s.history.Record(inv); rerr != nil {
		logging.ServiceWarn("Failed to record invocation %s: %v", callID, rerr)
	}
}

// errorKind names an invocation failure for history and metrics.
func errorKind(err error) string {
	var execErr *sandbox.ExecError
	switch {
	case errors.As(err, &execErr):
		return string(execErr.Kind)
	case errors.Is(err, tools.ErrInvalidArguments):
		return "InvalidArguments"
	case errors.Is(err, tools.ErrUnknownTool):
		return "UnknownTool"
	default:
		return "Error"
	}
}

func (s *Service) refreshGauge() {
	if s.metrics == nil {
		return
	}
	counts := map[tools.Origin]int{tools.OriginBuiltin: 0, tools.OriginDynamic: 0}
	for _, name := range s.registry.Names() {
		if m, ok := s.registry.Metadata(name); ok {
			counts[m.Origin]++
		}
	}
	for origin, n := range counts {
		s.metrics.SetRegistered(string(origin), n)
	}
}

func marshalOrEmpty(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
