// Package registry is the durable tool catalog: name -> callable plus
// metadata, backed by a JSON metadata file and one source file per dynamic
// tool.
//
// Writers (Register, MarkUse, Bootstrap) serialize on a single mutex.
// Readers load an immutable snapshot and never block.
package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/validator"
)

// NoToolsSentinel is the injection text for an empty catalog.
const NoToolsSentinel = "(no tools registered)"

// state is an immutable catalog snapshot. Writers build a new one and swap
// it in; nothing reachable from a published state is mutated.
type state struct {
	callables map[string]tools.Callable
	records   map[string]Metadata
}

func (s *state) clone() *state {
	next := &state{
		callables: make(map[string]tools.Callable, len(s.callables)+1),
		records:   make(map[string]Metadata, len(s.records)+1),
	}
	for k, v := range s.callables {
		next.callables[k] = v
	}
	for k, v := range s.records {
		next.records[k] = v
	}
	return next
}

// Registry holds every known tool.
type Registry struct {
	mu    sync.Mutex // serializes writers and metadata persistence
	state atomic.Pointer[state]

	store     *MetaStore
	sources   *SourceDir
	validator *validator.Validator
}

// New creates a registry persisting to dir. Call Bootstrap before use to
// reconcile with what is on disk.
func New(dir string, v *validator.Validator) *Registry {
	if v == nil {
		v = validator.New(validator.Policy{})
	}
	r := &Registry{
		store:     NewMetaStore(dir),
		sources:   NewSourceDir(dir),
		validator: v,
	}
	r.state.Store(&state{
		callables: map[string]tools.Callable{},
		records:   map[string]Metadata{},
	})
	return r
}

// Register inserts or replaces the catalog entry for name. Supplied
// metadata fields are merged over the stored record, missing fields are
// defaulted, and the metadata file is rewritten. The last write wins.
func (r *Registry) Register(name string, callable tools.Callable, opts ...MetaOption) error {
	if name == "" {
		return tools.ErrToolNameEmpty
	}
	if callable == nil {
		return fmt.Errorf("register %s: %w", name, tools.ErrToolExecuteNil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.registerLocked(name, callable, opts)
	return nil
}

// registerLocked swaps in a snapshot holding callable and persists the
// metadata file. Caller holds mu.
func (r *Registry) registerLocked(name string, callable tools.Callable, opts []MetaOption) {
	next := r.state.Load().clone()
	r.put(next, name, callable, opts)
	r.state.Store(next)
	r.persist(next)

	logging.RegistryDebug("Registered tool: %s (trust=%s)", name, callable.Trust())
}

// put merges metadata and installs the callable into next. Caller holds mu.
func (r *Registry) put(next *state, name string, callable tools.Callable, opts []MetaOption) {
	var patch metaPatch
	for _, opt := range opts {
		opt(&patch)
	}
	rec, ok := next.records[name]
	if !ok {
		rec = Metadata{Name: name}
	}
	next.records[name] = patch.apply(rec)
	next.callables[name] = callable
}

// Get returns the callable registered under name.
func (r *Registry) Get(name string) (tools.Callable, bool) {
	c, ok := r.state.Load().callables[name]
	return c, ok
}

// Metadata returns the stored record for name, defaults filled.
func (r *Registry) Metadata(name string) (Metadata, bool) {
	m, ok := r.state.Load().records[name]
	return m, ok
}

// MarkUse increments the usage counters of name and persists immediately.
// Unknown names are ignored.
func (r *Registry) MarkUse(name string, success bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.state.Load()
	rec, ok := cur.records[name]
	if !ok {
		return
	}
	rec.Uses++
	if success {
		rec.Success++
	}

	next := &state{callables: cur.callables, records: make(map[string]Metadata, len(cur.records))}
	for k, v := range cur.records {
		next.records[k] = v
	}
	next.records[name] = rec
	r.state.Store(next)
	r.persist(next)
}

// List returns every metadata record sorted by name.
func (r *Registry) List() []Metadata {
	records := r.state.Load().records
	out := make([]Metadata, 0, len(records))
	for _, m := range records {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Names returns the names of callable tools, sorted.
func (r *Registry) Names() []string {
	return sortedNames(r.state.Load().callables)
}

func sortedNames(callables map[string]tools.Callable) []string {
	names := make([]string, 0, len(callables))
	for name := range callables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of callable tools.
func (r *Registry) Len() int {
	return len(r.state.Load().callables)
}

// FormatForInjection renders the callable tools for a planner prompt, one
// line per tool:
//
//	name(signature) - description uses=U success=S
func (r *Registry) FormatForInjection() string {
	snap := r.state.Load()
	if len(snap.callables) == 0 {
		return NoToolsSentinel
	}
	var sb strings.Builder
	for _, name := range sortedNames(snap.callables) {
		m, ok := snap.records[name]
		if !ok {
			m = Metadata{Name: name}.withDefaults()
		}
		sig := m.Signature
		if sig == "" {
			sig = "()"
		}
		if sb.Len() > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s%s - %s uses=%d success=%d", name, sig, m.Description, m.Uses, m.Success)
	}
	return sb.String()
}

// persist writes the metadata file. Failures are logged; in-memory state
// stays authoritative. Caller holds mu.
func (r *Registry) persist(s *state) {
	if err := r.store.Save(s.records); err != nil {
		logging.RegistryError("Failed to persist metadata: %v", err)
	}
}
