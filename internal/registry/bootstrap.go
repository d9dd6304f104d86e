package registry

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"toolforge/internal/logging"
	"toolforge/internal/tools"
	"toolforge/internal/validator"
)

// BootstrapReport summarizes one reconciliation pass.
type BootstrapReport struct {
	Builtins []string
	Loaded   []string
	// Skipped maps tool name to the reason its source was not registered.
	Skipped map[string]string
	Removed []string
}

type revalidated struct {
	name string
	fn   *validator.Func
	err  error
}

// Bootstrap reconciles the catalog with disk:
//
//  1. load the metadata file (corrupt or unreadable means empty)
//  2. register built-ins without validation
//  3. re-validate every tool_<name>.go and register the ones that pass
//  4. drop dynamic records whose source file is gone
//  5. persist if anything changed
//
// Individual failures are logged and skipped; only context cancellation
// aborts the pass.
func (r *Registry) Bootstrap(ctx context.Context, builtins []tools.Builtin) (*BootstrapReport, error) {
	timer := logging.StartTimer(logging.CategoryBoot, "registry bootstrap")
	defer timer.Stop()

	report := &BootstrapReport{Skipped: map[string]string{}}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 1. metadata
	records, err := r.store.Load()
	if err != nil {
		logging.BootWarn("Ignoring unreadable metadata: %v", err)
	}
	next := &state{callables: map[string]tools.Callable{}, records: records}
	dirty := false

	// 2. built-ins
	for _, b := range builtins {
		if err := b.Validate(); err != nil {
			logging.BootWarn("Skipping invalid built-in %q: %v", b.Name, err)
			continue
		}
		before, existed := next.records[b.Name]
		r.put(next, b.Name, b.Callable(), []MetaOption{
			WithDescription(b.Description),
			WithSignature(b.Signature()),
			WithOrigin(tools.OriginBuiltin),
		})
		if !existed || before != next.records[b.Name] {
			dirty = true
		}
		report.Builtins = append(report.Builtins, b.Name)
	}

	// 3. dynamic sources, validated concurrently, registered in name order
	files, err := r.sources.Scan()
	if err != nil {
		logging.BootWarn("Could not scan tool sources: %v", err)
	}
	results, err := r.revalidate(ctx, files)
	if err != nil {
		return nil, err
	}
	for _, res := range results {
		if res.err != nil {
			logging.BootWarn("Skipping tool %s: %v", res.name, res.err)
			report.Skipped[res.name] = res.err.Error()
			continue
		}
		before, existed := next.records[res.name]
		r.put(next, res.name, res.fn, []MetaOption{
			WithSignature(res.fn.Definition().Signature),
			WithOrigin(tools.OriginDynamic),
		})
		if !existed || before != next.records[res.name] {
			dirty = true
		}
		report.Loaded = append(report.Loaded, res.name)
	}

	// 4. orphan GC: only dynamic records are backed by files
	for name, rec := range next.records {
		if rec.Origin != tools.OriginDynamic {
			continue
		}
		if _, ok := files[name]; ok {
			continue
		}
		delete(next.records, name)
		report.Removed = append(report.Removed, name)
		dirty = true
	}
	sort.Strings(report.Removed)

	r.state.Store(next)

	// 5. persist
	if dirty {
		r.persist(next)
	}

	logging.Boot("Registry bootstrap: %d built-ins, %d dynamic, %d skipped, %d orphans removed",
		len(report.Builtins), len(report.Loaded), len(report.Skipped), len(report.Removed))
	return report, nil
}

// revalidate reads and validates every source file, never trusting prior
// compiled state. Results are sorted by name.
func (r *Registry) revalidate(ctx context.Context, files map[string]string) ([]revalidated, error) {
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make([]revalidated, len(names))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = r.validateFile(name, files[name])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("bootstrap interrupted: %w", err)
	}
	return results, nil
}

func (r *Registry) validateFile(name, path string) revalidated {
	data, err := os.ReadFile(path)
	if err != nil {
		return revalidated{name: name, err: err}
	}
	fn, err := r.validator.Validate(string(data), name)
	if err != nil {
		return revalidated{name: name, err: err}
	}
	return revalidated{name: name, fn: fn}
}
