package registry

import (
	"toolforge/internal/logging"
	"toolforge/internal/tools"
)

// RegisterDynamic validates source, writes its canonical artifact to the
// tools directory and registers it. Validation errors are returned and
// leave no trace on disk or in the catalog. A failed file write is logged;
// the tool stays registered for this process.
func (r *Registry) RegisterDynamic(name, source, description string) (tools.Definition, error) {
	fn, err := r.validator.Validate(source, name)
	if err != nil {
		logging.Registry("Rejected tool %s: %v", name, err)
		return tools.Definition{}, err
	}

	def := fn.Definition()
	def.Description = description
	def.Path = r.sources.Path(name)

	// The source file and the catalog entry change under one lock so the
	// last submission wins on disk and in memory alike.
	r.mu.Lock()
	if err := r.sources.Write(def); err != nil {
		logging.RegistryError("Failed to write source for %s: %v", name, err)
	}
	r.registerLocked(name, fn, []MetaOption{
		WithDescription(description),
		WithSignature(def.Signature),
		WithOrigin(tools.OriginDynamic),
	})
	r.mu.Unlock()

	logging.Registry("Registered dynamic tool %s%s", name, def.Signature)
	return def, nil
}

// SourcePath returns where a dynamic tool's source is stored.
func (r *Registry) SourcePath(name string) string {
	return r.sources.Path(name)
}
