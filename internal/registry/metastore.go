package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"toolforge/internal/logging"
)

// MetaFileName is the metadata file inside the tools directory.
const MetaFileName = "tools_meta.json"

// MetaStore persists metadata records as one JSON object keyed by tool name.
type MetaStore struct {
	path string
}

// NewMetaStore creates a store for the metadata file in dir.
func NewMetaStore(dir string) *MetaStore {
	return &MetaStore{path: filepath.Join(dir, MetaFileName)}
}

// Path returns the metadata file path.
func (s *MetaStore) Path() string {
	return s.path
}

// Load reads every record. A missing file yields an empty map; an
// unreadable or corrupt file yields an empty map and an error.
func (s *MetaStore) Load() (map[string]Metadata, error) {
	records := make(map[string]Metadata)

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return records, nil
		}
		return records, fmt.Errorf("failed to read metadata: %w", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return records, fmt.Errorf("failed to parse metadata %s: %w", s.path, err)
	}
	for name, value := range raw {
		fields, ok := value.(map[string]any)
		if !ok {
			logging.RegistryWarn("Metadata record %q is not an object, using defaults", name)
			fields = nil
		}
		records[name] = metadataFromRaw(name, fields)
	}
	return records, nil
}

// Save writes all records atomically.
func (s *MetaStore) Save(records map[string]Metadata) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	return writeFileAtomic(s.path, append(data, '\n'))
}

// writeFileAtomic replaces path via a temp file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
