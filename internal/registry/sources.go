package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"toolforge/internal/tools"
)

const (
	sourcePrefix = "tool_"
	sourceSuffix = ".go"
)

// SourceDir holds one source file per dynamic tool.
type SourceDir struct {
	dir string
}

func NewSourceDir(dir string) *SourceDir {
	return &SourceDir{dir: dir}
}

// Path returns the backing file for a tool name.
func (s *SourceDir) Path(name string) string {
	return filepath.Join(s.dir, sourcePrefix+name+sourceSuffix)
}

// Write persists the canonical artifact for def, replacing any previous file.
func (s *SourceDir) Write(def tools.Definition) error {
	return writeFileAtomic(s.Path(def.Name), []byte(renderSource(def)))
}

// Scan returns tool name -> path for every tool_<name>.go file. A missing
// directory is not an error.
func (s *SourceDir) Scan() (map[string]string, error) {
	found := make(map[string]string)
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return found, nil
		}
		return found, fmt.Errorf("failed to read tools directory: %w", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		file := entry.Name()
		if !strings.HasPrefix(file, sourcePrefix) || !strings.HasSuffix(file, sourceSuffix) {
			continue
		}
		name := strings.TrimSuffix(strings.TrimPrefix(file, sourcePrefix), sourceSuffix)
		if name == "" {
			continue
		}
		found[name] = filepath.Join(s.dir, file)
	}
	return found, nil
}

// renderSource produces a standalone Go file: a marker comment, package
// clause, the validated imports and the canonical function. Bootstrap
// feeds the whole file back through the validator.
func renderSource(def tools.Definition) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "// dynamic tool: %s\npackage tools\n\n", def.Name)
	switch len(def.Imports) {
	case 0:
	case 1:
		fmt.Fprintf(&sb, "import %s\n\n", def.Imports[0])
	default:
		sb.WriteString("import (\n")
		for _, spec := range def.Imports {
			fmt.Fprintf(&sb, "\t%s\n", spec)
		}
		sb.WriteString(")\n\n")
	}
	sb.WriteString(def.Source)
	sb.WriteByte('\n')
	return sb.String()
}
