package validator

import "strings"

// Policy is the static audit configuration. It is built once at process
// start and treated as read-only afterwards.
type Policy struct {
	// AllowedImports lists permitted import roots; "encoding" admits
	// "encoding/json" and "encoding/hex".
	AllowedImports []string

	// ForbiddenCalls lists call names rejected by bare identifier or
	// trailing selector, regardless of receiver.
	ForbiddenCalls []string

	MaxSourceChars int
	MaxSourceLines int
}

// DefaultPolicy returns the stock policy: pure computation and text
// processing only.
func DefaultPolicy() Policy {
	return Policy{
		AllowedImports: []string{
			"bytes", "encoding", "errors", "fmt", "math", "regexp",
			"sort", "strconv", "strings", "time", "unicode",
		},
		ForbiddenCalls: []string{
			// process execution
			"Command", "CommandContext", "StartProcess", "ForkExec", "Exec",
			"Syscall", "RawSyscall", "Exit",
			// dynamic evaluation
			"Eval", "EvalPath", "EvalWithContext",
			// filesystem
			"Open", "OpenFile", "Create", "ReadFile", "WriteFile", "ReadDir",
			"Remove", "RemoveAll", "Mkdir", "MkdirAll", "Setenv",
			// dynamic loading
			"Dlopen",
		},
		MaxSourceChars: 8000,
		MaxSourceLines: 300,
	}
}

// Merge returns p with every non-zero field of override applied.
func (p Policy) Merge(override Policy) Policy {
	if len(override.AllowedImports) > 0 {
		p.AllowedImports = override.AllowedImports
	}
	if len(override.ForbiddenCalls) > 0 {
		p.ForbiddenCalls = override.ForbiddenCalls
	}
	if override.MaxSourceChars > 0 {
		p.MaxSourceChars = override.MaxSourceChars
	}
	if override.MaxSourceLines > 0 {
		p.MaxSourceLines = override.MaxSourceLines
	}
	return p
}

// importRoot returns the first path element of an import path.
func importRoot(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
