package config

// ValidationConfig configures the static validator policy.
// Empty lists fall back to the validator's built-in defaults.
type ValidationConfig struct {
	AllowedImports []string `yaml:"allowed_imports,omitempty"`
	ForbiddenCalls []string `yaml:"forbidden_calls,omitempty"`
	MaxSourceChars int      `yaml:"max_source_chars"`
	MaxSourceLines int      `yaml:"max_source_lines"`
}
