package config

// ExecutionConfig configures the execution sandbox.
type ExecutionConfig struct {
	// Hard timeout for worker-process tools, cooperative for in-process tools.
	DefaultTimeout string `yaml:"default_timeout"`

	// In-process calls running longer than this are logged.
	SlowCallThreshold string `yaml:"slow_call_threshold"`

	// Maximum stack frames kept in a crash summary.
	StackFrames int `yaml:"stack_frames"`
}
