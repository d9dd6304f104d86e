package tools

import "errors"

var (
	// ErrUnknownTool is returned when a tool is not registered.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil is returned when a tool has no implementation.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")

	// ErrInvalidArguments is returned when arguments do not match the
	// tool's parameters.
	ErrInvalidArguments = errors.New("invalid arguments")
)
