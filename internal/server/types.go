package server

import (
	"toolforge/internal/registry"
	"toolforge/internal/store"
	"toolforge/internal/tools"
)

// SubmitRequest is the body of POST /v1/tools.
type SubmitRequest struct {
	Name        string `json:"name" binding:"required"`
	Code        string `json:"code" binding:"required"`
	Description string `json:"desc"`
}

// InvokeRequest is the body of POST /v1/tools/:name/invoke.
type InvokeRequest struct {
	Params map[string]any `json:"params"`
}

// ActRequest is the body of POST /v1/actions: raw planner output.
type ActRequest struct {
	Text string `json:"text" binding:"required"`
}

// ToolResponse describes one catalog entry.
type ToolResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Signature   string `json:"signature"`
	Origin      string `json:"origin"`
	Uses        int64  `json:"uses"`
	Success     int64  `json:"success"`
	Callable    bool   `json:"callable"`
}

// DefinitionResponse describes an accepted submission.
type DefinitionResponse struct {
	Name      string        `json:"name"`
	Signature string        `json:"signature"`
	Params    []tools.Param `json:"params"`
	Imports   []string      `json:"imports"`
	Path      string        `json:"path,omitempty"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
	Line  int    `json:"line,omitempty"`
}

// InvocationResponse is one history row.
type InvocationResponse struct {
	CallID     string `json:"call_id"`
	Tool       string `json:"tool"`
	Origin     string `json:"origin"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	ErrorKind  string `json:"error_kind,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	CreatedAt  string `json:"created_at"`
}

func toToolResponse(m registry.Metadata, callable bool) ToolResponse {
	return ToolResponse{
		Name:        m.Name,
		Description: m.Description,
		Signature:   m.Signature,
		Origin:      string(m.Origin),
		Uses:        m.Uses,
		Success:     m.Success,
		Callable:    callable,
	}
}

func toDefinitionResponse(def tools.Definition) DefinitionResponse {
	params := def.Params
	if params == nil {
		params = []tools.Param{}
	}
	imports := def.Imports
	if imports == nil {
		imports = []string{}
	}
	return DefinitionResponse{
		Name:      def.Name,
		Signature: def.Signature,
		Params:    params,
		Imports:   imports,
		Path:      def.Path,
	}
}

func toInvocationResponse(inv store.Invocation) InvocationResponse {
	return InvocationResponse{
		CallID:     inv.CallID,
		Tool:       inv.ToolName,
		Origin:     inv.Origin,
		Success:    inv.Success,
		Error:      inv.Error,
		ErrorKind:  inv.ErrorKind,
		DurationMs: inv.DurationMs,
		CreatedAt:  inv.CreatedAt.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
	}
}
