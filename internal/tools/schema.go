package tools

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type  string         `json:"type,omitempty"`
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type,omitempty"`
}

// ToolSchema is the JSON schema of a tool's keyword arguments.
type ToolSchema struct {
	Type                 string              `json:"type"`
	Properties           map[string]Property `json:"properties"`
	Required             []string            `json:"required"`
	AdditionalProperties bool                `json:"additionalProperties"`
}

// SchemaFor builds the argument schema for a parameter list. Every
// parameter is required and unknown keys are rejected.
func SchemaFor(params []Param) ToolSchema {
	s := ToolSchema{
		Type:       "object",
		Properties: make(map[string]Property, len(params)),
		Required:   make([]string, 0, len(params)),
	}
	for _, p := range params {
		s.Properties[p.Name] = propertyFor(p.Type)
		s.Required = append(s.Required, p.Name)
	}
	return s
}

// ValidateArgs checks args against the schema derived from params.
func ValidateArgs(params []Param, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(SchemaFor(params)),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArguments, err)
	}
	if result.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidArguments, strings.Join(msgs, "; "))
}

func propertyFor(goType string) Property {
	t := jsonType(goType)
	p := Property{Type: t}
	if t == "array" {
		elem := goType[strings.Index(goType, "]")+1:]
		if et := jsonType(elem); et != "" {
			p.Items = &PropertyItems{Type: et}
		}
	}
	return p
}

// jsonType maps a Go type expression onto a JSON schema type. An empty
// result leaves the value unconstrained.
func jsonType(goType string) string {
	switch goType {
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "byte", "rune":
		return "integer"
	case "float32", "float64":
		return "number"
	case "string":
		return "string"
	case "bool":
		return "boolean"
	}
	switch {
	case strings.HasPrefix(goType, "["):
		return "array"
	case strings.HasPrefix(goType, "map["), strings.HasPrefix(goType, "struct"):
		return "object"
	}
	return ""
}
