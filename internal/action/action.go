// Package action extracts planner decisions from free-form model output.
//
// A planner answers with a JSON object somewhere in its text:
//
//	{"action":"use_tool","name":"add_two","params":{"a":3,"b":4}}
//	{"action":"propose_tool","name":"add_two","code":"func add_two(a, b int) int { return a + b }","desc":"adds"}
//
// Everything from the first '{' to the last '}' is taken as the object.
package action

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrNoAction is returned when the text holds no parseable JSON object.
	ErrNoAction = errors.New("no action found")

	// ErrUnknownAction is returned for an object whose action is not recognized.
	ErrUnknownAction = errors.New("unknown action")

	// ErrIncomplete is returned when a recognized action misses a required field.
	ErrIncomplete = errors.New("incomplete action")
)

// Type names a planner action.
type Type string

const (
	TypeUseTool     Type = "use_tool"
	TypeProposeTool Type = "propose_tool"
)

// Action is one parsed planner decision. Params is set for use_tool; Code
// and Desc for propose_tool.
type Action struct {
	Type   Type
	Name   string
	Params map[string]any
	Code   string
	Desc   string
}

// Extract returns the JSON object candidate in text: the text itself when
// it starts with '{', otherwise the span from the first '{' to the last '}'.
func Extract(text string) (string, bool) {
	s := strings.TrimSpace(text)
	if s == "" {
		return "", false
	}
	if !strings.HasPrefix(s, "{") {
		i := strings.IndexByte(s, '{')
		j := strings.LastIndexByte(s, '}')
		if i < 0 || j <= i {
			return "", false
		}
		s = s[i : j+1]
	}
	if !gjson.Valid(s) {
		return "", false
	}
	return s, true
}

// Parse extracts and decodes the planner action in text.
func Parse(text string) (*Action, error) {
	raw, ok := Extract(text)
	if !ok {
		return nil, ErrNoAction
	}
	obj := gjson.Parse(raw)
	if !obj.IsObject() {
		return nil, ErrNoAction
	}

	act := &Action{
		Type: Type(obj.Get("action").String()),
		Name: strings.TrimSpace(obj.Get("name").String()),
	}

	switch act.Type {
	case TypeUseTool:
		if act.Name == "" {
			return nil, fmt.Errorf("%w: use_tool without name", ErrIncomplete)
		}
		act.Params = map[string]any{}
		if p := obj.Get("params"); p.IsObject() {
			if m, ok := p.Value().(map[string]any); ok {
				act.Params = m
			}
		}
	case TypeProposeTool:
		act.Code = obj.Get("code").String()
		act.Desc = obj.Get("desc").String()
		if act.Name == "" || strings.TrimSpace(act.Code) == "" {
			return nil, fmt.Errorf("%w: propose_tool needs name and code", ErrIncomplete)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, act.Type)
	}
	return act, nil
}
