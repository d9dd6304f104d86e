package forge

import (
	"context"

	"toolforge/internal/action"
	"toolforge/internal/logging"
	"toolforge/internal/tools"
)

// ActResult is the outcome of one planner action.
type ActResult struct {
	Action *action.Action `json:"-"`

	// Result is the planner-facing invocation result for use_tool; failed
	// invocations appear here as ErrorResult.
	Result map[string]any `json:"result,omitempty"`

	// Definition is the accepted tool for propose_tool.
	Definition *tools.Definition `json:"-"`
}

// Act parses planner text and carries out the action in it. Parse errors
// and rejected proposals are returned as errors; invocation failures are
// folded into ActResult.Result so the planner can see them.
func (s *Service) Act(ctx context.Context, text string) (*ActResult, error) {
	act, err := action.Parse(text)
	if err != nil {
		logging.ServiceDebug("No usable action in planner output: %v", err)
		return nil, err
	}

	res := &ActResult{Action: act}
	switch act.Type {
	case action.TypeUseTool:
		out, err := s.Invoke(ctx, act.Name, act.Params)
		if err != nil {
			res.Result = ErrorResult(err)
		} else {
			res.Result = out
		}
	case action.TypeProposeTool:
		def, err := s.Submit(ctx, act.Name, act.Code, act.Desc)
		if err != nil {
			return res, err
		}
		res.Definition = &def
	}
	return res, nil
}
