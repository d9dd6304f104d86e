package forge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"toolforge/internal/action"
	"toolforge/internal/validator"
)

func TestAct_ProposeThenUse(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	propose := `Here is a new tool:
{"action":"propose_tool","name":"add_two","code":"func add_two(a, b int) int {\n\treturn a + b\n}","desc":"Add two integers"}`
	res, err := f.svc.Act(ctx, propose)
	require.NoError(t, err)
	require.NotNil(t, res.Definition)
	assert.Equal(t, "add_two", res.Definition.Name)
	assert.Nil(t, res.Result)

	res, err = f.svc.Act(ctx, `{"action":"use_tool","name":"add_two","params":{"a":3,"b":4}}`)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "success", "data": 7}, res.Result)
}

func TestAct_FailuresFoldIntoResult(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Act(context.Background(), `{"action":"use_tool","name":"missing","params":{}}`)
	require.NoError(t, err)
	assert.Equal(t, "error", res.Result["status"])
	assert.Contains(t, res.Result["reason"], "unknown tool")
}

func TestAct_Errors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Act(ctx, "just chatting")
	assert.ErrorIs(t, err, action.ErrNoAction)

	_, err = f.svc.Act(ctx, `{"action":"propose_tool","name":"bad","code":"func bad() { defer println() }"}`)
	require.Error(t, err)
	assert.Equal(t, validator.KindForbiddenConstruct, validator.KindOf(err))
}
