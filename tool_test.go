package goquad_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/goquad"
)

func call(t *testing.T, tool string, params map[string]interface{}) goquad.ToolResponse {
	t.Helper()
	c := newTestCoordinator()
	return c.HandleToolCall(context.Background(), goquad.ToolRequest{Tool: tool, Params: params})
}

func TestTool_Integrate(t *testing.T) {
	resp := call(t, "integrate", map[string]interface{}{"formula": "x**2", "a": 0.0, "b": 1.0, "n": 10.0})
	require.Empty(t, resp.Error)
	rep, ok := resp.Result.(*goquad.Report)
	require.True(t, ok, "got %T", resp.Result)
	assert.Equal(t, 10, rep.N)
	assert.Len(t, strings.Split(resp.String, "\n"), 5)
	assert.True(t, strings.HasPrefix(resp.String, "rectangle: "))
}

func TestTool_IntegrateDefaultsN(t *testing.T) {
	resp := call(t, "integrate", map[string]interface{}{"preset": "cos(x)", "a": 0.0, "b": 1.0})
	require.Empty(t, resp.Error)
	rep := resp.Result.(*goquad.Report)
	assert.Equal(t, goquad.DefaultN, rep.N)
	assert.Equal(t, "cos(x)", rep.Formula)
}

func TestTool_IntegrateErrors(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		kind   goquad.ErrorKind
		msg    string
	}{
		{"missing a", map[string]interface{}{"formula": "x", "b": 1.0}, "", "missing param: a"},
		{"string b", map[string]interface{}{"formula": "x", "a": 0.0, "b": "1"}, "", "must be a number"},
		{"fractional n", map[string]interface{}{"formula": "x", "a": 0.0, "b": 1.0, "n": 2.5}, "", "must be an integer"},
		{"no formula", map[string]interface{}{"a": 0.0, "b": 1.0}, "", "one of formula or preset"},
		{"reversed", map[string]interface{}{"formula": "x", "a": 1.0, "b": 0.0}, goquad.KindInvalidInterval, "invalid interval"},
		{"zero n", map[string]interface{}{"formula": "x", "a": 0.0, "b": 1.0, "n": 0.0}, goquad.KindInvalidParameter, "n must be at least 1"},
		{"bad formula", map[string]interface{}{"formula": "x +", "a": 0.0, "b": 1.0}, goquad.KindMalformedExpression, "column 4"},
		{"undefined", map[string]interface{}{"formula": "log(x)", "a": -2.0, "b": -1.0}, goquad.KindUndefinedOnInterval, "undefined"},
		{"unknown preset", map[string]interface{}{"preset": "nope", "a": 0.0, "b": 1.0}, goquad.KindUnknownPreset, "unknown preset"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := call(t, "integrate", tt.params)
			assert.Nil(t, resp.Result)
			assert.Equal(t, tt.kind, resp.Kind)
			assert.Contains(t, resp.Error, tt.msg)
		})
	}
}

func TestTool_Evaluate(t *testing.T) {
	resp := call(t, "evaluate", map[string]interface{}{"formula": "x*2", "x": 1.5})
	require.Empty(t, resp.Error)
	assert.Equal(t, map[string]interface{}{"valid": true, "value": 3.0}, resp.Result)
	assert.Equal(t, "3", resp.String)

	resp = call(t, "evaluate", map[string]interface{}{"formula": "log(x)", "x": -1.0})
	assert.Equal(t, map[string]interface{}{"valid": false, "value": nil}, resp.Result)
	assert.Equal(t, "invalid", resp.String)
}

func TestTool_Parse(t *testing.T) {
	resp := call(t, "parse", map[string]interface{}{"formula": "sin(x)+1"})
	require.Empty(t, resp.Error)
	assert.Equal(t, "(sin(x) + 1)", resp.String)

	b, err := json.Marshal(resp.Result)
	require.NoError(t, err)
	var parsed struct {
		Source string                 `json:"source"`
		Type   string                 `json:"type"`
		Tree   map[string]interface{} `json:"tree"`
	}
	require.NoError(t, json.Unmarshal(b, &parsed))
	assert.Equal(t, "sin(x)+1", parsed.Source)
	assert.Equal(t, "binary", parsed.Type)
	assert.Equal(t, "+", parsed.Tree["op"])

	resp = call(t, "parse", map[string]interface{}{"formula": "x y"})
	assert.Equal(t, goquad.KindMalformedExpression, resp.Kind)
}

func TestTool_PresetsAndSpec(t *testing.T) {
	resp := call(t, "presets", nil)
	assert.Len(t, resp.Result, len(goquad.Presets()))
	assert.Contains(t, resp.String, "x^2, x^3")

	resp = call(t, "mcp_spec", nil)
	var spec struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	require.NoError(t, json.Unmarshal([]byte(resp.Result.(string)), &spec))
	names := make([]string, len(spec.Tools))
	for i, tool := range spec.Tools {
		names[i] = tool.Name
	}
	assert.Equal(t, []string{"integrate", "evaluate", "parse", "presets", "mcp_spec"}, names)
}

func TestTool_Unknown(t *testing.T) {
	resp := call(t, "differentiate", nil)
	assert.Equal(t, "unknown tool: differentiate", resp.Error)
}
