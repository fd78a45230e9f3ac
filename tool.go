package goquad

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// ============================================================
// MCP Tool Interface
// ============================================================

type ToolRequest struct {
	Tool   string                 `json:"tool"`
	Params map[string]interface{} `json:"params"`
}

type ToolResponse struct {
	Result interface{} `json:"result,omitempty"`
	String string      `json:"string,omitempty"`
	Error  string      `json:"error,omitempty"`
	Kind   ErrorKind   `json:"kind,omitempty"`
}

// DefaultN is the subdivision count used when a caller does not give one.
const DefaultN = 1000

func (c *Coordinator) HandleToolCall(ctx context.Context, req ToolRequest) ToolResponse {
	getString := func(key string) (string, error) {
		v, ok := req.Params[key]
		if !ok {
			return "", fmt.Errorf("missing param: %s", key)
		}
		s, ok := v.(string)
		if !ok {
			return "", fmt.Errorf("param %s must be a string", key)
		}
		return s, nil
	}
	getNumber := func(key string) (float64, error) {
		v, ok := req.Params[key]
		if !ok {
			return 0, fmt.Errorf("missing param: %s", key)
		}
		f, ok := v.(float64)
		if !ok {
			return 0, fmt.Errorf("param %s must be a number", key)
		}
		return f, nil
	}
	getInt := func(key string, def int) (int, error) {
		v, ok := req.Params[key]
		if !ok {
			return def, nil
		}
		f, ok := v.(float64)
		if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
			return 0, fmt.Errorf("param %s must be an integer", key)
		}
		return int(f), nil
	}
	fail := func(err error) ToolResponse {
		return ToolResponse{Error: err.Error(), Kind: KindOf(err)}
	}

	switch req.Tool {
	case "integrate":
		a, err := getNumber("a")
		if err != nil {
			return fail(err)
		}
		b, err := getNumber("b")
		if err != nil {
			return fail(err)
		}
		n, err := getInt("n", DefaultN)
		if err != nil {
			return fail(err)
		}
		var report *Report
		if name, perr := getString("preset"); perr == nil {
			report, err = c.RunPreset(ctx, name, a, b, n)
		} else {
			formula, ferr := getString("formula")
			if ferr != nil {
				return fail(fmt.Errorf("one of formula or preset is required: %w", ferr))
			}
			report, err = c.Run(ctx, formula, a, b, n)
		}
		if err != nil {
			return fail(err)
		}
		lines := make([]string, len(report.Results))
		for i, r := range report.Results {
			lines[i] = r.String()
		}
		return ToolResponse{Result: report, String: strings.Join(lines, "\n")}

	case "evaluate":
		formula, err := getString("formula")
		if err != nil {
			return fail(err)
		}
		x, err := getNumber("x")
		if err != nil {
			return fail(err)
		}
		p := EvaluateAt(formula, x)
		res := map[string]interface{}{"valid": p.Valid, "value": nil}
		if p.Valid {
			res["value"] = p.Value
		}
		return ToolResponse{Result: res, String: p.String()}

	case "parse":
		formula, err := getString("formula")
		if err != nil {
			return fail(err)
		}
		f, err := Compile(formula)
		if err != nil {
			return fail(validationErr(KindMalformedExpression, err, "cannot compile %q", formula))
		}
		return ToolResponse{
			Result: map[string]interface{}{
				"source": f.Source(),
				"type":   TypeOf(f.Expr()),
				"tree":   f.Expr().toJSON(),
			},
			String: f.String(),
		}

	case "presets":
		ps := Presets()
		names := make([]string, len(ps))
		for i, p := range ps {
			names[i] = p.Name
		}
		return ToolResponse{Result: ps, String: strings.Join(names, ", ")}

	case "mcp_spec":
		return ToolResponse{Result: MCPToolSpec(), String: "MCP tool specification"}
	}

	return ToolResponse{Error: fmt.Sprintf("unknown tool: %s", req.Tool)}
}

// ============================================================
// MCP spec
// ============================================================

func MCPToolSpec() string {
	tools := []map[string]interface{}{
		ts("integrate", "Definite integral of f(x) over [a,b] by rectangle, trapezoidal, Simpson, Monte Carlo and Gauss-Legendre. Give formula or preset; n defaults to 1000",
			[]string{"a", "b"}, map[string]string{"formula": "string", "preset": "string", "a": "number", "b": "number", "n": "integer"}),
		ts("evaluate", "Evaluate a formula at x; invalid points return valid=false", []string{"formula", "x"}, map[string]string{"formula": "string", "x": "number"}),
		ts("parse", "Parse a formula and return its expression tree", []string{"formula"}, map[string]string{"formula": "string"}),
		ts("presets", "List named preset formulas", []string{}, map[string]string{}),
		ts("mcp_spec", "Return this tool schema", []string{}, map[string]string{}),
	}
	spec := map[string]interface{}{"tools": tools}
	b, _ := json.MarshalIndent(spec, "", "  ")
	return string(b)
}

func ts(name, description string, required []string, props map[string]string) map[string]interface{} {
	properties := map[string]interface{}{}
	for k, typ := range props {
		properties[k] = map[string]interface{}{"type": typ}
	}
	return map[string]interface{}{
		"name":        name,
		"description": description,
		"inputSchema": map[string]interface{}{
			"type":       "object",
			"properties": properties,
			"required":   required,
		},
	}
}
