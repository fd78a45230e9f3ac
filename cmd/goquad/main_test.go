package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/goquad"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("GOQUAD_LOG_LEVEL", "error")
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestIntegrate_Table(t *testing.T) {
	out, err := execute(t, "integrate", "x**2", "--a", "0", "--b", "3", "--n", "100", "--seed", "1")
	require.NoError(t, err)
	for _, m := range goquad.Methods {
		assert.Contains(t, out, m.Title())
	}
	assert.Contains(t, out, "x**2")
	// Simpson and Gauss-Legendre are exact here
	assert.Contains(t, out, "9")
}

func TestIntegrate_JSON(t *testing.T) {
	out, err := execute(t, "integrate", "--preset", "x^2", "--a=-1", "--b", "1", "--n", "10", "--json", "--seed", "2")
	require.NoError(t, err)

	var rep struct {
		Formula  string    `json:"formula"`
		Interval []float64 `json:"interval"`
		N        int       `json:"n"`
		Results  []struct {
			Method string  `json:"method"`
			Value  float64 `json:"value"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.Equal(t, "x**2", rep.Formula)
	assert.Equal(t, []float64{-1, 1}, rep.Interval)
	assert.Equal(t, 10, rep.N)
	require.Len(t, rep.Results, 5)
	assert.InDelta(t, 2.0/3.0, rep.Results[4].Value, 1e-12)
}

func TestIntegrate_DegradedFootnote(t *testing.T) {
	// Simpson's middle grid point and the centre 3-point Gauss node both
	// land on x = 0.
	out, err := execute(t, "integrate", "1/x", "--a=-1", "--b", "1", "--n", "3", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped points")
	assert.Contains(t, out, "invalid")

	// The 2-point nodes avoid the pole, so every method stays valid.
	out, err = execute(t, "integrate", "1/x", "--a=-1", "--b", "1", "--n", "2", "--seed", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "skipped points")
	assert.NotContains(t, out, "invalid")
}

func TestIntegrate_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want error
	}{
		{"reversed", []string{"integrate", "x", "--a", "2", "--b", "1"}, goquad.ErrInvalidInterval},
		{"undefined", []string{"integrate", "log(x)", "--a=-5", "--b=-1"}, goquad.ErrUndefinedOnInterval},
		{"malformed", []string{"integrate", "x +"}, goquad.ErrMalformedExpression},
		{"zero n", []string{"integrate", "x", "--n", "0"}, goquad.ErrInvalidParameter},
		{"unknown preset", []string{"integrate", "--preset", "nope"}, goquad.ErrUnknownPreset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := execute(t, "integrate")
	assert.ErrorContains(t, err, "exactly one")
	_, err = execute(t, "integrate", "x", "--preset", "x^2")
	assert.ErrorContains(t, err, "exactly one")
}

func TestEval(t *testing.T) {
	out, err := execute(t, "eval", "sqrt(x)", "--x", "16")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)

	out, err = execute(t, "eval", "log(x)", "--x=-1")
	require.NoError(t, err)
	assert.Contains(t, out, "invalid")

	_, err = execute(t, "eval", "y")
	assert.Error(t, err)
}

func TestPresets(t *testing.T) {
	out, err := execute(t, "presets")
	require.NoError(t, err)
	for _, p := range goquad.Presets() {
		assert.Contains(t, out, p.Formula)
	}
	assert.Equal(t, len(goquad.Presets())+1, strings.Count(out, "\n"))
}

func TestBadConfig(t *testing.T) {
	t.Setenv("GOQUAD_MAX_N", "many")
	_, err := execute(t, "presets")
	assert.Error(t, err)
}
