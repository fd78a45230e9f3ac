package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/njchilds90/goquad"
	"github.com/njchilds90/goquad/internal/config"
	"github.com/njchilds90/goquad/internal/metrics"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Engine.Seed = 5
	cfg.Engine.DefaultN = 40
	m := metrics.New(prometheus.NewRegistry(), "goquad")
	coord := goquad.NewCoordinator(append(cfg.Engine.CoordinatorOptions(), goquad.WithObserver(m))...)
	return New(cfg, coord, nil, m)
}

func do(t *testing.T, s *Server, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHandlers_Health(t *testing.T) {
	w := do(t, setupTestServer(t), "GET", "/health", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.NotEmpty(t, resp.Message)
}

func TestHandlers_Presets(t *testing.T) {
	w := do(t, setupTestServer(t), "GET", "/api/presets", "", "")
	require.Equal(t, http.StatusOK, w.Code)

	var got []goquad.Preset
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, goquad.Presets(), got)
}

func TestHandlers_Calculate(t *testing.T) {
	w := do(t, setupTestServer(t), "POST", "/api/calculate", "application/json",
		`{"function": "x**2", "a": 0, "b": 3, "n": 100}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Success  bool      `json:"success"`
		Function string    `json:"function"`
		Interval []float64 `json:"interval"`
		N        int       `json:"n"`
		Results  []struct {
			Method string   `json:"method"`
			Value  *float64 `json:"value"`
			Valid  bool     `json:"valid"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "x**2", resp.Function)
	assert.Equal(t, []float64{0, 3}, resp.Interval)
	assert.Equal(t, 100, resp.N)
	require.Len(t, resp.Results, 5)
	assert.Equal(t, "simpson", resp.Results[2].Method)
	require.NotNil(t, resp.Results[2].Value)
	assert.InDelta(t, 9.0, *resp.Results[2].Value, 1e-9)
}

func TestHandlers_CalculateDefaultN(t *testing.T) {
	w := do(t, setupTestServer(t), "POST", "/api/calculate", "application/json",
		`{"function": "x", "a": -1, "b": 1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp CalculateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 40, resp.N)
}

func TestHandlers_CalculateErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		kind string
	}{
		{"malformed json", `{"function":`, "invalid_parameter"},
		{"unknown field", `{"function":"x","a":0,"b":1,"extra":true}`, "invalid_parameter"},
		{"trailing data", `{"function":"x","a":0,"b":1} {}`, "invalid_parameter"},
		{"missing function", `{"a":0,"b":1}`, "invalid_parameter"},
		{"missing b", `{"function":"x","a":0}`, "invalid_parameter"},
		{"zero n", `{"function":"x","a":0,"b":1,"n":0}`, "invalid_parameter"},
		{"n above max", `{"function":"x","a":0,"b":1,"n":100000000}`, "invalid_parameter"},
		{"reversed", `{"function":"x","a":1,"b":0}`, "invalid_interval"},
		{"syntax", `{"function":"x +","a":0,"b":1}`, "malformed_expression"},
		{"forbidden", `{"function":"__import__('os')","a":0,"b":1}`, "malformed_expression"},
		{"undefined", `{"function":"log(x)","a":-5,"b":-1}`, "undefined_on_interval"},
	}
	s := setupTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, "POST", "/api/calculate", "application/json", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.NotEmpty(t, resp.Error)
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestHandlers_CalculateBodyTooLarge(t *testing.T) {
	s := setupTestServer(t)
	body := `{"function":"` + strings.Repeat("x", 2<<20) + `","a":0,"b":1}`
	w := do(t, s, "POST", "/api/calculate", "application/json", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandlers_CalculateForm(t *testing.T) {
	s := setupTestServer(t)

	preset := url.Values{"func_type": {"preset"}, "function": {"sin(x)/x"}, "a": {"-1"}, "b": {"1"}, "n": {"50"}}
	w := do(t, s, "POST", "/calculate", "application/x-www-form-urlencoded", preset.Encode())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp CalculateResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "sin(x)/x", resp.Function)
	assert.Equal(t, "sin(x)/x if x != 0 else 1", resp.Formula)
	assert.Equal(t, 50, resp.N)

	custom := url.Values{"func_type": {"custom"}, "custom_function": {"2*x"}, "a": {"0"}, "b": {"1"}, "n": {"10"}}
	w = do(t, s, "POST", "/calculate", "application/x-www-form-urlencoded", custom.Encode())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2*x", resp.Function)
}

func TestHandlers_CalculateFormErrors(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		kind   string
	}{
		{"bad func_type", url.Values{"func_type": {"other"}, "a": {"0"}, "b": {"1"}, "n": {"10"}}, "invalid_parameter"},
		{"custom without formula", url.Values{"func_type": {"custom"}, "a": {"0"}, "b": {"1"}, "n": {"10"}}, "invalid_parameter"},
		{"not a number", url.Values{"func_type": {"custom"}, "custom_function": {"x"}, "a": {"zero"}, "b": {"1"}, "n": {"10"}}, "invalid_parameter"},
		{"missing n", url.Values{"func_type": {"custom"}, "custom_function": {"x"}, "a": {"0"}, "b": {"1"}}, "invalid_parameter"},
		{"unknown preset", url.Values{"func_type": {"preset"}, "function": {"x^7"}, "a": {"0"}, "b": {"1"}, "n": {"10"}}, "unknown_preset"},
		{"reversed", url.Values{"func_type": {"preset"}, "function": {"x^2"}, "a": {"2"}, "b": {"1"}, "n": {"10"}}, "invalid_interval"},
	}
	s := setupTestServer(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, "POST", "/calculate", "application/x-www-form-urlencoded", tt.values.Encode())
			require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.kind, resp.Kind)
		})
	}
}

func TestHandlers_Tool(t *testing.T) {
	s := setupTestServer(t)
	body, err := json.Marshal(goquad.ToolRequest{Tool: "evaluate", Params: map[string]interface{}{"formula": "x+1", "x": 2}})
	require.NoError(t, err)
	w := do(t, s, "POST", "/tool", "application/json", string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var resp goquad.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
	assert.Equal(t, "3", resp.String)

	w = do(t, s, "POST", "/tool", "application/json", `{"tool":"presets","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, "GET", "/tool", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandlers_JSONBinding(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxBodyBytes = 64
	s := New(cfg, goquad.NewCoordinator(), nil, nil)

	tests := []struct {
		name string
		path string
		body string
	}{
		{"tool unknown field", "/tool", `{"tool":"presets","params":{},"extra":1}`},
		{"tool trailing value", "/tool", `{"tool":"presets"} {"tool":"presets"}`},
		{"tool empty body", "/tool", ``},
		{"calculate over limit", "/api/calculate", `{"function":"` + strings.Repeat("x+", 40) + `x","a":0,"b":1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, s, "POST", tt.path, "application/json", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}

	w := do(t, s, "POST", "/tool", "application/json", `{"tool":"presets"}`)
	require.Equal(t, http.StatusOK, w.Code)
	var resp goquad.ToolResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Error)
}

func TestHandlers_Schema(t *testing.T) {
	w := do(t, setupTestServer(t), "GET", "/schema", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, json.Valid(w.Body.Bytes()))
	assert.Equal(t, goquad.MCPToolSpec(), w.Body.String())
}

func TestHandlers_Metrics(t *testing.T) {
	s := setupTestServer(t)
	w := do(t, s, "POST", "/api/calculate", "application/json", `{"function":"x","a":0,"b":1,"n":4}`)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, "GET", "/metrics", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, bytes.Contains(w.Body.Bytes(), []byte(`goquad_run_total{status="ok"} 1`)))
}

func TestHandlers_NoMetricsRoute(t *testing.T) {
	cfg := config.DefaultConfig()
	s := New(cfg, goquad.NewCoordinator(), nil, nil)
	w := do(t, s, "GET", "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
