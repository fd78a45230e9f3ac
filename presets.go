package goquad

// Preset is a named formula. Name is for display; Formula is what compiles.
type Preset struct {
	Name    string `json:"name" yaml:"name"`
	Formula string `json:"formula" yaml:"formula"`
}

var presets = []Preset{
	{"x^2", "x**2"},
	{"x^3", "x**3"},
	{"sin(x)", "sin(x)"},
	{"cos(x)", "cos(x)"},
	{"tan(x)", "tan(x)"},
	{"exp(x)", "exp(x)"},
	{"ln(x)", "log(x)"},
	{"sqrt(x)", "sqrt(x)"},
	{"1/x", "1/x"},
	{"sinh(x)", "sinh(x)"},
	{"cosh(x)", "cosh(x)"},
	{"tanh(x)", "tanh(x)"},
	{"e^(-x^2)", "exp(-x**2)"},
	{"sin(x)/x", "sin(x)/x if x != 0 else 1"},
	{"x*sin(x)", "x*sin(x)"},
	{"x*cos(x)", "x*cos(x)"},
}

var presetIndex = func() map[string]string {
	m := make(map[string]string, len(presets))
	for _, p := range presets {
		m[p.Name] = p.Formula
	}
	return m
}()

// Presets returns the catalog in display order. The slice is a copy.
func Presets() []Preset {
	out := make([]Preset, len(presets))
	copy(out, presets)
	return out
}

// LookupPreset resolves a display name to its formula.
func LookupPreset(name string) (string, bool) {
	f, ok := presetIndex[name]
	return f, ok
}
