// Package goquad provides a multi-method numerical quadrature engine for Go.
//
// Design goals:
//   - Untrusted formula text compiled to an explicit expression tree
//   - Five independent rules: midpoint, trapezoidal, Simpson, Monte Carlo,
//     Gauss-Legendre
//   - Invalid points are data, not panics or NaN sentinels
//   - Every result says how many of its samples were usable
//   - Embeddable in Go services, CLI tools, and agent backends
package goquad

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// ============================================================
// Point — one evaluation of the integrand
// ============================================================

// Point is the outcome of evaluating a function at a single x.
// The zero value is the invalid marker.
type Point struct {
	Value float64
	Valid bool
}

func Valid(v float64) Point { return Point{Value: v, Valid: true} }
func Invalid() Point        { return Point{} }

// pointOf folds non-finite values into the invalid marker.
func pointOf(v float64) Point {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Invalid()
	}
	return Valid(v)
}

func (p Point) String() string {
	if !p.Valid {
		return "invalid"
	}
	return fmt.Sprintf("%g", p.Value)
}

// Integrand is anything the rules can sample.
type Integrand interface {
	At(x float64) Point
}

// IntegrandFunc adapts a plain Go function. NaN and ±Inf become invalid points.
type IntegrandFunc func(x float64) float64

func (f IntegrandFunc) At(x float64) Point { return pointOf(f(x)) }

// ============================================================
// Method — closed set of quadrature rules
// ============================================================

type Method int

const (
	Rectangle Method = iota
	Trapezoidal
	Simpson
	MonteCarlo
	GaussLegendre

	methodCount
)

// Methods lists every method in run order.
var Methods = [methodCount]Method{Rectangle, Trapezoidal, Simpson, MonteCarlo, GaussLegendre}

var methodNames = [methodCount]string{
	Rectangle:     "rectangle",
	Trapezoidal:   "trapezoidal",
	Simpson:       "simpson",
	MonteCarlo:    "monte_carlo",
	GaussLegendre: "gauss_legendre",
}

var methodTitles = [methodCount]string{
	Rectangle:     "Midpoint rectangle",
	Trapezoidal:   "Trapezoidal",
	Simpson:       "Simpson",
	MonteCarlo:    "Monte Carlo",
	GaussLegendre: "Gauss-Legendre",
}

func (m Method) valid() bool { return m >= 0 && m < methodCount }

func (m Method) String() string {
	if !m.valid() {
		return fmt.Sprintf("method(%d)", int(m))
	}
	return methodNames[m]
}

// Title is the human-readable method name.
func (m Method) Title() string {
	if !m.valid() {
		return m.String()
	}
	return methodTitles[m]
}

func (m Method) MarshalText() ([]byte, error) {
	if !m.valid() {
		return nil, fmt.Errorf("goquad: unknown method %d", int(m))
	}
	return []byte(methodNames[m]), nil
}

func (m *Method) UnmarshalText(b []byte) error {
	parsed, err := ParseMethod(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func ParseMethod(name string) (Method, error) {
	for i, n := range methodNames {
		if n == name {
			return Method(i), nil
		}
	}
	return 0, fmt.Errorf("goquad: unknown method %q", name)
}

// ============================================================
// Result — one method's answer
// ============================================================

// Result is produced once per method per run. When Valid is false, Value is
// zero and must not be read as a number.
type Result struct {
	Method       Method
	Value        float64
	Valid        bool
	Elapsed      time.Duration
	N            int // effective subdivision, sample, or node count
	Samples      int
	ValidSamples int
}

// Degraded reports a valid result that skipped some invalid samples.
func (r Result) Degraded() bool { return r.Valid && r.ValidSamples < r.Samples }

func (r Result) String() string {
	if !r.Valid {
		return fmt.Sprintf("%s: invalid (%s)", r.Method, r.Elapsed)
	}
	return fmt.Sprintf("%s: %.12g (%s)", r.Method, r.Value, r.Elapsed)
}

type resultJSON struct {
	Method       Method   `json:"method"`
	Title        string   `json:"title"`
	Value        *float64 `json:"value"`
	Valid        bool     `json:"valid"`
	Degraded     bool     `json:"degraded"`
	ElapsedSec   float64  `json:"elapsed_seconds"`
	N            int      `json:"n"`
	Samples      int      `json:"samples"`
	ValidSamples int      `json:"valid_samples"`
}

// MarshalJSON encodes an invalid value as null.
func (r Result) MarshalJSON() ([]byte, error) {
	out := resultJSON{
		Method:       r.Method,
		Title:        r.Method.Title(),
		Valid:        r.Valid,
		Degraded:     r.Degraded(),
		ElapsedSec:   r.Elapsed.Seconds(),
		N:            r.N,
		Samples:      r.Samples,
		ValidSamples: r.ValidSamples,
	}
	if r.Valid {
		v := r.Value
		out.Value = &v
	}
	return json.Marshal(out)
}
