package goquad

import (
	"context"
	"fmt"
	"time"
)

// ============================================================
// Rule — one quadrature algorithm
// ============================================================

// Rule integrates f over [a, b] with resolution n. Invalid points are
// skipped; the Result is invalid only when every sampled point was invalid.
// The only error a Rule returns is the context's.
type Rule interface {
	Method() Method
	Integrate(ctx context.Context, f Integrand, a, b float64, n int) (Result, error)
}

// RuleOptions tune rule construction. The zero value is usable.
type RuleOptions struct {
	Workers           int    // concurrent chunk evaluators; 0 means GOMAXPROCS
	ParallelThreshold int    // point count at which loops fan out; 0 means default
	Seed              uint64 // Monte Carlo seed; 0 draws a fresh seed per run
	AllowPartialGauss bool   // keep a Gauss result when some nodes are invalid
}

// NewRule returns the rule for m.
func NewRule(m Method, o RuleOptions) (Rule, error) {
	if !m.valid() {
		return nil, fmt.Errorf("goquad: unknown method %d", int(m))
	}
	return newRules(o)[m], nil
}

// newRules builds one rule per method, indexed by Method. It panics if a
// method is left without a matching rule.
func newRules(o RuleOptions) [methodCount]Rule {
	s := newSampler(o.Workers, o.ParallelThreshold)
	rules := [methodCount]Rule{
		Rectangle:     rectangleRule{s: s},
		Trapezoidal:   trapezoidalRule{s: s},
		Simpson:       simpsonRule{s: s},
		MonteCarlo:    monteCarloRule{s: s, seed: o.Seed},
		GaussLegendre: gaussLegendreRule{allowPartial: o.AllowPartialGauss},
	}
	for i, r := range rules {
		if r == nil || r.Method() != Method(i) {
			panic(fmt.Sprintf("goquad: no rule registered for %s", Method(i)))
		}
	}
	return rules
}

// Integrate runs a single method with default options.
func Integrate(ctx context.Context, m Method, f Integrand, a, b float64, n int) (Result, error) {
	r, err := NewRule(m, RuleOptions{})
	if err != nil {
		return Result{}, err
	}
	return r.Integrate(ctx, f, a, b, n)
}

// ============================================================
// Midpoint rectangle
// ============================================================

type rectangleRule struct{ s sampler }

func (rectangleRule) Method() Method { return Rectangle }

func (r rectangleRule) Integrate(ctx context.Context, f Integrand, a, b float64, n int) (Result, error) {
	n = max(n, 1)
	h := (b - a) / float64(n)
	start := time.Now()
	acc, err := r.s.run(ctx, n, func(lo, hi int, acc *accumulator) {
		for i := lo; i < hi; i++ {
			acc.add(f.At(a+(float64(i)+0.5)*h), 1)
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	return acc.result(Rectangle, n, elapsed, h*acc.sum), nil
}

// ============================================================
// Trapezoidal
// ============================================================

type trapezoidalRule struct{ s sampler }

func (trapezoidalRule) Method() Method { return Trapezoidal }

func (r trapezoidalRule) Integrate(ctx context.Context, f Integrand, a, b float64, n int) (Result, error) {
	n = max(n, 1)
	h := (b - a) / float64(n)
	start := time.Now()
	acc, err := r.s.run(ctx, n+1, func(lo, hi int, acc *accumulator) {
		for i := lo; i < hi; i++ {
			switch i {
			case 0:
				acc.add(f.At(a), 0.5)
			case n:
				acc.add(f.At(b), 0.5)
			default:
				acc.add(f.At(a+float64(i)*h), 1)
			}
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	return acc.result(Trapezoidal, n, elapsed, h*acc.sum), nil
}

// ============================================================
// Simpson
// ============================================================

type simpsonRule struct{ s sampler }

func (simpsonRule) Method() Method { return Simpson }

// SimpsonN is the subdivision count Simpson actually uses for n.
func SimpsonN(n int) int {
	if n%2 != 0 {
		return n + 1
	}
	return n
}

func (r simpsonRule) Integrate(ctx context.Context, f Integrand, a, b float64, n int) (Result, error) {
	n = SimpsonN(max(n, 1))
	h := (b - a) / float64(n)
	start := time.Now()
	acc, err := r.s.run(ctx, n+1, func(lo, hi int, acc *accumulator) {
		for i := lo; i < hi; i++ {
			switch {
			case i == 0:
				acc.add(f.At(a), 1)
			case i == n:
				acc.add(f.At(b), 1)
			case i%2 == 1:
				acc.add(f.At(a+float64(i)*h), 4)
			default:
				acc.add(f.At(a+float64(i)*h), 2)
			}
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	return acc.result(Simpson, n, elapsed, h/3*acc.sum), nil
}
