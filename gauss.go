package goquad

import (
	"context"
	"time"
)

// ============================================================
// Gauss–Legendre
// ============================================================

type gaussTable struct {
	nodes   []float64
	weights []float64
}

// Legendre nodes and weights on [-1, 1].
var gaussTables = map[int]gaussTable{
	2: {
		nodes:   []float64{-0.5773502691896257, 0.5773502691896257},
		weights: []float64{1.0, 1.0},
	},
	3: {
		nodes:   []float64{-0.7745966692414834, 0, 0.7745966692414834},
		weights: []float64{0.5555555555555556, 0.8888888888888888, 0.5555555555555556},
	},
	4: {
		nodes:   []float64{-0.8611363115940526, -0.3399810435848563, 0.3399810435848563, 0.8611363115940526},
		weights: []float64{0.3478548451374538, 0.6521451548625461, 0.6521451548625461, 0.3478548451374538},
	},
	5: {
		nodes:   []float64{-0.9061798459386640, -0.5384693101056831, 0, 0.5384693101056831, 0.9061798459386640},
		weights: []float64{0.2369268850561891, 0.4786286704993665, 0.5688888888888889, 0.4786286704993665, 0.2369268850561891},
	},
}

const defaultGaussPoints = 5

// GaussPoints maps a requested n to the node count used: 2, 3 and 4 select
// their own tables, anything else the 5-point rule.
func GaussPoints(n int) int {
	if _, ok := gaussTables[n]; ok {
		return n
	}
	return defaultGaussPoints
}

type gaussLegendreRule struct{ allowPartial bool }

func (gaussLegendreRule) Method() Method { return GaussLegendre }

// Integrate applies the fixed-node rule. With allowPartial unset, a single
// invalid node makes the result invalid: dropping a node's weight leaves a
// rule that is no longer exact for any degree. With allowPartial set, the
// invalid nodes are skipped, the surviving sum is still scaled by (b-a)/2,
// and the result reports Degraded.
func (r gaussLegendreRule) Integrate(ctx context.Context, f Integrand, a, b float64, n int) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	points := GaussPoints(n)
	t := gaussTables[points]
	half, mid := (b-a)/2, (a+b)/2

	var acc accumulator
	start := time.Now()
	for i, xi := range t.nodes {
		acc.add(f.At(half*xi+mid), t.weights[i])
	}
	elapsed := time.Since(start)

	if acc.valid < acc.samples && !r.allowPartial {
		return Result{
			Method:       GaussLegendre,
			Elapsed:      elapsed,
			N:            points,
			Samples:      acc.samples,
			ValidSamples: acc.valid,
		}, nil
	}
	return acc.result(GaussLegendre, points, elapsed, half*acc.sum), nil
}
