package goquad

import (
	"context"
	"math/rand/v2"
	"time"
)

// ============================================================
// Monte Carlo
// ============================================================

// DefaultMonteCarloScale multiplies n for Monte Carlo runs to offset its
// O(1/√n) convergence.
const DefaultMonteCarloScale = 10

type monteCarloRule struct {
	s    sampler
	seed uint64
}

func (monteCarloRule) Method() Method { return MonteCarlo }

// Integrate draws n uniform points in [a, b] and returns (b-a) times the
// mean of the valid samples. Each chunk has its own PCG stream keyed by the
// seed and the chunk offset, so a fixed seed gives the same value at any
// worker count.
func (r monteCarloRule) Integrate(ctx context.Context, f Integrand, a, b float64, n int) (Result, error) {
	n = max(n, 1)
	seed := r.seed
	if seed == 0 {
		seed = rand.Uint64() | 1
	}
	width := b - a
	start := time.Now()
	acc, err := r.s.run(ctx, n, func(lo, hi int, acc *accumulator) {
		rng := rand.New(rand.NewPCG(seed, uint64(lo)))
		for i := lo; i < hi; i++ {
			acc.add(f.At(a+width*rng.Float64()), 1)
		}
	})
	elapsed := time.Since(start)
	if err != nil {
		return Result{}, err
	}
	return acc.result(MonteCarlo, n, elapsed, width*acc.mean()), nil
}
