package goquad

import (
	"context"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"
)

// ============================================================
// Accumulator — weighted sum over valid points only
// ============================================================

type accumulator struct {
	sum     float64 // Σ w·f(x) over valid points
	weight  float64 // Σ w over valid points
	samples int
	valid   int
}

func (acc *accumulator) add(p Point, w float64) {
	acc.samples++
	if !p.Valid {
		return
	}
	acc.sum += w * p.Value
	acc.weight += w
	acc.valid++
}

func (acc *accumulator) merge(o accumulator) {
	acc.sum += o.sum
	acc.weight += o.weight
	acc.samples += o.samples
	acc.valid += o.valid
}

// mean is the weighted mean of the valid points, or 0 when none was valid.
func (acc accumulator) mean() float64 {
	if acc.weight == 0 {
		return 0
	}
	return acc.sum / acc.weight
}

// result builds a Result that is invalid when no point was valid.
func (acc accumulator) result(m Method, n int, elapsed time.Duration, value float64) Result {
	r := Result{
		Method:       m,
		Elapsed:      elapsed,
		N:            n,
		Samples:      acc.samples,
		ValidSamples: acc.valid,
	}
	if acc.valid > 0 {
		if v, ok := finite(value); ok {
			r.Value, r.Valid = v, true
		}
	}
	return r
}

// ============================================================
// Sampler — chunked, optionally parallel point loops
// ============================================================

// chunkSize is fixed so chunk boundaries, per-chunk random streams and the
// merge order do not depend on the worker count.
const chunkSize = 1 << 14

const DefaultParallelThreshold = 1 << 16

type chunkFunc func(lo, hi int, acc *accumulator)

type sampler struct {
	workers   int
	threshold int
}

func newSampler(workers, threshold int) sampler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return sampler{workers: workers, threshold: threshold}
}

// run folds fn over [0, count) in chunks. Partial sums are merged in chunk
// order whether or not the chunks ran concurrently.
func (s sampler) run(ctx context.Context, count int, fn chunkFunc) (accumulator, error) {
	chunks := (count + chunkSize - 1) / chunkSize
	partials := make([]accumulator, chunks)
	bounds := func(k int) (int, int) {
		lo := k * chunkSize
		return lo, min(lo+chunkSize, count)
	}

	if count < s.threshold || s.workers <= 1 || chunks == 1 {
		for k := range partials {
			if err := ctx.Err(); err != nil {
				return accumulator{}, err
			}
			lo, hi := bounds(k)
			fn(lo, hi, &partials[k])
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(s.workers)
		for k := range partials {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				lo, hi := bounds(k)
				fn(lo, hi, &partials[k])
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return accumulator{}, err
		}
	}

	var total accumulator
	for _, p := range partials {
		total.merge(p)
	}
	return total, nil
}
