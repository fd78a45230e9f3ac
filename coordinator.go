package goquad

import (
	"context"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// DefaultMaxN bounds the subdivision count a single run accepts.
const DefaultMaxN = 10_000_000

const tracerName = "github.com/njchilds90/goquad"

// ============================================================
// Observer — metrics hook
// ============================================================

// Observer receives run and per-method outcomes. Implementations must be
// safe for concurrent use.
type Observer interface {
	ObserveRun(status string, elapsed time.Duration)
	ObserveResult(r Result)
}

// Run statuses passed to Observer.ObserveRun.
const (
	StatusOK       = "ok"
	StatusRejected = "rejected"
	StatusCanceled = "canceled"
)

type nopObserver struct{}

func (nopObserver) ObserveRun(string, time.Duration) {}
func (nopObserver) ObserveResult(Result)             {}

// ============================================================
// Options
// ============================================================

type Option func(*Coordinator)

func WithLogger(l *zap.Logger) Option {
	return func(c *Coordinator) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Coordinator) {
		if o != nil {
			c.observer = o
		}
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(c *Coordinator) {
		if t != nil {
			c.tracer = t
		}
	}
}

func WithRuleOptions(o RuleOptions) Option {
	return func(c *Coordinator) { c.ruleOpts = o }
}

// WithMaxN caps n. Values below 1 keep the default.
func WithMaxN(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.maxN = n
		}
	}
}

// WithMonteCarloScale sets the Monte Carlo sample multiplier. Values below 1
// keep the default.
func WithMonteCarloScale(k int) Option {
	return func(c *Coordinator) {
		if k > 0 {
			c.mcScale = k
		}
	}
}

// ============================================================
// Coordinator
// ============================================================

// Coordinator validates a request and runs every method in a fixed order.
// It does no arithmetic of its own beyond the validation probe. Safe for
// concurrent use.
type Coordinator struct {
	rules    [methodCount]Rule
	ruleOpts RuleOptions
	maxN     int
	mcScale  int
	logger   *zap.Logger
	observer Observer
	tracer   trace.Tracer
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		maxN:     DefaultMaxN,
		mcScale:  DefaultMonteCarloScale,
		logger:   zap.NewNop(),
		observer: nopObserver{},
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.rules = newRules(c.ruleOpts)
	return c
}

func (c *Coordinator) MaxN() int { return c.maxN }

// Report is the ordered outcome of one run.
type Report struct {
	ID        uuid.UUID
	Formula   string
	A, B      float64
	N         int
	Results   []Result
	StartedAt time.Time
	Elapsed   time.Duration
}

func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID         string    `json:"id"`
		Formula    string    `json:"formula"`
		Interval   []float64 `json:"interval"`
		N          int       `json:"n"`
		Results    []Result  `json:"results"`
		StartedAt  time.Time `json:"started_at"`
		ElapsedSec float64   `json:"elapsed_seconds"`
	}{r.ID.String(), r.Formula, []float64{r.A, r.B}, r.N, r.Results, r.StartedAt, r.Elapsed.Seconds()})
}

// Result returns the result for m, if present.
func (r *Report) Result(m Method) (Result, bool) {
	for _, res := range r.Results {
		if res.Method == m {
			return res, true
		}
	}
	return Result{}, false
}

// ValidateParams checks the numeric inputs of a run.
func (c *Coordinator) ValidateParams(a, b float64, n int) error {
	if math.IsNaN(a) || math.IsInf(a, 0) || math.IsNaN(b) || math.IsInf(b, 0) {
		return validationErr(KindInvalidParameter, nil, "interval bounds must be finite, got [%g, %g]", a, b)
	}
	if n < 1 {
		return validationErr(KindInvalidParameter, nil, "n must be at least 1, got %d", n)
	}
	if n > c.maxN {
		return validationErr(KindInvalidParameter, nil, "n must be at most %d, got %d", c.maxN, n)
	}
	if a >= b {
		return validationErr(KindInvalidInterval, nil, "lower limit %g must be less than upper limit %g", a, b)
	}
	return nil
}

// Probe evaluates f at a, (a+b)/2 and b and rejects it when all three are
// invalid.
func Probe(f Integrand, a, b float64) error {
	for _, x := range []float64{a, (a + b) / 2, b} {
		if f.At(x).Valid {
			return nil
		}
	}
	return validationErr(KindUndefinedOnInterval, nil, "no valid value at %g, %g or %g", a, (a+b)/2, b)
}

// Run compiles formula, validates the request and integrates with every
// method. Validation failures are *ValidationError values; a canceled
// context returns its error.
func (c *Coordinator) Run(ctx context.Context, formula string, a, b float64, n int) (*Report, error) {
	if err := c.ValidateParams(a, b, n); err != nil {
		return nil, c.reject(formula, err)
	}
	f, err := Compile(formula)
	if err != nil {
		return nil, c.reject(formula, validationErr(KindMalformedExpression, err, "cannot compile %q", formula))
	}
	return c.RunIntegrand(ctx, formula, f, a, b, n)
}

// RunPreset resolves a catalog name and runs its formula.
func (c *Coordinator) RunPreset(ctx context.Context, name string, a, b float64, n int) (*Report, error) {
	formula, ok := LookupPreset(name)
	if !ok {
		return nil, c.reject(name, validationErr(KindUnknownPreset, nil, "%q", name))
	}
	return c.Run(ctx, formula, a, b, n)
}

// RunIntegrand runs every method over an already-built integrand. label is
// recorded as the report's formula.
func (c *Coordinator) RunIntegrand(ctx context.Context, label string, f Integrand, a, b float64, n int) (*Report, error) {
	if err := c.ValidateParams(a, b, n); err != nil {
		return nil, c.reject(label, err)
	}
	if err := Probe(f, a, b); err != nil {
		return nil, c.reject(label, err)
	}

	report := &Report{
		ID:        uuid.New(),
		Formula:   label,
		A:         a,
		B:         b,
		N:         n,
		Results:   make([]Result, 0, methodCount),
		StartedAt: time.Now().UTC(),
	}
	ctx, span := c.tracer.Start(ctx, "goquad.Run", trace.WithAttributes(
		attribute.String("goquad.run_id", report.ID.String()),
		attribute.String("goquad.formula", label),
		attribute.Float64("goquad.a", a),
		attribute.Float64("goquad.b", b),
		attribute.Int("goquad.n", n),
	))
	defer span.End()

	log := c.logger.With(zap.String("run_id", report.ID.String()))
	log.Debug("run started",
		zap.String("formula", label),
		zap.Float64("a", a),
		zap.Float64("b", b),
		zap.Int("n", n),
	)

	for _, m := range Methods {
		res, err := c.runMethod(ctx, m, f, a, b, c.methodN(m, n))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.observer.ObserveRun(StatusCanceled, time.Since(report.StartedAt))
			log.Warn("run canceled", zap.Stringer("method", m), zap.Error(err))
			return nil, err
		}
		c.observer.ObserveResult(res)
		report.Results = append(report.Results, res)
		log.Debug("method finished",
			zap.Stringer("method", m),
			zap.Bool("valid", res.Valid),
			zap.Float64("value", res.Value),
			zap.Int("samples", res.Samples),
			zap.Int("valid_samples", res.ValidSamples),
			zap.Duration("elapsed", res.Elapsed),
		)
		if res.Degraded() {
			log.Info("method skipped invalid points",
				zap.Stringer("method", m),
				zap.Int("invalid", res.Samples-res.ValidSamples),
			)
		}
	}

	report.Elapsed = time.Since(report.StartedAt)
	c.observer.ObserveRun(StatusOK, report.Elapsed)
	log.Info("run finished", zap.String("formula", label), zap.Duration("elapsed", report.Elapsed))
	return report, nil
}

// methodN applies the per-method scaling of n. Simpson rounds up to even on
// its own.
func (c *Coordinator) methodN(m Method, n int) int {
	if m == MonteCarlo {
		return n * c.mcScale
	}
	return n
}

func (c *Coordinator) runMethod(ctx context.Context, m Method, f Integrand, a, b float64, n int) (Result, error) {
	ctx, span := c.tracer.Start(ctx, "goquad."+m.String(), trace.WithAttributes(attribute.Int("goquad.n", n)))
	defer span.End()
	res, err := c.rules[m].Integrate(ctx, f, a, b, n)
	if err != nil {
		return Result{}, err
	}
	span.SetAttributes(
		attribute.Bool("goquad.valid", res.Valid),
		attribute.Int("goquad.samples", res.Samples),
		attribute.Int("goquad.valid_samples", res.ValidSamples),
	)
	return res, nil
}

func (c *Coordinator) reject(label string, err error) error {
	c.observer.ObserveRun(StatusRejected, 0)
	c.logger.Info("run rejected",
		zap.String("formula", label),
		zap.String("kind", string(KindOf(err))),
		zap.Error(err),
	)
	return err
}
