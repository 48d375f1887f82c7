package engine

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const tracerName = "github.com/user/isoaudit/engine"

// DefaultWorkers is the size of the check worker pool.
const DefaultWorkers = 4

// Progress is reported once per check as it finishes.
type Progress struct {
	Category string
	State    State
	Index    int // completion order, starting at 1
	Total    int
	Duration time.Duration
}

// Runner drives every check of a registry and feeds an Aggregator.
type Runner struct {
	registry *Registry
	workers  int
	tracer   trace.Tracer
	logger   *slog.Logger
	progress func(Progress)
}

// RunnerOption customises a Runner.
type RunnerOption func(*Runner)

// WithWorkers bounds the number of checks running at once. 1 runs them sequentially.
func WithWorkers(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithTracer sets the tracer used for per-check spans.
func WithTracer(t trace.Tracer) RunnerOption {
	return func(r *Runner) { r.tracer = t }
}

// WithLogger sets the runner logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// WithProgress registers a callback invoked after each check. Calls are serialized.
func WithProgress(fn func(Progress)) RunnerOption {
	return func(r *Runner) { r.progress = fn }
}

// NewRunner creates a runner over reg.
func NewRunner(reg *Registry, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry: reg,
		workers:  DefaultWorkers,
		tracer:   otel.Tracer(tracerName),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

type job struct {
	category string
	check    Check
}

// Run verifies every check and records the results into agg in registry
// order. Checks run concurrently up to the worker limit. If ctx is cancelled
// before all checks finish nothing is recorded and ErrInterrupted is returned.
func (r *Runner) Run(ctx context.Context, agg *Aggregator) error {
	var jobs []job
	r.registry.ForEach(func(category string, c Check) bool {
		jobs = append(jobs, job{category: category, check: c})
		return true
	})

	ctx, span := r.tracer.Start(ctx, "audit.run", trace.WithAttributes(
		attribute.Int("audit.checks", len(jobs)),
		attribute.Int("audit.workers", r.workers),
	))
	defer span.End()

	results := make([]CheckResult, len(jobs))
	var (
		mu   sync.Mutex
		done int
	)

	g := new(errgroup.Group)
	g.SetLimit(r.workers)
	for i, j := range jobs {
		i, j := i, j
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			start := time.Now()
			results[i] = r.verify(ctx, j)
			elapsed := time.Since(start)

			r.logger.Debug("check finished",
				"category", j.category,
				"state", results[i].State,
				"findings", len(results[i].Findings),
				"duration", elapsed)

			mu.Lock()
			defer mu.Unlock()
			done++
			if r.progress != nil {
				r.progress(Progress{
					Category: j.category,
					State:    results[i].State,
					Index:    done,
					Total:    len(jobs),
					Duration: elapsed,
				})
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, "interrupted")
		return fmt.Errorf("%w: %v", ErrInterrupted, err)
	}

	for i, j := range jobs {
		if err := agg.Record(j.category, results[i]); err != nil {
			return err
		}
	}
	return nil
}

// verify runs one check in isolation: panics and invariant breaches become
// error results instead of escaping.
func (r *Runner) verify(ctx context.Context, j job) (result CheckResult) {
	ctx, span := r.tracer.Start(ctx, "check.verify", trace.WithAttributes(
		attribute.String("check.category", j.category),
	))
	defer func() {
		span.SetAttributes(
			attribute.String("check.state", string(result.State)),
			attribute.Int("check.controls", len(result.Controls)),
			attribute.Int("check.findings", len(result.Findings)),
		)
		if result.State == StateError {
			span.SetStatus(codes.Error, result.Error)
		}
		span.End()
	}()

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("check panicked", "category", j.category, "panic", p, "stack", string(debug.Stack()))
			result = ErrorResult(j.category, j.check.Reference(), &CheckError{
				Category: j.category,
				Err:      fmt.Errorf("panic: %v", p),
			})
		}
	}()

	result = j.check.Verify(ctx)
	if result.Category == "" {
		result.Category = j.category
	}
	if result.Category != j.category {
		err := &CheckError{Category: j.category, Err: fmt.Errorf("%w: result category %q", ErrInvalidResult, result.Category)}
		return ErrorResult(j.category, j.check.Reference(), err)
	}
	if err := result.Validate(); err != nil {
		r.logger.Warn("check returned an invalid result", "category", j.category, "error", err)
		return ErrorResult(j.category, j.check.Reference(), &CheckError{Category: j.category, Err: err})
	}
	return result
}
