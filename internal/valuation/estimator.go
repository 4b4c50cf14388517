package valuation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrCancelled is returned by Estimate when the caller's context ends while
// the external service is being consulted.
var ErrCancelled = errors.New("valuation cancelled")

// Request parameters for the external service.
const (
	DefaultTimeout = 5 * time.Second
	maxTokens      = 500
	temperature    = 0.3
)

// Estimator produces valuations, consulting the external service when one is
// configured. It holds no per-call state and is safe for concurrent use.
type Estimator struct {
	completer Completer
	timeout   time.Duration
	logger    *slog.Logger
	metrics   *Metrics
}

// Option configures an Estimator.
type Option func(*Estimator)

// WithTimeout bounds each external call. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(e *Estimator) {
		if d > 0 {
			e.timeout = d
		}
	}
}

// WithLogger sets the logger used to report fallbacks.
func WithLogger(l *slog.Logger) Option {
	return func(e *Estimator) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithMetrics records each valuation in m.
func WithMetrics(m *Metrics) Option {
	return func(e *Estimator) { e.metrics = m }
}

// New creates an Estimator. A nil completer means every estimate comes from
// the rule-based model.
func New(completer Completer, opts ...Option) *Estimator {
	e := &Estimator{
		completer: completer,
		timeout:   DefaultTimeout,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// External reports whether an external service is configured.
func (e *Estimator) External() bool {
	return e.completer != nil
}

// Estimate values a property. Failures of the external service never reach
// the caller: the rule-based model answers instead. The only error returned
// wraps ErrCancelled, when ctx ends before the external call completes.
func (e *Estimator) Estimate(ctx context.Context, a Attributes) (Result, error) {
	if e.completer == nil {
		e.metrics.inc(pathRuleBased)
		return EstimateFallback(a), nil
	}

	if err := ctx.Err(); err != nil {
		e.metrics.inc(pathCancelled)
		return Result{}, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	res, err := e.external(ctx, a)
	if err == nil {
		e.metrics.inc(pathExternal)
		return res, nil
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		e.metrics.inc(pathCancelled)
		return Result{}, fmt.Errorf("%w: %w", ErrCancelled, ctxErr)
	}

	e.logger.Warn("valuation: external estimate failed, using rule-based model",
		"err", err,
		"property_type", a.Category,
	)
	e.metrics.inc(pathFallback)
	return EstimateFallback(a), nil
}

func (e *Estimator) external(ctx context.Context, a Attributes) (Result, error) {
	callCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	text, err := e.completer.Complete(callCtx, CompletionRequest{
		System:      SystemPrompt,
		Prompt:      BuildPrompt(a),
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	e.metrics.observe(time.Since(start))
	if err != nil {
		return Result{}, fmt.Errorf("calling valuation service: %w", err)
	}

	res, err := ParseResponse(text)
	if err != nil {
		return Result{}, fmt.Errorf("parsing valuation response: %w", err)
	}
	return res, nil
}
