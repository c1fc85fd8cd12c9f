package semantic

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"archlens/internal/analysis"
)

// Middleware decorates a Client with a cross-cutting concern.
type Middleware func(Client) Client

// Wrap applies middlewares so that Wrap(inner, A, B) == A(B(inner)).
func Wrap(inner Client, mws ...Middleware) Client {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// permanentError marks a failure that retrying cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err as not retryable.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func isPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p) || errors.Is(err, ErrNoCredential) || errors.Is(err, ErrBudgetExhausted)
}

// Retry retries up to maxAttempts with exponential backoff from baseDelay.
// Exhausted or permanent failures are reported as ErrServiceFailure, except
// ErrNoCredential and context errors which pass through unchanged.
func Retry(maxAttempts int, baseDelay time.Duration, logger *slog.Logger) Middleware {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	return func(next Client) Client {
		return &retrying{next: next, max: maxAttempts, base: baseDelay, logger: logger}
	}
}

type retrying struct {
	next   Client
	max    int
	base   time.Duration
	logger *slog.Logger
}

func (r *retrying) Name() string { return r.next.Name() }

func (r *retrying) GenerateStructuredAnalysis(ctx context.Context, pc PromptContext, opts GenerateOptions) (*analysis.SemanticReport, Usage, error) {
	var last error
	var spent Usage
	for i := 0; i < r.max; i++ {
		report, usage, err := r.next.GenerateStructuredAnalysis(ctx, pc, opts)
		spent.InputTokens += usage.InputTokens
		spent.OutputTokens += usage.OutputTokens
		if err == nil {
			return report, spent, nil
		}
		if errors.Is(err, ErrNoCredential) || errors.Is(err, ErrBudgetExhausted) {
			return nil, spent, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, spent, ctxErr
		}
		last = err
		if isPermanent(err) {
			break
		}

		if i+1 < r.max {
			delay := r.base * time.Duration(1<<i)
			r.logger.Debug("Retrying semantic call", "client", r.next.Name(), "attempt", i+1, "delay", delay, "error", err.Error())
			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, spent, ctx.Err()
			case <-timer.C:
			}
		}
	}
	if errors.Is(last, ErrServiceFailure) {
		return nil, spent, last
	}
	return nil, spent, fmt.Errorf("%w: %v", ErrServiceFailure, last)
}

// RateLimit spaces calls to at most requestsPerMinute. Zero or negative disables it.
func RateLimit(requestsPerMinute int) Middleware {
	return func(next Client) Client {
		if requestsPerMinute <= 0 {
			return next
		}
		limiter := rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
		return &rateLimited{next: next, limiter: limiter}
	}
}

type rateLimited struct {
	next    Client
	limiter *rate.Limiter
}

func (c *rateLimited) Name() string { return c.next.Name() }

func (c *rateLimited) GenerateStructuredAnalysis(ctx context.Context, pc PromptContext, opts GenerateOptions) (*analysis.SemanticReport, Usage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, Usage{}, err
	}
	return c.next.GenerateStructuredAnalysis(ctx, pc, opts)
}

// Timeout bounds each individual call. Zero or negative disables it.
func Timeout(d time.Duration) Middleware {
	return func(next Client) Client {
		if d <= 0 {
			return next
		}
		return &timed{next: next, timeout: d}
	}
}

type timed struct {
	next    Client
	timeout time.Duration
}

func (c *timed) Name() string { return c.next.Name() }

func (c *timed) GenerateStructuredAnalysis(ctx context.Context, pc PromptContext, opts GenerateOptions) (*analysis.SemanticReport, Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.next.GenerateStructuredAnalysis(ctx, pc, opts)
}
