package inference

import (
	"context"
	"errors"
	"log"
	"time"

	"claimintake/internal/config"
	"claimintake/internal/domain"
	"claimintake/internal/port"
)

// RetryPolicy bounds transparent retries of a remote call.
type RetryPolicy struct {
	MaxRetries int
	Delay      time.Duration
	// MaxRetryAfter caps how long a Retry-After hint may stretch a pause.
	MaxRetryAfter time.Duration
}

// PolicyFromConfig derives a RetryPolicy from service configuration.
func PolicyFromConfig(cfg *config.InferenceConfig) RetryPolicy {
	return RetryPolicy{
		MaxRetries:    cfg.MaxRetries,
		Delay:         cfg.RetryDelay(),
		MaxRetryAfter: cfg.Timeout(),
	}
}

func (p RetryPolicy) pause(err error) time.Duration {
	d := p.Delay
	var re *RemoteError
	if errors.As(err, &re) && re.RetryAfter > d {
		d = re.RetryAfter
		if p.MaxRetryAfter > 0 && d > p.MaxRetryAfter {
			d = p.MaxRetryAfter
		}
	}
	return d
}

func withRetry[T any](ctx context.Context, policy RetryPolicy, name string, call func(context.Context) (T, error)) (T, error) {
	var zero T
	attempts := policy.MaxRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := call(ctx)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == attempts {
			break
		}

		wait := policy.pause(err)
		log.Printf("inference.%s: attempt %d/%d failed (%v), retrying in %s", name, attempt, attempts, err, wait)
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
	return zero, lastErr
}

// RetryingClassifier retries retryable classifier failures.
type RetryingClassifier struct {
	inner  port.ImageClassifier
	policy RetryPolicy
}

// NewRetryingClassifier wraps a classifier with a retry policy.
func NewRetryingClassifier(inner port.ImageClassifier, policy RetryPolicy) *RetryingClassifier {
	return &RetryingClassifier{inner: inner, policy: policy}
}

func (r *RetryingClassifier) Classify(ctx context.Context, input port.ArtifactInput) (*domain.ClassificationResult, error) {
	return withRetry(ctx, r.policy, "RetryingClassifier", func(ctx context.Context) (*domain.ClassificationResult, error) {
		return r.inner.Classify(ctx, input)
	})
}

// RetryingExtractor retries retryable extractor failures.
type RetryingExtractor struct {
	inner  port.DocumentExtractor
	policy RetryPolicy
}

// NewRetryingExtractor wraps an extractor with a retry policy.
func NewRetryingExtractor(inner port.DocumentExtractor, policy RetryPolicy) *RetryingExtractor {
	return &RetryingExtractor{inner: inner, policy: policy}
}

func (r *RetryingExtractor) Extract(ctx context.Context, input port.ArtifactInput, endpointID string) (*domain.ExtractionResult, error) {
	return withRetry(ctx, r.policy, "RetryingExtractor", func(ctx context.Context) (*domain.ExtractionResult, error) {
		return r.inner.Extract(ctx, input, endpointID)
	})
}
