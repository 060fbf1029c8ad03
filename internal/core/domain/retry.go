package domain

import (
	"math/rand"
	"time"
)

// RetryPolicy bounds retries of transient provider failures.
// The same policy value is shared by the embedding adapters and the
// web content source, rather than each call site inventing its own.
type RetryPolicy struct {
	// MaxAttempts is the total number of tries, including the first.
	MaxAttempts int

	// BaseDelay is the delay before the first retry.
	BaseDelay time.Duration

	// MaxDelay caps the exponential growth.
	MaxDelay time.Duration

	// Jitter adds up to half the computed delay of random slack when set,
	// to avoid synchronised retries.
	Jitter bool
}

// DefaultRetryPolicy matches the provider limits seen in practice:
// four tries with 500ms base delay capped at 8s.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 4,
		BaseDelay:   500 * time.Millisecond,
		MaxDelay:    8 * time.Second,
		Jitter:      true,
	}
}

// Backoff returns the delay to sleep before retry number attempt.
// Attempt 0 is the first retry.
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	d := p.BaseDelay << attempt
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	if p.Jitter && d > 0 {
		d += time.Duration(rand.Int63n(int64(d)/2 + 1))
	}
	return d
}
