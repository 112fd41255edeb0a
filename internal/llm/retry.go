package llm

import (
	"math/rand"
	"time"
)

// RetryPolicy controls retry behavior for outbound HTTP calls: exponential
// backoff from BaseDelay with optional jitter, up to MaxAttempts total
// attempts.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	Jitter      bool
}

// DefaultRetryPolicy matches the assistant's historical behavior: five
// attempts, 1s/2s/4s/8s between them.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   time.Second,
		Jitter:      true,
	}
}

// Backoff returns the delay before the given attempt (attempt 1 is the
// first retry).
func (p RetryPolicy) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	delay := p.BaseDelay << (attempt - 1)
	if p.Jitter {
		delay += time.Duration(rand.Int63n(int64(p.BaseDelay) / 2))
	}
	return delay
}
