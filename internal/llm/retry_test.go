package llm

import (
	"testing"
	"time"
)

func TestBackoffDoubles(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Second}

	wants := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 8 * time.Second}
	for i, want := range wants {
		if got := p.Backoff(i + 1); got != want {
			t.Errorf("Backoff(%d) = %v, want %v", i+1, got, want)
		}
	}
}

func TestBackoffJitterStaysBounded(t *testing.T) {
	p := RetryPolicy{MaxAttempts: 3, BaseDelay: time.Second, Jitter: true}

	for i := 0; i < 50; i++ {
		got := p.Backoff(1)
		if got < time.Second || got >= time.Second+500*time.Millisecond {
			t.Fatalf("jittered Backoff(1) = %v, outside [1s, 1.5s)", got)
		}
	}
}

func TestBackoffZeroAttempt(t *testing.T) {
	p := DefaultRetryPolicy()
	if got := p.Backoff(0); got != 0 {
		t.Errorf("Backoff(0) = %v, want 0", got)
	}
}
