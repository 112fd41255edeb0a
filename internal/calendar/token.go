package calendar

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Token is a bearer token with its expiry.
type Token struct {
	AccessToken string
	Expiry      time.Time
}

// TokenSource yields a currently-valid token.
type TokenSource interface {
	Token(ctx context.Context) (Token, error)
}

// expiryLeeway refreshes slightly early so a token never expires mid-call.
const expiryLeeway = 30 * time.Second

// RefreshTokenSource caches a token and refreshes it on expiry. The clock
// is injectable for tests.
type RefreshTokenSource struct {
	mu      sync.Mutex
	current Token
	refresh func(ctx context.Context) (Token, error)
	now     func() time.Time
}

// NewRefreshTokenSource wraps a refresh call in expiry-checked caching.
func NewRefreshTokenSource(refresh func(ctx context.Context) (Token, error)) *RefreshTokenSource {
	return &RefreshTokenSource{refresh: refresh, now: time.Now}
}

// Token returns the cached token, refreshing when it is expired or about
// to expire.
func (s *RefreshTokenSource) Token(ctx context.Context) (Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current.AccessToken != "" && s.now().Add(expiryLeeway).Before(s.current.Expiry) {
		return s.current, nil
	}

	token, err := s.refresh(ctx)
	if err != nil {
		return Token{}, fmt.Errorf("token refresh failed: %w", err)
	}
	s.current = token
	return token, nil
}
