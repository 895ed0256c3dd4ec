// Package tokens caches the API access tokens handed out on login, one per
// user. Tokens are opaque except for their JWT "exp" claim.
package tokens

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/zhaopengme/dwtrbot/pkg/logger"
)

var ErrMalformedToken = errors.New("malformed token")

// Store holds one token per user. Get never returns an expired token;
// expired entries stay in place until overwritten by Put.
type Store interface {
	Get(userID string) (string, bool)
	Put(userID, token string)
}

// ExpiresAt extracts the "exp" claim without verifying the signature.
func ExpiresAt(token string) (time.Time, error) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrMalformedToken, err)
	}
	if exp == nil {
		return time.Time{}, fmt.Errorf("%w: no exp claim", ErrMalformedToken)
	}
	return exp.Time, nil
}

// IsExpired reports whether token is expired at now. Tokens without a
// readable expiry count as expired.
func IsExpired(token string, now time.Time) bool {
	exp, err := ExpiresAt(token)
	if err != nil {
		logger.ErrorCF("tokens", "Invalid token was stored", map[string]interface{}{
			"error": err.Error(),
		})
		return true
	}
	return !now.Before(exp)
}

type Option func(*MemoryStore)

// WithClock replaces time.Now for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) {
		s.now = now
	}
}

type MemoryStore struct {
	mu     sync.RWMutex
	tokens map[string]string
	now    func() time.Time
}

func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{
		tokens: make(map[string]string),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStore) Get(userID string) (string, bool) {
	s.mu.RLock()
	token, ok := s.tokens[userID]
	s.mu.RUnlock()

	if !ok || token == "" || IsExpired(token, s.now()) {
		return "", false
	}
	return token, true
}

func (s *MemoryStore) Put(userID, token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[userID] = token
}

func (s *MemoryStore) snapshot() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.tokens))
	for k, v := range s.tokens {
		out[k] = v
	}
	return out
}
