// Package auth gates the API behind the shared operator password. A
// successful login issues an opaque session token with a fixed lifetime;
// every protected route requires a live token.
package auth

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// PasswordVerifier checks login attempts against the configured bcrypt hash.
type PasswordVerifier struct {
	hash []byte
}

func NewPasswordVerifier(hash string) (*PasswordVerifier, error) {
	trimmed := strings.TrimSpace(hash)
	if trimmed == "" {
		return nil, fmt.Errorf("password hash is required")
	}
	if _, err := bcrypt.Cost([]byte(trimmed)); err != nil {
		return nil, fmt.Errorf("invalid bcrypt hash: %w", err)
	}
	return &PasswordVerifier{hash: []byte(trimmed)}, nil
}

func (v *PasswordVerifier) Verify(password string) bool {
	return bcrypt.CompareHashAndPassword(v.hash, []byte(password)) == nil
}

// TokenStore keeps issued session tokens in memory. Restarting the service
// logs everyone out, which is acceptable for a single-operator tool.
type TokenStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	now    func() time.Time
	tokens map[string]time.Time
}

func NewTokenStore(ttl time.Duration) *TokenStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &TokenStore{
		ttl:    ttl,
		now:    time.Now,
		tokens: map[string]time.Time{},
	}
}

// Issue mints a fresh token and drops any that have already expired.
func (s *TokenStore) Issue() (string, time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for token, expiry := range s.tokens {
		if !expiry.After(now) {
			delete(s.tokens, token)
		}
	}

	token := uuid.NewString()
	expiresAt := now.Add(s.ttl)
	s.tokens[token] = expiresAt
	return token, expiresAt
}

func (s *TokenStore) Validate(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	expiry, ok := s.tokens[token]
	if !ok {
		return false
	}
	if !expiry.After(s.now()) {
		delete(s.tokens, token)
		return false
	}
	return true
}

func (s *TokenStore) Revoke(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
}
