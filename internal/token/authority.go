// Package token issues and validates short-lived bearer tokens.
//
// An Authority owns an in-memory table of token -> expiry. Expired entries are
// removed lazily: every Issue sweeps the table, and Validate always compares
// against the current time, so a token that is still physically present but
// past its expiry is rejected.
package token

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"
)

const (
	// DefaultTTL is how long an issued token stays valid.
	DefaultTTL = 5 * time.Minute

	tokenBytes = 16
)

// Authority is safe for concurrent use.
type Authority struct {
	mu     sync.RWMutex
	tokens map[string]time.Time
	ttl    time.Duration
	now    func() time.Time
}

// Option configures an Authority.
type Option func(*Authority)

// WithTTL overrides DefaultTTL. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(a *Authority) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) {
		if now != nil {
			a.now = now
		}
	}
}

// New returns an empty Authority.
func New(opts ...Option) *Authority {
	a := &Authority{
		tokens: make(map[string]time.Time),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Issue mints a new token valid until now+TTL and sweeps expired entries.
func (a *Authority) Issue() string {
	tok := generate()
	now := a.now()

	a.mu.Lock()
	defer a.mu.Unlock()

	a.tokens[tok] = now.Add(a.ttl)
	a.sweep(now)
	return tok
}

// Validate reports whether tok was issued and has not expired yet. Unknown
// and expired tokens are indistinguishable to the caller.
func (a *Authority) Validate(tok string) bool {
	if tok == "" {
		return false
	}
	now := a.now()

	a.mu.RLock()
	expiry, ok := a.tokens[tok]
	a.mu.RUnlock()

	return ok && expiry.After(now)
}

// Len returns the number of entries physically held, including expired ones
// that have not been swept yet.
func (a *Authority) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.tokens)
}

// TTL returns the lifetime given to new tokens.
func (a *Authority) TTL() time.Duration {
	return a.ttl
}

// sweep must be called with a.mu held for writing.
func (a *Authority) sweep(now time.Time) {
	for tok, expiry := range a.tokens {
		if !expiry.After(now) {
			delete(a.tokens, tok)
		}
	}
}

func generate() string {
	b := make([]byte, tokenBytes)
	// crypto/rand.Read never returns an error since Go 1.24.
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
