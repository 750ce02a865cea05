// Package ratelimit locks out clients that keep presenting a wrong API key.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 15 * time.Minute
	MaxLockoutDuration       = time.Hour
)

type lockout struct {
	failedAttempts int
	lockedUntil    time.Time
	lockoutCount   int
}

// KeyLimiter tracks failed API key attempts per client IP. Each lockout
// lasts longer than the one before, up to MaxLockoutDuration.
type KeyLimiter struct {
	mu       sync.Mutex
	lockouts map[string]*lockout
	now      func() time.Time

	maxFailedAttempts   int
	baseLockoutDuration time.Duration
}

// NewKeyLimiter creates a limiter with the default thresholds.
func NewKeyLimiter() *KeyLimiter {
	return &KeyLimiter{
		lockouts:            make(map[string]*lockout),
		now:                 time.Now,
		maxFailedAttempts:   DefaultMaxFailedAttempts,
		baseLockoutDuration: DefaultLockoutDuration,
	}
}

// IsLocked reports whether ip is currently locked out.
func (l *KeyLimiter) IsLocked(ip string) bool {
	return l.LockoutRemaining(ip) > 0
}

// LockoutRemaining returns how long ip stays locked out.
func (l *KeyLimiter) LockoutRemaining(ip string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	lo, ok := l.lockouts[ip]
	if !ok {
		return 0
	}
	remaining := lo.lockedUntil.Sub(l.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

// RecordFailure counts a rejected key and locks ip out once the threshold
// is reached.
func (l *KeyLimiter) RecordFailure(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	lo, ok := l.lockouts[ip]
	if !ok {
		lo = &lockout{}
		l.lockouts[ip] = lo
	}

	if now.After(lo.lockedUntil) && lo.failedAttempts >= l.maxFailedAttempts {
		lo.failedAttempts = 0
	}

	lo.failedAttempts++

	if lo.failedAttempts >= l.maxFailedAttempts {
		lo.lockoutCount++
		d := l.baseLockoutDuration * time.Duration(lo.lockoutCount)
		if d > MaxLockoutDuration {
			d = MaxLockoutDuration
		}
		lo.lockedUntil = now.Add(d)
	}
}

// RecordSuccess forgets ip's failures.
func (l *KeyLimiter) RecordSuccess(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.lockouts, ip)
}

// Cleanup drops expired entries that are below the threshold.
func (l *KeyLimiter) Cleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for ip, lo := range l.lockouts {
		if now.After(lo.lockedUntil) && lo.failedAttempts < l.maxFailedAttempts {
			delete(l.lockouts, ip)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (l *KeyLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				l.Cleanup()
			}
		}
	}()
}
