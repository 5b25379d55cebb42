// Package pacing spaces out calls to an external service.
package pacing

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Pacer is consulted after each call. Wait blocks until the next call may
// proceed or ctx is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

// Fixed waits the same delay every time.
type Fixed struct {
	Delay time.Duration
}

// Wait sleeps for the delay.
func (f Fixed) Wait(ctx context.Context) error {
	if f.Delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.Delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// TokenBucket allows bursts of calls and then one call per interval.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket allows burst calls up front, refilled at one per interval.
func NewTokenBucket(interval time.Duration, burst int) *TokenBucket {
	if burst < 1 {
		burst = 1
	}
	return &TokenBucket{limiter: rate.NewLimiter(rate.Every(interval), burst)}
}

// Wait takes a token, blocking until one is available.
func (b *TokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}

// None never waits.
type None struct{}

// Wait returns immediately.
func (None) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Modes accepted by New.
const (
	ModeFixed       = "fixed"
	ModeTokenBucket = "token-bucket"
	ModeNone        = "none"
)

// New builds a pacer by mode name. An empty mode selects ModeFixed.
func New(mode string, delay time.Duration, burst int) (Pacer, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeFixed:
		return Fixed{Delay: delay}, nil
	case ModeTokenBucket:
		if delay <= 0 {
			return None{}, nil
		}
		return NewTokenBucket(delay, burst), nil
	case ModeNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown pacing mode %q (want %s, %s or %s)", mode, ModeFixed, ModeTokenBucket, ModeNone)
	}
}
