package resilience

import (
	"context"
	"math"
	"time"
)

// BackoffConfig controls exponential backoff between retry attempts.
type BackoffConfig struct {
	// Base is the delay after the first failed attempt. Default: 1s.
	Base time.Duration

	// Multiplier scales the delay after each attempt. Default: 2.0, which
	// yields Base * 2^attempt.
	Multiplier float64

	// Max caps the delay. Zero means uncapped.
	Max time.Duration
}

// DefaultBackoff returns the backoff used by the item processor: one time
// unit doubling per attempt, uncapped.
func DefaultBackoff() BackoffConfig {
	return BackoffConfig{
		Base:       time.Second,
		Multiplier: 2.0,
	}
}

// Delay returns the backoff duration after the given zero-based attempt.
func (c BackoffConfig) Delay(attempt int) time.Duration {
	base := c.Base
	if base <= 0 {
		base = time.Second
	}
	mult := c.Multiplier
	if mult <= 0 {
		mult = 2.0
	}

	d := float64(base) * math.Pow(mult, float64(attempt))
	if c.Max > 0 && d > float64(c.Max) {
		d = float64(c.Max)
	}
	return time.Duration(d)
}

// Sleep blocks for the attempt's backoff delay or until ctx is cancelled,
// returning ctx.Err() in the latter case.
func (c BackoffConfig) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.Delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
