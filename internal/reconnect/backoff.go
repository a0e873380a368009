package reconnect

import (
	"math/rand"
	"time"
)

// Policy computes the delay to sleep before attempt n+1, given that n prior
// attempts have failed.
type Policy interface {
	Delay(attempt uint) time.Duration
}

// ExponentialJitter is the default policy: delay = min(maxDelay,
// baseDelay*multiplier^attempt), optionally scaled by a uniform random
// factor in [0.5, 1.5].
type ExponentialJitter struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
	Jitter     bool
}

// DefaultPolicy returns the spec-mandated defaults: baseDelay=1s,
// maxDelay=300s, multiplier=2.0, jitter=on.
func DefaultPolicy() *ExponentialJitter {
	return &ExponentialJitter{
		BaseDelay:  1 * time.Second,
		MaxDelay:   300 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}
}

func (p *ExponentialJitter) Delay(attempt uint) time.Duration {
	d := float64(p.BaseDelay)
	for i := uint(0); i < attempt; i++ {
		d *= p.Multiplier
		if d >= float64(p.MaxDelay) {
			d = float64(p.MaxDelay)
			break
		}
	}
	if d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	if p.Jitter {
		d *= 0.5 + rand.Float64()
	}
	return time.Duration(d)
}

// Fixed always returns the same delay.
type Fixed struct {
	Delay_ time.Duration
}

func (f Fixed) Delay(attempt uint) time.Duration { return f.Delay_ }

// Linear computes base + step*attempt.
type Linear struct {
	Base time.Duration
	Step time.Duration
}

func (l Linear) Delay(attempt uint) time.Duration {
	return l.Base + time.Duration(attempt)*l.Step
}

// ExponentialCapped is ExponentialJitter with jitter forced off; kept as a
// distinct named policy for tests and config clarity.
type ExponentialCapped struct {
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

func (e ExponentialCapped) Delay(attempt uint) time.Duration {
	p := ExponentialJitter{BaseDelay: e.BaseDelay, MaxDelay: e.MaxDelay, Multiplier: e.Multiplier}
	return p.Delay(attempt)
}

// Func adapts a plain function to Policy, for tests and custom scripting.
type Func func(attempt uint) time.Duration

func (f Func) Delay(attempt uint) time.Duration { return f(attempt) }
