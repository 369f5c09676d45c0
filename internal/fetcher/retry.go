package fetcher

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

// Policy decides how long to wait after a failed attempt. attempt starts at 1.
type Policy interface {
	Delay(attempt int) time.Duration
}

// Fixed waits the same interval after every failure.
type Fixed struct {
	Interval time.Duration
}

// Delay implements Policy.
func (f Fixed) Delay(int) time.Duration {
	if f.Interval < 0 {
		return 0
	}
	return f.Interval
}

// Exponential waits Initial, Initial*Factor, Initial*Factor^2, ... capped at Max.
type Exponential struct {
	Initial time.Duration
	Max     time.Duration
	Factor  float64
}

// Delay implements Policy.
func (e Exponential) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	factor := e.Factor
	if factor < 1 {
		factor = 2
	}
	d := float64(e.Initial) * math.Pow(factor, float64(attempt-1))
	if e.Max > 0 && d > float64(e.Max) {
		return e.Max
	}
	if d > math.MaxInt64 {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(d)
}

// Jittered adds up to Fraction*base on top of the wrapped policy, so the
// wait never drops below the base delay.
type Jittered struct {
	Base     Policy
	Fraction float64
	// Rand returns a value in [0,1); nil uses math/rand.
	Rand func() float64
}

// Delay implements Policy.
func (j Jittered) Delay(attempt int) time.Duration {
	base := j.Base.Delay(attempt)
	if j.Fraction <= 0 || base <= 0 {
		return base
	}
	rnd := j.Rand
	if rnd == nil {
		rnd = rand.Float64
	}
	return base + time.Duration(float64(base)*j.Fraction*rnd())
}

// PolicyOptions describe a policy by name, as read from configuration.
type PolicyOptions struct {
	Name     string
	Delay    time.Duration
	MaxDelay time.Duration
	Factor   float64
	Jitter   float64
}

// NewPolicy builds the named policy: fixed, exponential or jittered
// (exponential plus jitter).
func NewPolicy(opts PolicyOptions) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Name)) {
	case "", "fixed":
		return Fixed{Interval: opts.Delay}, nil
	case "exponential":
		return Exponential{Initial: opts.Delay, Max: opts.MaxDelay, Factor: opts.Factor}, nil
	case "jittered":
		return Jittered{
			Base:     Exponential{Initial: opts.Delay, Max: opts.MaxDelay, Factor: opts.Factor},
			Fraction: opts.Jitter,
		}, nil
	default:
		return nil, fmt.Errorf("unknown retry policy %q", opts.Name)
	}
}
