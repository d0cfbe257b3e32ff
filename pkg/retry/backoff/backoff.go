// Package backoff computes the delay between retry attempts.
package backoff

import (
	"math"
	"math/rand"
	"time"
)

// Strategy maps the attempt that just failed, starting at 1, to a delay.
type Strategy func(attempt uint) time.Duration

func Constant(delay time.Duration) Strategy {
	return func(uint) time.Duration {
		return delay
	}
}

// Exponential multiplies initial by factor for each attempt after the first.
// Delays that overflow saturate at the largest duration.
//
// Exponential(2*time.Second, 3) = 2s, 6s, 18s, 54s, ...
func Exponential(initial time.Duration, factor float64) Strategy {
	return func(attempt uint) time.Duration {
		delay := float64(initial) * math.Pow(factor, float64(attempt)-1)
		if delay >= math.MaxInt64 {
			return math.MaxInt64
		}
		return time.Duration(delay)
	}
}

func BinaryExponential(initial time.Duration) Strategy {
	return Exponential(initial, 2)
}

// Capped bounds every delay from s by max.
func Capped(s Strategy, max time.Duration) Strategy {
	return func(attempt uint) time.Duration {
		if delay := s(attempt); delay < max {
			return delay
		}
		return max
	}
}

// Jittered spreads each delay from s uniformly over +/- fraction of itself.
func Jittered(s Strategy, fraction float64) Strategy {
	return func(attempt uint) time.Duration {
		delay := float64(s(attempt))
		return time.Duration(delay * (1 + fraction*(2*rand.Float64()-1)))
	}
}
