package retry

import (
	"errors"
	"time"

	"github.com/code-payments/dice-client/pkg/retry/backoff"
)

// Strategy decides whether to try again after the given failed attempt.
type Strategy func(attempts uint, err error) bool

// Limit allows at most maxAttempts attempts in total.
func Limit(maxAttempts uint) Strategy {
	return func(attempts uint, _ error) bool {
		return attempts < maxAttempts
	}
}

// RetriableErrors only retries errors matching one of targets.
func RetriableErrors(targets ...error) Strategy {
	return func(_ uint, err error) bool {
		for _, target := range targets {
			if errors.Is(err, target) {
				return true
			}
		}
		return false
	}
}

// Notify reports each retry to fn. It never refuses one.
func Notify(fn func(attempts uint, err error)) Strategy {
	return func(attempts uint, err error) bool {
		fn(attempts, err)
		return true
	}
}

// Backoff sleeps for the delay s assigns to the failed attempt.
func Backoff(s backoff.Strategy) Strategy {
	return func(attempts uint, _ error) bool {
		sleep(s(attempts))
		return true
	}
}

var sleep = time.Sleep
