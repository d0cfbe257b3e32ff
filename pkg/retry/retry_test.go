package retry

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/code-payments/dice-client/pkg/retry/backoff"
)

func TestRetry_Succeeds(t *testing.T) {
	calls := 0
	attempts, err := Retry(func() error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	assert.NoError(t, err)
	assert.EqualValues(t, 3, attempts)
}

func TestRetrier_StrategiesCompose(t *testing.T) {
	retriable := errors.New("retriable")
	r := NewRetrier(RetriableErrors(retriable), Limit(4))

	attempts, err := r.Retry(func() error { return nil })
	assert.NoError(t, err)
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return errors.New("fatal") })
	assert.EqualError(t, err, "fatal")
	assert.EqualValues(t, 1, attempts)

	attempts, err = r.Retry(func() error { return retriable })
	assert.ErrorIs(t, err, retriable)
	assert.EqualValues(t, 4, attempts)
}

func TestRetry_RealSleep(t *testing.T) {
	start := time.Now()
	attempts, err := Retry(
		func() error { return errors.New("down") },
		Limit(3),
		Backoff(backoff.Constant(50*time.Millisecond)),
	)
	elapsed := time.Since(start)

	assert.Error(t, err)
	assert.EqualValues(t, 3, attempts)
	assert.GreaterOrEqual(t, elapsed, 100*time.Millisecond)
	assert.Less(t, elapsed, time.Second)
}
