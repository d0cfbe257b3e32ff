package backoff

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConstant(t *testing.T) {
	s := Constant(400 * time.Millisecond)
	for attempt := uint(1); attempt <= 5; attempt++ {
		assert.Equal(t, 400*time.Millisecond, s(attempt))
	}
}

func TestExponential(t *testing.T) {
	s := Exponential(2*time.Second, 3)
	assert.Equal(t, 2*time.Second, s(1))
	assert.Equal(t, 6*time.Second, s(2))
	assert.Equal(t, 18*time.Second, s(3))
	assert.Equal(t, 54*time.Second, s(4))

	assert.Equal(t, time.Duration(math.MaxInt64), s(200))
}

func TestBinaryExponential(t *testing.T) {
	s := BinaryExponential(time.Second)
	assert.Equal(t, time.Second, s(1))
	assert.Equal(t, 2*time.Second, s(2))
	assert.Equal(t, 8*time.Second, s(4))
}

func TestCapped(t *testing.T) {
	s := Capped(BinaryExponential(time.Second), 5*time.Second)
	assert.Equal(t, 4*time.Second, s(3))
	assert.Equal(t, 5*time.Second, s(4))
	assert.Equal(t, 5*time.Second, s(60))
}

func TestJittered(t *testing.T) {
	s := Jittered(Constant(time.Second), 0.1)

	var total time.Duration
	for i := 0; i < 1000; i++ {
		delay := s(1)
		assert.GreaterOrEqual(t, delay, 900*time.Millisecond)
		assert.LessOrEqual(t, delay, 1100*time.Millisecond)
		total += delay
	}
	assert.InDelta(t, float64(time.Second), float64(total/1000), float64(20*time.Millisecond))
}
