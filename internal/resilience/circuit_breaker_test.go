package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBackend = errors.New("backend down")

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker() (*CircuitBreaker, *clock) {
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	cb := NewCircuitBreaker("redis", CircuitBreakerConfig{
		FailureThreshold: 2,
		RecoveryTimeout:  time.Second,
		SuccessThreshold: 2,
	})
	cb.now = clk.now
	return cb, clk
}

func fail() error    { return errBackend }
func succeed() error { return nil }

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	cb, _ := newTestBreaker()

	assert.ErrorIs(t, cb.Call(fail), errBackend)
	assert.Equal(t, StateClosed, cb.State())
	assert.ErrorIs(t, cb.Call(fail), errBackend)
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called, "open breaker does not call through")
	assert.EqualValues(t, 1, cb.Stats()["rejected"])
}

func TestCircuitBreakerSuccessResetsFailures(t *testing.T) {
	cb, _ := newTestBreaker()

	require.Error(t, cb.Call(fail))
	require.NoError(t, cb.Call(succeed))
	require.Error(t, cb.Call(fail))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerRecovery(t *testing.T) {
	cb, clk := newTestBreaker()
	require.Error(t, cb.Call(fail))
	require.Error(t, cb.Call(fail))

	clk.advance(time.Second)
	require.NoError(t, cb.Call(succeed))
	assert.Equal(t, StateHalfOpen, cb.State())
	require.NoError(t, cb.Call(succeed))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	cb, clk := newTestBreaker()
	require.Error(t, cb.Call(fail))
	require.Error(t, cb.Call(fail))

	clk.advance(time.Second)
	require.Error(t, cb.Call(fail))
	assert.Equal(t, StateOpen, cb.State())
	assert.ErrorIs(t, cb.Call(succeed), ErrOpen)
}

func TestCircuitBreakerReset(t *testing.T) {
	cb, _ := newTestBreaker()
	require.Error(t, cb.Call(fail))
	require.Error(t, cb.Call(fail))

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.Stats()["state"])
}
