package redis

import (
	"context"
	"errors"
	"testing"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreakerHook_StartsClosed(t *testing.T) {
	hook := NewCircuitBreakerHook()
	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_PassesThroughSuccess(t *testing.T) {
	hook := NewCircuitBreakerHook()

	called := false
	process := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		called = true
		return nil
	})

	cmd := goredis.NewStringCmd(context.Background(), "get", "key")
	require.NoError(t, process(context.Background(), cmd))
	assert.True(t, called)
	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_KeyMissIsNotAFailure(t *testing.T) {
	hook := NewCircuitBreakerHook()

	process := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		return goredis.Nil
	})

	cmd := goredis.NewStringCmd(context.Background(), "get", "missing")
	for range 10 {
		err := process(context.Background(), cmd)
		assert.ErrorIs(t, err, goredis.Nil)
	}

	assert.Equal(t, circuitbreaker.ClosedState, hook.State())
}

func TestCircuitBreakerHook_OpensAfterFailures(t *testing.T) {
	hook := NewCircuitBreakerHook()
	boom := errors.New("connection refused")

	process := hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		return boom
	})

	cmd := goredis.NewStringCmd(context.Background(), "get", "key")
	for range 5 {
		err := process(context.Background(), cmd)
		require.Error(t, err)
	}

	require.Equal(t, circuitbreaker.OpenState, hook.State())

	// While open, commands fail fast without reaching Redis.
	reached := false
	process = hook.ProcessHook(func(ctx context.Context, cmd goredis.Cmder) error {
		reached = true
		return nil
	})
	err := process(context.Background(), cmd)
	require.Error(t, err)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.False(t, reached)
}
