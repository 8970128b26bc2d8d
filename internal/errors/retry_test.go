package errors

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastPolicy(maxAttempts int) *Policy {
	return &Policy{
		MaxAttempts:  maxAttempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     10 * time.Millisecond,
		Multiplier:   2.0,
		RetryIf:      IsRetryable,
	}
}

func TestDoWithResultSucceedsAfterRateLimits(t *testing.T) {
	calls := 0
	got, err := DoWithResult(context.Background(), fastPolicy(3), func() (string, error) {
		calls++
		if calls < 3 {
			return "", RateLimited(CodeGenerateRateLimit, "slow down", 0)
		}
		return "ok", nil
	})

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, 3, calls)
}

func TestDoWithResultExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), fastPolicy(3), func() (string, error) {
		calls++
		return "", RateLimited(CodeGenerateRateLimit, "slow down", 0)
	})

	require.Error(t, err)
	assert.Equal(t, 3, calls)

	var e *Error
	require.ErrorAs(t, err, &e)
	assert.Equal(t, KindRateLimited, e.Kind)
	assert.Equal(t, 3, e.Attempts)
}

func TestDoWithResultDoesNotRetryPermanentFailures(t *testing.T) {
	calls := 0
	_, err := DoWithResult(context.Background(), fastPolicy(3), func() (string, error) {
		calls++
		return "", RequestFailed(CodeSearchFailed, "boom", nil)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.True(t, IsKind(err, KindRequestFailed))
}

func TestDoWithResultHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	policy := fastPolicy(3)
	policy.InitialDelay = time.Hour // the wait must be interrupted, not served

	calls := 0
	start := time.Now()
	_, err := DoWithResult(ctx, policy, func() (string, error) {
		calls++
		cancel()
		return "", RateLimited(CodeGenerateRateLimit, "slow down", 0)
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Less(t, time.Since(start), time.Second)
	assert.True(t, IsKind(err, KindTimeout))
}

func TestKindRoundTrip(t *testing.T) {
	err := EmptyResult(CodeSearchEmpty, "nothing found")
	assert.Equal(t, KindEmptyResult, GetKind(err))
	assert.False(t, IsRetryable(err))

	rl := RateLimited(CodeSearchRateLimit, "429", time.Minute)
	assert.True(t, IsRetryable(rl))
	assert.Equal(t, time.Minute, rl.RetryAfter)
}

func TestWrapPreservesInner(t *testing.T) {
	inner := New("INNER", "inner failure", KindRequestFailed)
	outer := Wrap(inner, "OUTER", "outer context", KindStorage)

	assert.Equal(t, KindStorage, GetKind(outer))
	assert.ErrorContains(t, outer, "outer context")
	assert.ErrorContains(t, outer, "inner failure")
}
