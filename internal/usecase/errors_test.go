package usecase

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestError_Message(t *testing.T) {
	require.Equal(t, "usecase: INVALID_INPUT (empty_message)", newError(ErrorInvalidInput, "empty_message", nil).Error())
	require.Equal(t, "usecase: UPSTREAM_ERROR (openai_error): boom", newError(ErrorUpstream, "openai_error", errors.New("boom")).Error())

	var nilErr *Error
	require.Empty(t, nilErr.Error())
	require.NoError(t, nilErr.Unwrap())
}

func TestError_Retryable(t *testing.T) {
	require.True(t, newError(ErrorRateLimited, "x", nil).Retryable())
	require.True(t, newError(ErrorUpstream, "x", nil).Retryable())
	require.True(t, newError(ErrorUnavailable, "x", nil).Retryable())
	require.False(t, newError(ErrorInvalidInput, "x", nil).Retryable())
	require.False(t, newError(ErrorInternal, "x", nil).Retryable())
}

func TestAsError(t *testing.T) {
	inner := newError(ErrorRateLimited, "openai_rate_limited", nil)
	got := AsError(fmt.Errorf("wrapped: %w", inner))
	require.Same(t, inner, got)

	plain := errors.New("boom")
	got = AsError(plain)
	require.Equal(t, ErrorInternal, got.Code)
	require.Equal(t, "unexpected", got.Reason)
	require.ErrorIs(t, got, plain)
}
