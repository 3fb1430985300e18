package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_Handle(t *testing.T) {
	h := NewHandler(testLogger(), false)
	ctx := context.Background()

	testCases := []struct {
		name          string
		err           error
		wantMessage   string
		wantRetryable bool
	}{
		{
			name:          "database error",
			err:           NewDatabaseError(stdErrors.New("conn refused")),
			wantMessage:   "Problema temporário, tente novamente em instantes.",
			wantRetryable: true,
		},
		{
			name:        "wrapped duplicate",
			err:         fmt.Errorf("commit: %w", NewDuplicateError("cpf_cnpj", nil)),
			wantMessage: "Já existe um registro com esses dados.",
		},
		{
			name:        "plain error",
			err:         stdErrors.New("boom"),
			wantMessage: defaultUserMessage,
		},
		{
			name:        "app error without user message",
			err:         &AppError{Code: "E999", Message: "x"},
			wantMessage: defaultUserMessage,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			msg, retryable := h.Handle(ctx, tc.err)
			assert.Equal(t, tc.wantMessage, msg)
			assert.Equal(t, tc.wantRetryable, retryable)
		})
	}

	msg, _ := h.Handle(ctx, context.Canceled)
	assert.Equal(t, defaultUserMessage, msg)

	msg, retryable := h.Handle(ctx, nil)
	assert.Empty(t, msg)
	assert.False(t, retryable)
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries retryable errors until success", func(t *testing.T) {
		attempts := 0
		err := WithRetry(ctx, func() error {
			attempts++
			if attempts < 2 {
				return NewDatabaseError(stdErrors.New("timeout"))
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 2, attempts)
	})

	t.Run("stops on non-retryable error", func(t *testing.T) {
		attempts := 0
		err := WithRetry(ctx, func() error {
			attempts++
			return NewValidationError("bad")
		})
		require.Error(t, err)
		assert.Equal(t, 1, attempts)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		policy := RetryPolicy{Attempts: 3, Initial: time.Millisecond, Max: 2 * time.Millisecond}
		attempts := 0
		err := policy.Do(ctx, func() error {
			attempts++
			return NewDatabaseError(stdErrors.New("timeout"))
		})
		assert.True(t, IsRetryable(err))
		assert.Equal(t, 3, attempts)
	})

	t.Run("honours cancelled context", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(ctx)
		cancel()

		err := WithRetry(cancelled, func() error { return nil })
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestRetryPolicy_Backoff(t *testing.T) {
	assert.Equal(t, 200*time.Millisecond, DefaultRetry.backoff(1))
	assert.Equal(t, 400*time.Millisecond, DefaultRetry.backoff(2))
	assert.Equal(t, 800*time.Millisecond, DefaultRetry.backoff(3))
	assert.Equal(t, 5*time.Second, DefaultRetry.backoff(10))
}

func TestCircuitBreaker_OpensAfterFailures(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker("completion", func(name string, from, to State) {
		transitions = append(transitions, from.String()+"->"+to.String())
	})

	failure := stdErrors.New("upstream down")
	for i := 0; i < MinRequests; i++ {
		_ = cb.Call(func() error { return failure })
	}

	assert.Equal(t, StateOpen, cb.State())
	assert.Equal(t, []string{"closed->open"}, transitions)

	called := false
	err := cb.Call(func() error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_HalfOpenRecovers(t *testing.T) {
	cb := NewCircuitBreaker("completion", nil)
	cb.state = StateOpen
	cb.lastFailureTime = time.Now().Add(-TimeoutDuration - time.Second)

	for i := 0; i < HalfOpenMaxRequests; i++ {
		require.NoError(t, cb.Call(func() error { return nil }))
	}

	assert.Equal(t, StateClosed, cb.State())
}
