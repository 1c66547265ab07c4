package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

func TestClassifier_IsTransient(t *testing.T) {
	failed := domain.Batch{
		{Name: "add_interaction", Status: domain.OperationSucceeded},
		{Name: "set_ip_info", Status: domain.OperationFailed},
	}
	succeeded := domain.Batch{
		{Name: "add_interaction", Status: domain.OperationSucceeded},
	}

	cases := map[string]struct {
		err       error
		lastBatch domain.Batch
		expected  bool
	}{
		"store unavailable, no batch": {
			err:      domain.ErrStoreUnavailable,
			expected: true,
		},
		"wrapped store unavailable, succeeded batch": {
			err:       fmt.Errorf("ping: %w", domain.ErrStoreUnavailable),
			lastBatch: succeeded,
			expected:  true,
		},
		"other error, failed batch": {
			err:       errors.New("boom"),
			lastBatch: failed,
			expected:  true,
		},
		"other error, succeeded batch": {
			err:       errors.New("boom"),
			lastBatch: succeeded,
			expected:  false,
		},
		"other error, no batch": {
			err:      errors.New("boom"),
			expected: false,
		},
	}

	c := NewClassifier("test", zerolog.Nop())
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.expected, c.IsTransient(tc.err, tc.lastBatch))
		})
	}
}

func TestRetrier_Do(t *testing.T) {
	errTransient := errors.New("transient")
	errFatal := errors.New("fatal")
	isTransient := func(err error) bool { return errors.Is(err, errTransient) }

	cases := map[string]struct {
		retryCount    int
		results       []error
		expectedCalls int
		expectedErr   error
	}{
		"ok first attempt": {
			retryCount:    3,
			results:       []error{nil},
			expectedCalls: 1,
		},
		"ok after transient failures": {
			retryCount:    3,
			results:       []error{errTransient, errTransient, nil},
			expectedCalls: 3,
		},
		"fatal stops immediately": {
			retryCount:    3,
			results:       []error{errFatal},
			expectedCalls: 1,
			expectedErr:   errFatal,
		},
		"exhausted": {
			retryCount:    2,
			results:       []error{errTransient, errTransient, errTransient},
			expectedCalls: 3,
			expectedErr:   ErrRetriesExhausted,
		},
		"no retries": {
			retryCount:    0,
			results:       []error{errTransient},
			expectedCalls: 1,
			expectedErr:   ErrRetriesExhausted,
		},
	}

	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			r := New(Config{Delay: time.Millisecond, RetryCount: tc.retryCount}, zerolog.Nop())

			calls := 0
			err := r.Do(context.Background(), "test", func(ctx context.Context) error {
				res := tc.results[calls]
				calls++
				return res
			}, isTransient)

			require.Equal(t, tc.expectedCalls, calls)
			if tc.expectedErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestRetrier_Do_ContextCanceled(t *testing.T) {
	r := New(Config{Delay: time.Hour, RetryCount: 5}, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := r.Do(ctx, "test", func(ctx context.Context) error {
		calls++
		cancel()
		return domain.ErrStoreUnavailable
	}, func(error) bool { return true })

	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}

func TestRetrier_Do_LastAttemptIsNotAnnouncedAsRetry(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := zerolog.New(buf)
	r := New(Config{Delay: time.Millisecond, RetryCount: 1}, logger)
	c := NewClassifier("save_interaction", logger)

	calls := 0
	err := r.Do(context.Background(), "save_interaction", func(ctx context.Context) error {
		calls++
		return domain.ErrStoreUnavailable
	}, c.Unavailable)

	require.ErrorIs(t, err, ErrRetriesExhausted)
	require.Equal(t, 2, calls)
	require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`"message":"Retry: 1."`)))
	require.Zero(t, bytes.Count(buf.Bytes(), []byte("Retry: 2.")))
	require.NotContains(t, buf.String(), "Retrying")
	require.Equal(t, 2, bytes.Count(buf.Bytes(), []byte(`"message":"Transient error."`)))
}
