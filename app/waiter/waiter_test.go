package waiter

import (
	"context"
	"errors"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestWaiter_Cancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	w := NewWaiter(ctx, cancel, WithSignals(syscall.SIGUSR1))

	stopped := make(chan struct{})
	w.Add(func(ctx context.Context) error {
		<-ctx.Done()
		close(stopped)
		return nil
	})

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	require.NoError(t, w.Wait())
	<-stopped
}

func TestWaiter_Error(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w := NewWaiter(ctx, cancel, WithSignals(syscall.SIGUSR1))

	errBoom := errors.New("boom")
	w.Add(
		func(ctx context.Context) error { return errBoom },
		func(ctx context.Context) error {
			<-ctx.Done()
			return nil
		},
	)

	require.ErrorIs(t, w.Wait(), errBoom)
	require.Error(t, w.Context().Err())
}
