package waiter

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"
)

type WaitFunc func(ctx context.Context) error

type Waiter interface {
	Add(fns ...WaitFunc)
	Wait() error
	Context() context.Context
	CancelFunc() context.CancelFunc
}

type waiterCfg struct {
	signals []os.Signal
}

type waiter struct {
	ctx      context.Context
	cancelFn context.CancelFunc
	fns      []WaitFunc
}

// NewWaiter returns a Waiter whose context is cancelled by cancelFn or by
// one of the configured signals (SIGINT and SIGTERM by default).
func NewWaiter(ctx context.Context, cancelFn context.CancelFunc, opts ...Option) Waiter {
	cfg := &waiterCfg{
		signals: []os.Signal{os.Interrupt, syscall.SIGTERM},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	w := &waiter{
		fns: []WaitFunc{},
	}
	w.ctx, w.cancelFn = signal.NotifyContext(ctx, cfg.signals...)

	go func() {
		<-w.ctx.Done()
		cancelFn()
	}()

	return w
}

func (w *waiter) Add(fns ...WaitFunc) {
	w.fns = append(w.fns, fns...)
}

// Wait runs every added func and blocks until all of them return. The first
// error cancels the rest.
func (w *waiter) Wait() error {
	group, ctx := errgroup.WithContext(w.ctx)

	group.Go(func() error {
		<-ctx.Done()
		w.cancelFn()
		return nil
	})

	for _, fn := range w.fns {
		fn := fn
		group.Go(func() error { return fn(ctx) })
	}

	return group.Wait()
}

func (w *waiter) Context() context.Context {
	return w.ctx
}

func (w *waiter) CancelFunc() context.CancelFunc {
	return w.cancelFn
}
