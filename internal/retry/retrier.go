package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultDelay      = 200 * time.Millisecond
	defaultRetryCount = 3
)

var ErrRetriesExhausted = errors.New("retries exhausted")

type Config struct {
	Delay      time.Duration `envconfig:"DELAY" default:"200ms"`
	RetryCount int           `envconfig:"COUNT" default:"3"`
}

// Retrier runs an operation until it succeeds, fails fatally or runs out of
// retries. The delay between attempts is fixed.
type Retrier struct {
	delay      time.Duration
	retryCount int
	logger     zerolog.Logger
}

func New(cfg Config, logger zerolog.Logger) *Retrier {
	r := &Retrier{
		delay:      cfg.Delay,
		retryCount: cfg.RetryCount,
		logger:     logger,
	}
	if r.delay <= 0 {
		r.delay = defaultDelay
	}
	if r.retryCount < 0 {
		r.retryCount = defaultRetryCount
	}
	return r
}

// Do calls fn once and retries it up to the configured count while
// isTransient reports true for the returned error.
func (r *Retrier) Do(
	ctx context.Context,
	op string,
	fn func(ctx context.Context) error,
	isTransient func(err error) bool,
) error {
	var err error
	for attempt := 0; attempt <= r.retryCount; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if errors.Is(err, context.Canceled) || !isTransient(err) {
			return err
		}
		if attempt == r.retryCount {
			break
		}

		r.logger.Warn().Err(err).Str("operation", op).Msgf("Retry: %d.", attempt+1)

		t := time.NewTimer(r.delay)
		select {
		case <-ctx.Done():
			t.Stop()
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-t.C:
		}
	}
	return fmt.Errorf("%s: %w: %w", op, ErrRetriesExhausted, err)
}
