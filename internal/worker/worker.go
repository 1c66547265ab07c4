package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

const defaultNumWorkers = 16

type ExecuteFn func(ctx context.Context, payload domain.EmailOpened) error

type WorkerPool interface {
	Start(executeFn ExecuteFn)
	GracefulStop()
	Process(payload domain.EmailOpened)
}

type Pool struct {
	numWorkers  int
	taskPayload chan domain.EmailOpened
	queue       Queue
	errorQueue  Publisher
	start       sync.Once
	stop        sync.Once
	doneChan    chan struct{}
	ctx         context.Context
	cancelFn    context.CancelFunc
	wg          *sync.WaitGroup
	logger      zerolog.Logger
}

// New creates a pool that consumes payloads from queue. Payloads that could
// not be published or processed go to errorQueue.
func New(ctx context.Context, cfg Config, queue Queue, errorQueue Publisher, logger zerolog.Logger) *Pool {
	numWorkers := cfg.NumWorkers
	if numWorkers <= 0 {
		numWorkers = defaultNumWorkers
	}

	c, cancelFn := context.WithCancel(ctx)
	return &Pool{
		numWorkers:  numWorkers,
		taskPayload: make(chan domain.EmailOpened, numWorkers),
		doneChan:    make(chan struct{}),
		queue:       queue,
		errorQueue:  errorQueue,
		ctx:         c,
		cancelFn:    cancelFn,
		wg:          &sync.WaitGroup{},
		logger:      logger,
	}
}

func (w *Pool) Start(executeFn ExecuteFn) {
	w.start.Do(func() {
		for i := 0; i < w.numWorkers; i++ {
			w.wg.Add(1)
			l := w.logger.With().Int("worker", i).Logger()
			go w.work(w.ctx, l, executeFn)
		}

		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.queue.Consume(w.ctx, w.taskPayload, w.doneChan)
		}()
	})
}

func (w *Pool) GracefulStop() {
	w.stop.Do(func() {
		close(w.doneChan)
		w.cancelFn()
		w.wg.Wait()
	})
}

func (w *Pool) Process(payload domain.EmailOpened) {
	if err := w.queue.Publish(w.ctx, payload.Key(), payload); err != nil {
		w.onFailure(payload, err)
	}
}

func (w *Pool) onFailure(payload domain.EmailOpened, err error) {
	p := deadLetter{
		Payload: payload,
	}
	p.SetErrorReason(err)
	if w.errorQueue == nil {
		w.logger.Error().Err(err).Str("key", payload.Key()).Msg("failed to process interaction")
		return
	}
	if errPublish := w.errorQueue.Publish(w.ctx, payload.Key(), p); errPublish != nil {
		w.logger.Error().Err(err).AnErr("publish_error", errPublish).
			Str("key", payload.Key()).
			Msg("failed to process interaction")
	}
}

func (w *Pool) work(
	ctx context.Context,
	logger zerolog.Logger,
	executeFn ExecuteFn,
) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.doneChan:
			return
		case pld, ok := <-w.taskPayload:
			if !ok {
				return
			}

			logger.Debug().Str("KEY", pld.Key()).Msg("start processing interaction")
			if err := executeFn(ctx, pld); err != nil {
				w.onFailure(pld, err)
			}
			logger.Debug().Str("KEY", pld.Key()).Msg("end processing interaction")
		}
	}
}

type deadLetter struct {
	Payload domain.EmailOpened `json:"payload"`
	Error   *errorReason       `json:"error_reason"`
}

func (c *deadLetter) SetErrorReason(err error) {
	if c.Error == nil {
		c.Error = new(errorReason)
	}
	c.Error.Reason = err
}

func (c *deadLetter) GetErrorReason() error {
	if c.Error != nil {
		return c.Error.Reason
	}
	return nil
}

type errorReason struct {
	Reason error
}

func (e errorReason) MarshalJSON() ([]byte, error) {
	if e.Reason != nil {
		return json.Marshal(e.Reason.Error())
	}
	return json.Marshal(nil)
}

func (e *errorReason) UnmarshalJSON(data []byte) error {
	var reason string
	if err := json.Unmarshal(data, &reason); err != nil {
		return err
	}
	e.Reason = errors.New(reason)
	return nil
}
