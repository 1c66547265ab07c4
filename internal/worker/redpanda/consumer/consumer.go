package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/leshachaplin/exmanalytics/internal/domain"
)

var errStopped = errors.New("consumer stopped")

const (
	defaultPollFetchesTimeout = 15 * time.Second
	defaultRetryCount         = 10
)

type Config struct {
	Brokers            []string      `envconfig:"BROKERS" default:"localhost:9092"`
	ConsumerGroup      string        `envconfig:"CONSUMER_GROUP" default:"exm-interactions"`
	Topics             []string      `envconfig:"TOPICS" default:"exm.interactions"`
	RetryCount         int           `envconfig:"RETRY_COUNT"`
	PollFetchesTimeout time.Duration `envconfig:"POLL_FETCHES_TIMEOUT"`
}

type Consumer struct {
	client             *kgo.Client
	retryCount         int
	pollFetchesTimeout time.Duration
	errChan            chan<- error
	logger             zerolog.Logger
}

func NewConsumer(cfg Config, errChan chan<- error, logger zerolog.Logger) (*Consumer, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.ConsumerGroup(cfg.ConsumerGroup),
		kgo.ConsumeTopics(cfg.Topics...),
		kgo.DisableAutoCommit(),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("kgo new client: %w", err)
	}

	ctx, cansel := context.WithTimeout(context.Background(), time.Second*15)
	defer cansel()
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, err
	}

	consumer := &Consumer{
		client:  client,
		errChan: errChan,
		logger:  logger,
	}

	if cfg.PollFetchesTimeout == 0 {
		consumer.pollFetchesTimeout = defaultPollFetchesTimeout
	} else {
		consumer.pollFetchesTimeout = cfg.PollFetchesTimeout
	}

	if cfg.RetryCount == 0 {
		consumer.retryCount = defaultRetryCount
	} else {
		consumer.retryCount = cfg.RetryCount
	}

	return consumer, nil
}

func (c *Consumer) Close() error {
	c.client.Close()
	return nil
}

func (c *Consumer) Consume(ctx context.Context, payloadChan chan<- domain.EmailOpened, done <-chan struct{}) {
	c.consume(ctx, done, func(fetches kgo.Fetches) error {
		for iter := fetches.RecordIter(); !iter.Done(); {
			record := iter.Next()

			var payload domain.EmailOpened
			if err := json.Unmarshal(record.Value, &payload); err != nil {
				c.logger.Error().Str("record", string(record.Value)).Err(err).Msg("Consume: Unmarshal payload value.")

				if commitErr := c.client.CommitRecords(ctx, record); commitErr != nil {
					return fmt.Errorf("commit record: %w", commitErr)
				}
				return err
			}

			select {
			case payloadChan <- payload:
			case <-done:
				return errStopped
			case <-ctx.Done():
				return ctx.Err()
			}

			if commitErr := c.client.CommitRecords(ctx, record); commitErr != nil {
				return fmt.Errorf("commit record: %w", commitErr)
			}
		}
		return nil
	})
}

func (c *Consumer) consume(ctx context.Context, done <-chan struct{}, fn func(fetches kgo.Fetches) error) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			return
		default:
			fetchCtx, cancel := context.WithTimeout(ctx, c.pollFetchesTimeout)
			fetches := c.client.PollFetches(fetchCtx)
			cancel()

			if fetches.IsClientClosed() {
				c.report(errors.New("client closed"))
				return
			}

			if err := fetches.Err(); err != nil {
				if errors.Is(err, context.Canceled) {
					return
				}

				if errors.Is(err, context.DeadlineExceeded) {
					continue
				}

				c.report(fmt.Errorf("stream poll fetches: %w", err))
				continue
			}

			if err := fn(fetches); err != nil {
				continue
			}
		}
	}
}

// report never blocks the poll loop on a slow error reader.
func (c *Consumer) report(err error) {
	c.logger.Warn().Err(err).Send()
	select {
	case c.errChan <- err:
	default:
	}
}
