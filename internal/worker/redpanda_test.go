package worker

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/goleak"

	"github.com/leshachaplin/exmanalytics/internal/domain"
	"github.com/leshachaplin/exmanalytics/internal/testingh"
	"github.com/leshachaplin/exmanalytics/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/exmanalytics/internal/worker/redpanda/producer"
)

const (
	topic = "topic"
)

var (
	defaultTopics = []string{topic}
)

type IntegrationTestSuite struct {
	ctx      context.Context
	cancelFn context.CancelFunc

	kafkaCLi  *kadm.Client
	container *testingh.Container
	broker    string

	consumerCfg consumer.Config
	producerCfg producer.Config

	suite.Suite
}

func (i *IntegrationTestSuite) SetupSuite() {
	var err error
	ctx, cnsl := context.WithTimeout(context.Background(), time.Minute*2)
	i.ctx = ctx
	i.cancelFn = cnsl

	zerolog.SetGlobalLevel(zerolog.DebugLevel)

	i.container, err = testingh.NewRedpanda(func(connURL string) error {
		i.broker = connURL
		opts := []kgo.Opt{
			kgo.SeedBrokers(connURL),
		}

		pandaCLi, err := kgo.NewClient(opts...)
		if err != nil {
			return err
		}

		pingErr := pandaCLi.Ping(ctx)
		if pingErr != nil {
			pandaCLi.Close()
			return pingErr
		}

		i.kafkaCLi = kadm.NewClient(pandaCLi)
		return nil
	})
	i.Require().NoError(err)

	createTopicResponses, err := i.prepareTopics(ctx, defaultTopics...)
	i.Assert().NoError(err)
	i.kafkaCLi.Close()

	for _, response := range createTopicResponses {
		i.Require().NoError(response.Err)
	}

	i.consumerCfg = consumer.Config{
		Brokers:       []string{i.broker},
		ConsumerGroup: "topic-cg",
		Topics:        []string{topic},
		RetryCount:    5,
	}
	i.producerCfg = producer.Config{
		RetryAttempts: 5,
		RetryDelay:    time.Second,
		Brokers:       []string{i.broker},
		Topic:         topic,
	}
}

func (i *IntegrationTestSuite) TearDownSuite() {
	i.cancelFn()
	if i.container != nil {
		i.Assert().NoError(i.container.Purge())
	}
}

func TestIntegrationTestSuite(t *testing.T) {
	if os.Getenv("EXM_DOCKER_TESTS") == "" {
		t.Skip("EXM_DOCKER_TESTS is not set")
	}
	suite.Run(t, new(IntegrationTestSuite))
}

func (i *IntegrationTestSuite) prepareTopics(ctx context.Context, topics ...string) (kadm.CreateTopicResponses, error) {
	resp, err := i.kafkaCLi.CreateTopics(
		ctx,
		1,
		1,
		map[string]*string{},
		topics...,
	)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

func (i *IntegrationTestSuite) TestWorker_RedpandaQueue() {
	cases := map[string]struct {
		cfg        Config
		taskAmount int
	}{
		"ok": {
			cfg:        Config{NumWorkers: 100},
			taskAmount: 100,
		},
		"ok - tasks more than workers": {
			cfg:        Config{NumWorkers: 10},
			taskAmount: 1000,
		},
	}

	for name, tc := range cases {
		tc := tc
		i.Run(name, func() {
			defer goleak.VerifyNone(i.T())
			ctx, cancel := context.WithTimeout(i.ctx, time.Minute)
			defer cancel()

			consumerErrorChan := make(chan error, 1)
			consumer, err := consumer.NewConsumer(i.consumerCfg, consumerErrorChan, log.Logger)
			i.Require().NoError(err)

			producer, err := producer.NewProducer(
				ctx,
				i.producerCfg,
				log.With().Str("producer", "Publish").Logger(),
			)
			i.Require().NoError(err)

			received := make(chan domain.EmailOpened, tc.taskAmount)
			execFn := func(ctx context.Context, payload domain.EmailOpened) error {
				received <- payload
				return nil
			}

			l := log.With().Str("WORKER", "PROCESS").Logger()
			worker := New(ctx, tc.cfg, NewRedpandaQueue(producer, consumer), nil, l)
			worker.Start(execFn)

			for k := 0; k < tc.taskAmount; k++ {
				worker.Process(newPayload())
			}

			for k := 0; k < tc.taskAmount; k++ {
				select {
				case payload := <-received:
					i.NotNil(payload.Interaction)
				case <-ctx.Done():
					i.FailNow("timeout waiting for payloads")
				}
			}

			worker.GracefulStop()
			i.NoError(consumer.Close())
			i.NoError(producer.Close())
		})
	}
}
