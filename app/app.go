package app

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/leshachaplin/exmanalytics/app/waiter"
	"github.com/leshachaplin/exmanalytics/internal/cache"
	"github.com/leshachaplin/exmanalytics/internal/config"
	"github.com/leshachaplin/exmanalytics/internal/contact"
	"github.com/leshachaplin/exmanalytics/internal/dimension"
	"github.com/leshachaplin/exmanalytics/internal/geoip"
	"github.com/leshachaplin/exmanalytics/internal/metrics"
	"github.com/leshachaplin/exmanalytics/internal/retry"
	appServer "github.com/leshachaplin/exmanalytics/internal/server/http"
	"github.com/leshachaplin/exmanalytics/internal/service"
	"github.com/leshachaplin/exmanalytics/internal/storage/interaction/clickhouse"
	"github.com/leshachaplin/exmanalytics/internal/worker"
	"github.com/leshachaplin/exmanalytics/internal/worker/redpanda/consumer"
	"github.com/leshachaplin/exmanalytics/internal/worker/redpanda/producer"
)

const (
	defaultAddr      = ":8080"
	deadLetterSuffix = ".dlq"
	shutdownTimeout  = time.Minute
)

type LoadConfigFn func() (config.Config, error)

type App struct {
	cfg      config.Config
	logger   zerolog.Logger
	server   *appServer.Server
	registry *prometheus.Registry
	waiter   waiter.Waiter
	ctx      context.Context
	cancelFn context.CancelFunc
}

func New(loadConfigFn LoadConfigFn) *App {
	ctx, cancelFn := context.WithCancel(context.Background())
	cfg, err := loadConfigFn()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.Addr == "" {
		cfg.Addr = defaultAddr
	}

	logger := NewZeroLogger(Level(cfg.LogLevel))

	w := waiter.NewWaiter(ctx, cancelFn)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(registry)

	return &App{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		waiter:   w,
		ctx:      w.Context(),
		cancelFn: cancelFn,
	}
}

func (a *App) Start() {
	defer a.cancelFn()

	storage, err := clickhouse.New(a.ctx, a.cfg.Clickhouse, a.logger.With().Str("storage", "clickhouse").Logger())
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup interaction storage.")
	}
	defer storage.Close()

	if err = storage.Migrate(a.ctx); err != nil {
		a.logger.Fatal().Err(err).Msg("Could not migrate interaction storage.")
	}

	uniqueEvents, closeCache := a.uniqueEventCache()
	defer closeCache()

	consumerErrorChan := make(chan error, 1)
	interactionConsumer, err := consumer.NewConsumer(
		a.cfg.Consumer,
		consumerErrorChan,
		a.logger.With().Str("interaction consumer", "Consume").Logger(),
	)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup interaction consumer.")
	}
	defer interactionConsumer.Close()

	interactionProducer, err := producer.NewProducer(
		a.ctx,
		a.cfg.Producer,
		a.logger.With().Str("interaction producer", "Publish").Logger(),
	)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup interaction producer.")
	}
	defer interactionProducer.Close()

	deadLetterCfg := a.cfg.DeadLetter
	if deadLetterCfg.Topic == "" || deadLetterCfg.Topic == a.cfg.Producer.Topic {
		deadLetterCfg.Topic = a.cfg.Producer.Topic + deadLetterSuffix
	}
	deadLetterProducer, err := producer.NewProducer(
		a.ctx,
		deadLetterCfg,
		a.logger.With().Str("dead letter producer", "Publish").Logger(),
	)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup dead letter producer.")
	}
	defer deadLetterProducer.Close()

	interactionQueue := worker.NewRedpandaQueue(interactionProducer, interactionConsumer)
	l := a.logger.With().Str("WORKER", "INTERACTION").Logger()
	interactionWorker := worker.New(a.ctx, a.cfg.InteractionWorker, interactionQueue, deadLetterProducer, l)

	resolver := geoip.New(a.cfg.GeoIP, a.logger.With().Str("client", "geoip").Logger())
	contacts := contact.New(a.cfg.Contacts)

	aggregator := dimension.New(
		dimension.NewByLocation(resolver, a.logger),
		uniqueEvents,
		contacts,
		retry.New(a.cfg.ContactRetry, a.logger.With().Str("retry", "get_contact").Logger()),
		retry.NewClassifier("get_contact", a.logger).Unavailable,
		a.logger,
	)

	saver := service.NewSaver(
		storage,
		resolver,
		retry.New(a.cfg.SaveRetry, a.logger.With().Str("retry", "save_interaction").Logger()),
		retry.NewClassifier("save_interaction", a.logger),
		a.logger.With().Str("service", "saver").Logger(),
	)

	interactionService := service.New(
		interactionWorker,
		saver,
		aggregator,
		storage,
		a.logger.With().Str("service", "interaction").Logger(),
	)
	handler := appServer.NewHandler(interactionService, a.logger)

	a.server = appServer.New(handler, a.registry)

	a.waitForServer()
	a.waitForWorker(interactionWorker)
	a.waitForConsumerErrors(consumerErrorChan)

	if err = a.waiter.Wait(); err != nil {
		a.logger.Fatal().Err(err).Msg("App crash.")
	}
}

func (a *App) Stop() {
	a.cancelFn()
}

// uniqueEventCache shares the memo through redis when it is configured and
// keeps it in process otherwise.
func (a *App) uniqueEventCache() (dimension.UniqueEventCache, func()) {
	if a.cfg.Redis.Addr == "" {
		a.logger.Info().Msg("redis is not configured, unique events are cached in memory")
		return cache.NewMemory(), func() {}
	}

	redisCache, err := cache.NewRedis(a.ctx, a.cfg.Redis)
	if err != nil {
		a.logger.Fatal().Err(err).Msg("Could not setup unique event cache.")
	}
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("error while closing unique event cache")
		}
	}
}

func (a *App) waitForServer() {
	a.waiter.Add(func(ctx context.Context) error {
		defer a.logger.Debug().Msg("server has been shutdown")

		group, gCtx := errgroup.WithContext(ctx)
		group.Go(func() error {
			defer a.logger.Debug().Msg("public server exited")
			a.logger.Info().Str("addr", a.cfg.Addr).Msg("starting server")
			err := a.server.ServePublic(a.cfg.Addr)
			if err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		})

		group.Go(func() error {
			<-gCtx.Done()
			a.logger.Debug().Msg("shutting down the server")
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := a.server.ShutdownPublic(ctx); err != nil {
				a.logger.Warn().Err(err).Msg("error while shutting down the server")
			}
			return nil
		})

		return group.Wait()
	})
}

func (a *App) waitForWorker(interactionWorker worker.WorkerPool) {
	a.waiter.Add(func(ctx context.Context) error {
		<-ctx.Done()
		interactionWorker.GracefulStop()
		return nil
	})
}

func (a *App) waitForConsumerErrors(errs <-chan error) {
	a.waiter.Add(func(ctx context.Context) error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err := <-errs:
				a.logger.Error().Err(err).Msg("interaction consumer failed")
			}
		}
	})
}
